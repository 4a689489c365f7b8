package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostListConditions(t *testing.T) {
	t.Run("anonymous unscoped listing reads public and restricted groups", func(t *testing.T) {
		f := &PostFilters{ScopeToViewer: true}
		where, args := f.listConditions()

		assert.Contains(t, where, "g.visibility IN ('public', 'restricted')")
		assert.NotContains(t, where, "group_members")
		assert.Contains(t, where, "p.status <> 'removed'")
		assert.Contains(t, where, "p.status <> 'draft'")
		assert.Empty(t, args)
	})

	t.Run("authenticated non-members additionally reach their own groups", func(t *testing.T) {
		f := &PostFilters{ScopeToViewer: true, ViewerID: "u1"}
		where, args := f.listConditions()

		assert.Contains(t, where, "g.visibility IN ('public', 'restricted')")
		assert.Contains(t, where, "group_members")
		// viewer id binds the membership check and the own-drafts carve-out
		require.Len(t, args, 2)
		assert.Equal(t, "u1", args[0])
		assert.Equal(t, "u1", args[1])
	})

	t.Run("nested listing trusts the already-authorized group scope", func(t *testing.T) {
		f := &PostFilters{GroupID: "g1"}
		where, args := f.listConditions()

		assert.Contains(t, where, "p.group_id = $1")
		assert.NotContains(t, where, "g.visibility")
		require.Len(t, args, 1)
	})

	t.Run("moderator tier lifts the status conditions", func(t *testing.T) {
		f := &PostFilters{GroupID: "g1", IncludeRemoved: true, IncludeDrafts: true}
		where, _ := f.listConditions()

		assert.NotContains(t, where, "removed")
		assert.NotContains(t, where, "draft")
	})
}
