package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, pageOffset(0, 20))
	assert.Equal(t, 0, pageOffset(-3, 20))
	assert.Equal(t, 0, pageOffset(1, 20))
	assert.Equal(t, 20, pageOffset(2, 20))
	assert.Equal(t, 48, pageOffset(3, 24))
}

func TestBuildGroupFilters(t *testing.T) {
	t.Run("valid parameters pass through", func(t *testing.T) {
		filters, err := BuildGroupFilters(&GroupListParams{Name: "go", Visibility: types.VisibilityPublic, Page: 2}, false)
		require.NoError(t, err)
		assert.Equal(t, "go", filters.NameContains)
		assert.Equal(t, types.VisibilityPublic, filters.Visibility)
		assert.Equal(t, types.PageSizeGroups, filters.Limit)
		assert.Equal(t, types.PageSizeGroups, filters.Offset)
	})

	t.Run("anonymous tier excludes private groups in the query", func(t *testing.T) {
		filters, err := BuildGroupFilters(&GroupListParams{}, true)
		require.NoError(t, err)
		assert.True(t, filters.ExcludePrivate)
	})

	t.Run("authenticated viewers keep private groups in scope", func(t *testing.T) {
		filters, err := BuildGroupFilters(&GroupListParams{}, false)
		require.NoError(t, err)
		assert.False(t, filters.ExcludePrivate)
	})

	t.Run("unknown visibility is rejected, not ignored", func(t *testing.T) {
		_, err := BuildGroupFilters(&GroupListParams{Visibility: "hidden"}, false)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestBuildMemberFilters(t *testing.T) {
	t.Run("group scope is always stamped", func(t *testing.T) {
		filters, err := BuildMemberFilters("g1", &MemberListParams{Role: types.RoleModerator})
		require.NoError(t, err)
		assert.Equal(t, "g1", filters.GroupID)
		assert.Equal(t, types.RoleModerator, filters.Role)
		assert.Equal(t, types.PageSizeMembers, filters.Limit)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := BuildMemberFilters("g1", &MemberListParams{Role: "admin"})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestBuildRequestFilters(t *testing.T) {
	t.Run("tier constraint narrows to own requests", func(t *testing.T) {
		filters, err := BuildRequestFilters("g1", "u1", &RequestListParams{Status: types.RequestPending})
		require.NoError(t, err)
		assert.Equal(t, "g1", filters.GroupID)
		assert.Equal(t, "u1", filters.OnlyUserID)
		assert.Equal(t, types.RequestPending, filters.Status)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := BuildRequestFilters("g1", "", &RequestListParams{Status: "open"})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestBuildPostFilters(t *testing.T) {
	t.Run("moderator tier surfaces drafts and removed posts", func(t *testing.T) {
		filters, err := BuildPostFilters(&PostListParams{GroupID: "g1"}, "u1", false, true)
		require.NoError(t, err)
		assert.True(t, filters.IncludeRemoved)
		assert.True(t, filters.IncludeDrafts)
		assert.False(t, filters.ScopeToViewer)
	})

	t.Run("non-moderator tier does not", func(t *testing.T) {
		filters, err := BuildPostFilters(&PostListParams{}, "u1", true, false)
		require.NoError(t, err)
		assert.False(t, filters.IncludeRemoved)
		assert.False(t, filters.IncludeDrafts)
		assert.True(t, filters.ScopeToViewer)
		assert.Equal(t, "u1", filters.ViewerID)
	})

	t.Run("non-moderators cannot filter on removed status", func(t *testing.T) {
		_, err := BuildPostFilters(&PostListParams{Status: types.PostRemoved}, "u1", true, false)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("moderators can", func(t *testing.T) {
		filters, err := BuildPostFilters(&PostListParams{Status: types.PostRemoved}, "u1", false, true)
		require.NoError(t, err)
		assert.Equal(t, types.PostRemoved, filters.Status)
	})

	t.Run("unknown status is rejected for everyone", func(t *testing.T) {
		_, err := BuildPostFilters(&PostListParams{Status: "archived"}, "u1", false, true)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestBuildReportFilters(t *testing.T) {
	t.Run("tier constraint narrows to own reports", func(t *testing.T) {
		filters, err := BuildReportFilters("g1", "u1", &ReportListParams{Status: types.ReportOpen, PostID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, "g1", filters.GroupID)
		assert.Equal(t, "u1", filters.OnlyReporterID)
		assert.Equal(t, "p1", filters.PostID)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := BuildReportFilters("g1", "", &ReportListParams{Status: "pending"})
		require.ErrorIs(t, err, ErrValidation)
	})
}
