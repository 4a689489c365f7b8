package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

func groupServiceFixture() (*fakeGroupRepo, GroupService) {
	groupRepo := newFakeGroupRepo()
	visibility := NewVisibilityService(groupRepo)
	svc := NewGroupService(groupRepo, visibility, nil)
	return groupRepo, svc
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous callers cannot create groups", func(t *testing.T) {
		_, svc := groupServiceFixture()
		_, err := svc.Create(ctx, Requester{}, &CreateGroupInput{Name: "golang"})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("the creator is the owner member from the start", func(t *testing.T) {
		groupRepo, svc := groupServiceFixture()

		group, err := svc.Create(ctx, Requester{UserID: "alice"}, &CreateGroupInput{
			Name:       "rust-lang",
			Visibility: types.VisibilityPrivate,
		})
		require.NoError(t, err)

		member, err := groupRepo.FindMember(ctx, group.ID, "alice")
		require.NoError(t, err)
		require.NotNil(t, member)
		assert.Equal(t, types.RoleOwner, member.Role)

		// a private group is readable by its creator immediately
		view, err := svc.Get(ctx, Requester{UserID: "alice"}, group.ID)
		require.NoError(t, err)
		assert.True(t, view.Decision.Full())
		assert.Equal(t, 1, view.MemberCount)
	})

	t.Run("duplicate names conflict", func(t *testing.T) {
		_, svc := groupServiceFixture()

		_, err := svc.Create(ctx, Requester{UserID: "alice"}, &CreateGroupInput{Name: "golang"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, Requester{UserID: "bob"}, &CreateGroupInput{Name: "Golang"})
		require.ErrorIs(t, err, ErrConflict)
	})
}

func TestListGroups(t *testing.T) {
	ctx := context.Background()
	groupRepo, svc := groupServiceFixture()

	// 23 public groups span two pages at page size 20; the private
	// groups sort in between them.
	for i := 1; i <= 23; i++ {
		groupRepo.addGroup(fmt.Sprintf("g-%02d", i), fmt.Sprintf("public-%02d", i), types.VisibilityPublic, "owner")
	}
	for i := 1; i <= 4; i++ {
		groupRepo.addGroup(fmt.Sprintf("p-%02d", i), fmt.Sprintf("private-%02d", i), types.VisibilityPrivate, "owner")
	}

	t.Run("anonymous pages cover exactly the non-private groups", func(t *testing.T) {
		page1, total1, err := svc.List(ctx, Requester{}, &GroupListParams{Page: 1})
		require.NoError(t, err)
		page2, total2, err := svc.List(ctx, Requester{}, &GroupListParams{Page: 2})
		require.NoError(t, err)

		// the total never counts groups the viewer cannot see
		assert.Equal(t, 23, total1)
		assert.Equal(t, 23, total2)
		require.Len(t, page1, types.PageSizeGroups)
		require.Len(t, page2, 3)

		// disjoint pages whose union is the full visible set
		seen := make(map[string]bool)
		for _, v := range append(page1, page2...) {
			assert.NotEqual(t, types.VisibilityPrivate, v.Group.Visibility)
			assert.False(t, seen[v.Group.ID], "group %s appeared on both pages", v.Group.ID)
			seen[v.Group.ID] = true
		}
		assert.Len(t, seen, 23)
	})

	t.Run("authenticated non-members see private groups redacted", func(t *testing.T) {
		page1, total, err := svc.List(ctx, Requester{UserID: "outsider"}, &GroupListParams{Page: 1})
		require.NoError(t, err)
		page2, _, err := svc.List(ctx, Requester{UserID: "outsider"}, &GroupListParams{Page: 2})
		require.NoError(t, err)

		assert.Equal(t, 27, total)
		require.Len(t, page1, types.PageSizeGroups)
		require.Len(t, page2, 7)

		redacted := 0
		for _, v := range append(page1, page2...) {
			if v.Group.Visibility == types.VisibilityPrivate {
				assert.False(t, v.Decision.Full())
				redacted++
			}
		}
		assert.Equal(t, 4, redacted)
	})

	t.Run("name filter narrows before pagination", func(t *testing.T) {
		views, total, err := svc.List(ctx, Requester{}, &GroupListParams{Name: "public-1", Page: 1})
		require.NoError(t, err)
		// public-10 through public-19
		assert.Equal(t, 10, total)
		assert.Len(t, views, 10)
	})
}
