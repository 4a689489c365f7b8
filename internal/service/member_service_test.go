package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

func memberServiceFixture() (*fakeGroupRepo, *fakeUserRepo, MemberService) {
	groupRepo := newFakeGroupRepo()
	userRepo := newFakeUserRepo()

	userRepo.addUser("owner", "sanjay", "sanjay@example.com")
	userRepo.addUser("mod", "anita", "anita@example.com")
	userRepo.addUser("mem", "ravi", "ravi@example.com")
	userRepo.addUser("outsider", "dipesh", "dipesh@example.com")

	groupRepo.addGroup("g-pub", "golang", types.VisibilityPublic, "owner")
	groupRepo.addGroup("g-priv", "rust-lang", types.VisibilityPrivate, "owner")
	groupRepo.addMember("g-pub", "mod", types.RoleModerator)
	groupRepo.addMember("g-pub", "mem", types.RoleMember)

	visibility := NewVisibilityService(groupRepo)
	svc := NewMemberService(groupRepo, userRepo, visibility, nil, nil)
	return groupRepo, userRepo, svc
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	_, _, svc := memberServiceFixture()

	t.Run("missing group yields an empty page", func(t *testing.T) {
		members, total, err := svc.ListMembers(ctx, Requester{UserID: "mem"}, "no-such-group", &MemberListParams{})
		require.NoError(t, err)
		assert.Empty(t, members)
		assert.Zero(t, total)
	})

	t.Run("anonymous caller gets unauthorized", func(t *testing.T) {
		_, _, err := svc.ListMembers(ctx, Requester{}, "g-pub", &MemberListParams{})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("non-member of a private group gets forbidden", func(t *testing.T) {
		_, _, err := svc.ListMembers(ctx, Requester{UserID: "outsider"}, "g-priv", &MemberListParams{})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("member lists the public group", func(t *testing.T) {
		members, total, err := svc.ListMembers(ctx, Requester{UserID: "mem"}, "g-pub", &MemberListParams{})
		require.NoError(t, err)
		assert.Len(t, members, 3)
		assert.Equal(t, 3, total)
	})

	t.Run("role filter narrows the listing", func(t *testing.T) {
		members, _, err := svc.ListMembers(ctx, Requester{UserID: "mem"}, "g-pub", &MemberListParams{Role: types.RoleModerator})
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "mod", members[0].UserID)
	})
}

func TestJoinAndLeave(t *testing.T) {
	ctx := context.Background()

	t.Run("joining a public group succeeds once", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		member, err := svc.Join(ctx, Requester{UserID: "outsider"}, "g-pub")
		require.NoError(t, err)
		assert.Equal(t, types.RoleMember, member.Role)

		_, err = svc.Join(ctx, Requester{UserID: "outsider"}, "g-pub")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("private groups are not directly joinable", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		_, err := svc.Join(ctx, Requester{UserID: "outsider"}, "g-priv")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("the owner cannot leave", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		err := svc.Leave(ctx, Requester{UserID: "owner"}, "g-pub")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("a member leaves cleanly", func(t *testing.T) {
		groupRepo, _, svc := memberServiceFixture()

		require.NoError(t, svc.Leave(ctx, Requester{UserID: "mem"}, "g-pub"))
		member, err := groupRepo.FindMember(ctx, "g-pub", "mem")
		require.NoError(t, err)
		assert.Nil(t, member)
	})
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("moderator promotes a member", func(t *testing.T) {
		groupRepo, _, svc := memberServiceFixture()

		err := svc.UpdateRole(ctx, Requester{UserID: "mod"}, "g-pub", "mem", types.RoleModerator)
		require.NoError(t, err)

		member, _ := groupRepo.FindMember(ctx, "g-pub", "mem")
		assert.Equal(t, types.RoleModerator, member.Role)
	})

	t.Run("owner role is not assignable", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		err := svc.UpdateRole(ctx, Requester{UserID: "owner"}, "g-pub", "mem", types.RoleOwner)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("the owner's own role is immutable", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		err := svc.UpdateRole(ctx, Requester{UserID: "mod"}, "g-pub", "owner", types.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("plain members cannot change roles", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		err := svc.UpdateRole(ctx, Requester{UserID: "mem"}, "g-pub", "mod", types.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestSubmitRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("outsider submits a pending request", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		request, err := svc.SubmitRequest(ctx, Requester{UserID: "outsider"}, "g-priv", nil)
		require.NoError(t, err)
		assert.Equal(t, types.RequestPending, request.Status)
	})

	t.Run("a second pending request conflicts", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		_, err := svc.SubmitRequest(ctx, Requester{UserID: "outsider"}, "g-priv", nil)
		require.NoError(t, err)

		_, err = svc.SubmitRequest(ctx, Requester{UserID: "outsider"}, "g-priv", nil)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("existing members have nothing to request", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		_, err := svc.SubmitRequest(ctx, Requester{UserID: "mem"}, "g-pub", nil)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("missing group is not found", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		_, err := svc.SubmitRequest(ctx, Requester{UserID: "outsider"}, "no-such-group", nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRequestDecisions(t *testing.T) {
	ctx := context.Background()

	submit := func(t *testing.T, svc MemberService, groupID string) string {
		t.Helper()
		request, err := svc.SubmitRequest(ctx, Requester{UserID: "outsider"}, groupID, nil)
		require.NoError(t, err)
		return request.ID
	}

	t.Run("approval flips status and creates the membership", func(t *testing.T) {
		groupRepo, _, svc := memberServiceFixture()
		requestID := submit(t, svc, "g-priv")

		decided, err := svc.ApproveRequest(ctx, Requester{UserID: "owner"}, requestID)
		require.NoError(t, err)
		assert.Equal(t, types.RequestApproved, decided.Status)
		require.NotNil(t, decided.ReviewedBy)
		assert.Equal(t, "owner", *decided.ReviewedBy)

		member, err := groupRepo.FindMember(ctx, "g-priv", "outsider")
		require.NoError(t, err)
		require.NotNil(t, member)
		assert.Equal(t, types.RoleMember, member.Role)
	})

	t.Run("a decided request cannot be decided again", func(t *testing.T) {
		_, _, svc := memberServiceFixture()
		requestID := submit(t, svc, "g-priv")

		_, err := svc.ApproveRequest(ctx, Requester{UserID: "owner"}, requestID)
		require.NoError(t, err)

		_, err = svc.ApproveRequest(ctx, Requester{UserID: "owner"}, requestID)
		require.ErrorIs(t, err, ErrInvalidTransition)

		_, err = svc.RejectRequest(ctx, Requester{UserID: "owner"}, requestID)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("rejection flips status without membership", func(t *testing.T) {
		groupRepo, _, svc := memberServiceFixture()
		requestID := submit(t, svc, "g-priv")

		decided, err := svc.RejectRequest(ctx, Requester{UserID: "owner"}, requestID)
		require.NoError(t, err)
		assert.Equal(t, types.RequestRejected, decided.Status)

		member, err := groupRepo.FindMember(ctx, "g-priv", "outsider")
		require.NoError(t, err)
		assert.Nil(t, member)
	})

	t.Run("non-moderators cannot decide", func(t *testing.T) {
		_, _, svc := memberServiceFixture()
		requestID := submit(t, svc, "g-pub")

		_, err := svc.ApproveRequest(ctx, Requester{UserID: "mem"}, requestID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("the requester cannot approve their own request", func(t *testing.T) {
		_, _, svc := memberServiceFixture()
		requestID := submit(t, svc, "g-priv")

		_, err := svc.ApproveRequest(ctx, Requester{UserID: "outsider"}, requestID)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestGetAndListRequests(t *testing.T) {
	ctx := context.Background()

	t.Run("requester and moderator read the request, others get not found", func(t *testing.T) {
		_, _, svc := memberServiceFixture()
		request, err := svc.SubmitRequest(ctx, Requester{UserID: "outsider"}, "g-pub", nil)
		require.NoError(t, err)

		got, err := svc.GetRequest(ctx, Requester{UserID: "outsider"}, request.ID)
		require.NoError(t, err)
		assert.Equal(t, request.ID, got.ID)

		_, err = svc.GetRequest(ctx, Requester{UserID: "mod"}, request.ID)
		require.NoError(t, err)

		// indistinguishable from a missing request
		_, err = svc.GetRequest(ctx, Requester{UserID: "mem"}, request.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("non-moderators list only their own requests", func(t *testing.T) {
		groupRepo, _, svc := memberServiceFixture()
		_, err := svc.SubmitRequest(ctx, Requester{UserID: "outsider"}, "g-pub", nil)
		require.NoError(t, err)

		// a second applicant, directly through the repo
		require.NoError(t, groupRepo.CreateRequest(ctx, &repository.MemberRequest{GroupID: "g-pub", UserID: "someone-else"}))

		requests, total, err := svc.ListRequests(ctx, Requester{UserID: "outsider"}, "g-pub", &RequestListParams{})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, "outsider", requests[0].UserID)

		_, total, err = svc.ListRequests(ctx, Requester{UserID: "mod"}, "g-pub", &RequestListParams{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("listing requests of a missing group yields an empty page", func(t *testing.T) {
		_, _, svc := memberServiceFixture()

		requests, total, err := svc.ListRequests(ctx, Requester{UserID: "mem"}, "no-such-group", &RequestListParams{})
		require.NoError(t, err)
		assert.Empty(t, requests)
		assert.Zero(t, total)
	})
}

// Member pages are fixed-size, disjoint, and together cover the whole
// roster, with the total reported on every page.
func TestListMembersPagination(t *testing.T) {
	ctx := context.Background()
	groupRepo, _, svc := memberServiceFixture()

	// the owner plus 29 more spans two pages at page size 24
	groupRepo.addGroup("g-big", "gophers", types.VisibilityPublic, "owner")
	for i := 1; i < 30; i++ {
		groupRepo.addMember("g-big", fmt.Sprintf("user-%02d", i), types.RoleMember)
	}

	page1, total1, err := svc.ListMembers(ctx, Requester{UserID: "owner"}, "g-big", &MemberListParams{Page: 1})
	require.NoError(t, err)
	page2, total2, err := svc.ListMembers(ctx, Requester{UserID: "owner"}, "g-big", &MemberListParams{Page: 2})
	require.NoError(t, err)

	assert.Equal(t, 30, total1)
	assert.Equal(t, 30, total2)
	require.Len(t, page1, types.PageSizeMembers)
	require.Len(t, page2, 30-types.PageSizeMembers)

	seen := make(map[string]bool)
	for _, m := range append(page1, page2...) {
		assert.False(t, seen[m.UserID], "member %s appeared on both pages", m.UserID)
		seen[m.UserID] = true
	}
	assert.Len(t, seen, 30)

	// pages past the roster are empty, not an error
	page3, total3, err := svc.ListMembers(ctx, Requester{UserID: "owner"}, "g-big", &MemberListParams{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, page3)
	assert.Equal(t, 30, total3)
}
