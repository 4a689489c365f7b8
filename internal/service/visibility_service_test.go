package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// The fixture: a public group and a private group, both owned by
// "owner". "mod" moderates the public group, "mem" is a plain member of
// both, "outsider" belongs to neither, and "" is anonymous.
func visibilityFixture() (*fakeGroupRepo, *repository.Group, *repository.Group) {
	repo := newFakeGroupRepo()
	public := repo.addGroup("g-pub", "golang", types.VisibilityPublic, "owner")
	private := repo.addGroup("g-priv", "rust-lang", types.VisibilityPrivate, "owner")
	repo.addMember("g-pub", "mod", types.RoleModerator)
	repo.addMember("g-pub", "mem", types.RoleMember)
	repo.addMember("g-priv", "mem", types.RoleMember)
	return repo, public, private
}

func TestVisibilityForGroup(t *testing.T) {
	ctx := context.Background()
	repo, public, private := visibilityFixture()
	svc := NewVisibilityService(repo)

	t.Run("anonymous reads public group in full", func(t *testing.T) {
		decision, err := svc.ForGroup(ctx, Requester{}, public, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("anonymous is denied a private group", func(t *testing.T) {
		decision, err := svc.ForGroup(ctx, Requester{}, private, OpRead)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})

	t.Run("authenticated non-member gets a redacted private group", func(t *testing.T) {
		decision, err := svc.ForGroup(ctx, Requester{UserID: "outsider"}, private, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Allowed())
		assert.False(t, decision.Full())
		assert.Contains(t, decision.Hidden, "member_count")
		assert.Contains(t, decision.Hidden, "owner")
		assert.Contains(t, decision.Hidden, "created_at")
	})

	t.Run("member reads private group in full", func(t *testing.T) {
		decision, err := svc.ForGroup(ctx, Requester{UserID: "mem"}, private, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("plain member cannot update the group", func(t *testing.T) {
		decision, err := svc.ForGroup(ctx, Requester{UserID: "mem"}, public, OpUpdate)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})

	t.Run("moderator and owner can update the group", func(t *testing.T) {
		for _, userID := range []string{"mod", "owner"} {
			decision, err := svc.ForGroup(ctx, Requester{UserID: userID}, public, OpUpdate)
			require.NoError(t, err)
			assert.True(t, decision.Full(), "user %s", userID)
		}
	})

	t.Run("anonymous cannot create groups", func(t *testing.T) {
		decision, err := svc.ForGroup(ctx, Requester{}, nil, OpCreate)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})
}

func TestVisibilityForMembers(t *testing.T) {
	ctx := context.Background()
	repo, public, private := visibilityFixture()
	svc := NewVisibilityService(repo)

	t.Run("member list always requires authentication", func(t *testing.T) {
		decision, err := svc.ForMembers(ctx, Requester{}, public, OpRead)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})

	t.Run("any authenticated user lists a public group's members", func(t *testing.T) {
		decision, err := svc.ForMembers(ctx, Requester{UserID: "outsider"}, public, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("private member list is members only", func(t *testing.T) {
		decision, err := svc.ForMembers(ctx, Requester{UserID: "outsider"}, private, OpRead)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())

		decision, err = svc.ForMembers(ctx, Requester{UserID: "mem"}, private, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("role changes are moderator work", func(t *testing.T) {
		decision, err := svc.ForMembers(ctx, Requester{UserID: "mem"}, public, OpUpdate)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())

		decision, err = svc.ForMembers(ctx, Requester{UserID: "mod"}, public, OpUpdate)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})
}

func TestVisibilityForPost(t *testing.T) {
	ctx := context.Background()
	repo, public, private := visibilityFixture()
	svc := NewVisibilityService(repo)

	published := &repository.Post{ID: "p1", GroupID: public.ID, AuthorID: "mem", Status: types.PostPublished}
	draft := &repository.Post{ID: "p2", GroupID: public.ID, AuthorID: "mem", Status: types.PostDraft}
	removed := &repository.Post{ID: "p3", GroupID: public.ID, AuthorID: "mem", Status: types.PostRemoved}
	privatePost := &repository.Post{ID: "p4", GroupID: private.ID, AuthorID: "owner", Status: types.PostPublished}

	t.Run("anonymous reads a published public post", func(t *testing.T) {
		decision, err := svc.ForPost(ctx, Requester{}, public, published, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("posts in a private group are invisible to outsiders", func(t *testing.T) {
		for _, userID := range []string{"", "outsider"} {
			decision, err := svc.ForPost(ctx, Requester{UserID: userID}, private, privatePost, OpRead)
			require.NoError(t, err)
			assert.False(t, decision.Allowed(), "user %q", userID)
		}
	})

	t.Run("drafts are visible to the author and moderators only", func(t *testing.T) {
		for userID, want := range map[string]bool{"mem": true, "mod": true, "owner": true, "outsider": false, "": false} {
			decision, err := svc.ForPost(ctx, Requester{UserID: userID}, public, draft, OpRead)
			require.NoError(t, err)
			assert.Equal(t, want, decision.Allowed(), "user %q", userID)
		}
	})

	t.Run("removed posts are visible to moderators only", func(t *testing.T) {
		for userID, want := range map[string]bool{"mem": false, "mod": true, "owner": true, "outsider": false} {
			decision, err := svc.ForPost(ctx, Requester{UserID: userID}, public, removed, OpRead)
			require.NoError(t, err)
			assert.Equal(t, want, decision.Allowed(), "user %q", userID)
		}
	})

	t.Run("posting requires membership", func(t *testing.T) {
		decision, err := svc.ForPost(ctx, Requester{UserID: "outsider"}, public, nil, OpCreate)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())

		decision, err = svc.ForPost(ctx, Requester{UserID: "mem"}, public, nil, OpCreate)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("author or moderator may edit", func(t *testing.T) {
		for userID, want := range map[string]bool{"mem": true, "mod": true, "outsider": false} {
			decision, err := svc.ForPost(ctx, Requester{UserID: userID}, public, published, OpUpdate)
			require.NoError(t, err)
			assert.Equal(t, want, decision.Allowed(), "user %q", userID)
		}
	})
}

func TestVisibilityForMemberRequest(t *testing.T) {
	ctx := context.Background()
	repo, _, private := visibilityFixture()
	svc := NewVisibilityService(repo)

	request := &repository.MemberRequest{ID: "req1", GroupID: private.ID, UserID: "outsider", Status: types.RequestPending}

	t.Run("existing members cannot submit a request", func(t *testing.T) {
		decision, err := svc.ForMemberRequest(ctx, Requester{UserID: "mem"}, private, nil, OpCreate)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})

	t.Run("non-members may submit a request", func(t *testing.T) {
		decision, err := svc.ForMemberRequest(ctx, Requester{UserID: "outsider"}, private, nil, OpCreate)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("requester sees their own request", func(t *testing.T) {
		decision, err := svc.ForMemberRequest(ctx, Requester{UserID: "outsider"}, private, request, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("another member does not see it", func(t *testing.T) {
		decision, err := svc.ForMemberRequest(ctx, Requester{UserID: "mem"}, private, request, OpRead)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})

	t.Run("collection read narrows non-moderators to their own", func(t *testing.T) {
		decision, err := svc.ForMemberRequest(ctx, Requester{UserID: "mem"}, private, nil, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Allowed())
		assert.False(t, decision.Full())
	})

	t.Run("owner sees the full collection", func(t *testing.T) {
		decision, err := svc.ForMemberRequest(ctx, Requester{UserID: "owner"}, private, nil, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("deciding a request is moderator work", func(t *testing.T) {
		decision, err := svc.ForMemberRequest(ctx, Requester{UserID: "outsider"}, private, request, OpUpdate)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())

		decision, err = svc.ForMemberRequest(ctx, Requester{UserID: "owner"}, private, request, OpUpdate)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})
}

func TestVisibilityForReport(t *testing.T) {
	ctx := context.Background()
	repo, public, _ := visibilityFixture()
	svc := NewVisibilityService(repo)

	report := &repository.Report{ID: "r1", GroupID: public.ID, ReporterID: "mem", Status: types.ReportOpen}

	t.Run("reporter sees their own report", func(t *testing.T) {
		decision, err := svc.ForReport(ctx, Requester{UserID: "mem"}, public, report, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("another user does not", func(t *testing.T) {
		decision, err := svc.ForReport(ctx, Requester{UserID: "outsider"}, public, report, OpRead)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})

	t.Run("moderator sees every report", func(t *testing.T) {
		decision, err := svc.ForReport(ctx, Requester{UserID: "mod"}, public, report, OpRead)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})

	t.Run("resolution is moderator work", func(t *testing.T) {
		decision, err := svc.ForReport(ctx, Requester{UserID: "mem"}, public, report, OpUpdate)
		require.NoError(t, err)
		assert.False(t, decision.Allowed())

		decision, err = svc.ForReport(ctx, Requester{UserID: "mod"}, public, report, OpUpdate)
		require.NoError(t, err)
		assert.True(t, decision.Full())
	})
}
