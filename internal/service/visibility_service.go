package service

import (
	"context"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Visibility Policy
// ============================================

// Tier is the granularity of data a requester may see.
type Tier int

const (
	TierDenied Tier = iota
	TierRedacted
	TierFull
)

// Decision is the outcome of a visibility check. Hidden lists the
// response fields a redacted view must omit.
type Decision struct {
	Tier   Tier
	Hidden []string
}

func Denied() Decision      { return Decision{Tier: TierDenied} }
func AllowedFull() Decision { return Decision{Tier: TierFull} }

func AllowedRedacted(hidden ...string) Decision {
	return Decision{Tier: TierRedacted, Hidden: hidden}
}

func (d Decision) Allowed() bool { return d.Tier != TierDenied }
func (d Decision) Full() bool    { return d.Tier == TierFull }

type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Requester is the resolved identity of the caller. An empty UserID
// means anonymous.
type Requester struct {
	UserID string
}

func (r Requester) Anonymous() bool { return r.UserID == "" }

// Fields hidden from non-members of a private group: they get the
// public metadata (name, description, visibility) and nothing else.
var privateGroupHiddenFields = []string{"member_count", "owner", "created_at"}

// VisibilityService decides, for a (requester, resource, operation)
// triple, whether the operation is allowed and at which tier. It is a
// pure decision layer: it reads membership, it never writes.
type VisibilityService interface {
	GroupRole(ctx context.Context, userID, groupID string) string

	ForGroup(ctx context.Context, req Requester, group *repository.Group, op Operation) (Decision, error)
	ForMembers(ctx context.Context, req Requester, group *repository.Group, op Operation) (Decision, error)
	ForPost(ctx context.Context, req Requester, group *repository.Group, post *repository.Post, op Operation) (Decision, error)
	ForMemberRequest(ctx context.Context, req Requester, group *repository.Group, request *repository.MemberRequest, op Operation) (Decision, error)
	ForReport(ctx context.Context, req Requester, group *repository.Group, report *repository.Report, op Operation) (Decision, error)
}

type visibilityService struct {
	groupRepo repository.GroupRepository
}

func NewVisibilityService(groupRepo repository.GroupRepository) VisibilityService {
	return &visibilityService{groupRepo: groupRepo}
}

// roleLevel returns a numeric level for role comparison (higher = more
// permissions).
func roleLevel(role string) int {
	switch role {
	case types.RoleOwner:
		return 3
	case types.RoleModerator:
		return 2
	case types.RoleMember:
		return 1
	default:
		return 0
	}
}

func hasMinimumRole(userRole, minRole string) bool {
	return roleLevel(userRole) >= roleLevel(minRole)
}

// GroupRole returns the requester's role in the group, or "" for
// non-members (and anonymous requesters).
func (s *visibilityService) GroupRole(ctx context.Context, userID, groupID string) string {
	if userID == "" {
		return ""
	}
	member, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil || member == nil {
		return ""
	}
	return member.Role
}

// groupReadable reports whether the requester can see inside the
// group (its posts and members). Public and restricted groups are
// readable by anyone; private groups only by members.
func groupReadable(group *repository.Group, role string, anonymous bool) bool {
	if group.Visibility != types.VisibilityPrivate {
		return true
	}
	return roleLevel(role) >= roleLevel(types.RoleMember)
}

func (s *visibilityService) ForGroup(ctx context.Context, req Requester, group *repository.Group, op Operation) (Decision, error) {
	if op == OpCreate {
		// group is nil for creation
		if req.Anonymous() {
			return Denied(), nil
		}
		return AllowedFull(), nil
	}
	if group == nil {
		return Decision{}, ErrValidation
	}

	role := s.GroupRole(ctx, req.UserID, group.ID)

	switch op {
	case OpRead:
		if groupReadable(group, role, req.Anonymous()) {
			return AllowedFull(), nil
		}
		if req.Anonymous() {
			return Denied(), nil
		}
		// authenticated non-member of a private group: public metadata only
		return AllowedRedacted(privateGroupHiddenFields...), nil
	case OpUpdate, OpDelete:
		if hasMinimumRole(role, types.RoleModerator) {
			return AllowedFull(), nil
		}
		return Denied(), nil
	default:
		return Decision{}, ErrValidation
	}
}

func (s *visibilityService) ForMembers(ctx context.Context, req Requester, group *repository.Group, op Operation) (Decision, error) {
	if group == nil {
		return Decision{}, ErrValidation
	}
	// the member list always requires authentication
	if req.Anonymous() {
		return Denied(), nil
	}

	role := s.GroupRole(ctx, req.UserID, group.ID)

	switch op {
	case OpRead:
		if group.Visibility != types.VisibilityPrivate {
			return AllowedFull(), nil
		}
		if hasMinimumRole(role, types.RoleMember) {
			return AllowedFull(), nil
		}
		return Denied(), nil
	case OpUpdate, OpDelete:
		// role changes and removals are moderator work
		if hasMinimumRole(role, types.RoleModerator) {
			return AllowedFull(), nil
		}
		return Denied(), nil
	default:
		return Decision{}, ErrValidation
	}
}

func (s *visibilityService) ForPost(ctx context.Context, req Requester, group *repository.Group, post *repository.Post, op Operation) (Decision, error) {
	if group == nil {
		return Decision{}, ErrValidation
	}

	role := s.GroupRole(ctx, req.UserID, group.ID)

	switch op {
	case OpRead:
		if !groupReadable(group, role, req.Anonymous()) {
			return Denied(), nil
		}
		if post == nil {
			// collection read within a readable group
			return AllowedFull(), nil
		}
		if post.GroupID != group.ID {
			return Decision{}, ErrValidation
		}
		switch post.Status {
		case types.PostRemoved:
			if hasMinimumRole(role, types.RoleModerator) {
				return AllowedFull(), nil
			}
			return Denied(), nil
		case types.PostDraft:
			if post.AuthorID == req.UserID || hasMinimumRole(role, types.RoleModerator) {
				return AllowedFull(), nil
			}
			return Denied(), nil
		default:
			return AllowedFull(), nil
		}
	case OpCreate:
		if req.Anonymous() {
			return Denied(), nil
		}
		if hasMinimumRole(role, types.RoleMember) {
			return AllowedFull(), nil
		}
		return Denied(), nil
	case OpUpdate, OpDelete:
		if req.Anonymous() || post == nil {
			return Denied(), nil
		}
		if post.AuthorID == req.UserID || hasMinimumRole(role, types.RoleModerator) {
			return AllowedFull(), nil
		}
		return Denied(), nil
	default:
		return Decision{}, ErrValidation
	}
}

func (s *visibilityService) ForMemberRequest(ctx context.Context, req Requester, group *repository.Group, request *repository.MemberRequest, op Operation) (Decision, error) {
	if group == nil {
		return Decision{}, ErrValidation
	}
	if req.Anonymous() {
		return Denied(), nil
	}

	role := s.GroupRole(ctx, req.UserID, group.ID)

	switch op {
	case OpRead:
		if hasMinimumRole(role, types.RoleModerator) {
			return AllowedFull(), nil
		}
		if request != nil && request.UserID == req.UserID {
			return AllowedFull(), nil
		}
		if request == nil {
			// collection read: non-moderators may list their own
			// requests only; the query builder narrows accordingly
			return AllowedRedacted("others_requests"), nil
		}
		return Denied(), nil
	case OpCreate:
		if hasMinimumRole(role, types.RoleMember) {
			// already a member, nothing to request
			return Denied(), nil
		}
		return AllowedFull(), nil
	case OpUpdate:
		// status transitions are moderator/owner work
		if hasMinimumRole(role, types.RoleModerator) {
			return AllowedFull(), nil
		}
		return Denied(), nil
	default:
		return Decision{}, ErrValidation
	}
}

func (s *visibilityService) ForReport(ctx context.Context, req Requester, group *repository.Group, report *repository.Report, op Operation) (Decision, error) {
	if group == nil {
		return Decision{}, ErrValidation
	}
	if req.Anonymous() {
		return Denied(), nil
	}

	role := s.GroupRole(ctx, req.UserID, group.ID)

	switch op {
	case OpRead:
		if hasMinimumRole(role, types.RoleModerator) {
			return AllowedFull(), nil
		}
		if report != nil && report.ReporterID == req.UserID {
			return AllowedFull(), nil
		}
		if report == nil {
			// collection read narrowed to own reports
			return AllowedRedacted("others_reports"), nil
		}
		return Denied(), nil
	case OpCreate:
		// any authenticated user who can read the target may report it
		return AllowedFull(), nil
	case OpUpdate:
		if hasMinimumRole(role, types.RoleModerator) {
			return AllowedFull(), nil
		}
		return Denied(), nil
	default:
		return Decision{}, ErrValidation
	}
}
