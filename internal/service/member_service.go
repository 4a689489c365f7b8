package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbasnet-dev/reddit-go-backend/internal/notification"
	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/socket"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Member Service
// ============================================
//
// Membership and the member-request state machine. A request is born
// pending and is decided exactly once: approved or rejected. Approval
// creates the membership row in the same transaction as the status
// flip, so the two outcomes a reviewer can observe are "request
// approved and member exists" or "nothing changed".

type MemberService interface {
	// Membership
	ListMembers(ctx context.Context, req Requester, groupID string, p *MemberListParams) ([]*repository.GroupMember, int, error)
	Join(ctx context.Context, req Requester, groupID string) (*repository.GroupMember, error)
	Leave(ctx context.Context, req Requester, groupID string) error
	UpdateRole(ctx context.Context, req Requester, groupID, userID, role string) error
	Remove(ctx context.Context, req Requester, groupID, userID string) error

	// Member requests
	SubmitRequest(ctx context.Context, req Requester, groupID string, message *string) (*repository.MemberRequest, error)
	ListRequests(ctx context.Context, req Requester, groupID string, p *RequestListParams) ([]*repository.MemberRequest, int, error)
	GetRequest(ctx context.Context, req Requester, requestID string) (*repository.MemberRequest, error)
	ApproveRequest(ctx context.Context, req Requester, requestID string) (*repository.MemberRequest, error)
	RejectRequest(ctx context.Context, req Requester, requestID string) (*repository.MemberRequest, error)
}

type memberService struct {
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	visibility  VisibilityService
	notifier    notification.Notifier
	broadcaster *socket.Broadcaster
}

func NewMemberService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	visibility VisibilityService,
	notifier notification.Notifier,
	broadcaster *socket.Broadcaster,
) MemberService {
	return &memberService{
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		visibility:  visibility,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// ============================================
// Membership
// ============================================

// ListMembers lists a group's members. A missing group yields an empty
// page, not an error: the ancestor scope resolves to nothing.
func (s *memberService) ListMembers(ctx context.Context, req Requester, groupID string, p *MemberListParams) ([]*repository.GroupMember, int, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return []*repository.GroupMember{}, 0, nil
	}

	decision, err := s.visibility.ForMembers(ctx, req, group, OpRead)
	if err != nil {
		return nil, 0, err
	}
	if !decision.Allowed() {
		if req.Anonymous() {
			return nil, 0, ErrUnauthorized
		}
		return nil, 0, ErrForbidden
	}

	filters, err := BuildMemberFilters(groupID, p)
	if err != nil {
		return nil, 0, err
	}
	return s.groupRepo.FindMembers(ctx, filters)
}

// Join adds the requester directly. Only public groups are joinable
// without review; private and restricted groups go through requests.
func (s *memberService) Join(ctx context.Context, req Requester, groupID string) (*repository.GroupMember, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}
	if group.Visibility != types.VisibilityPublic {
		return nil, ErrForbidden
	}

	if existing, _ := s.groupRepo.FindMember(ctx, groupID, req.UserID); existing != nil {
		return nil, ErrConflict
	}

	member := &repository.GroupMember{
		GroupID: groupID,
		UserID:  req.UserID,
		Role:    types.RoleMember,
	}
	if err := s.groupRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberJoined(groupID, req.UserID)
	}
	return member, nil
}

func (s *memberService) Leave(ctx context.Context, req Requester, groupID string) error {
	if req.Anonymous() {
		return ErrUnauthorized
	}

	member, err := s.groupRepo.FindMember(ctx, groupID, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return ErrNotFound
	}
	// the owner cannot abandon the group
	if member.Role == types.RoleOwner {
		return ErrForbidden
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, req.UserID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberLeft(groupID, req.UserID)
	}
	return nil
}

func (s *memberService) UpdateRole(ctx context.Context, req Requester, groupID, userID, role string) error {
	if !types.IsValid(role, types.ValidMemberRoles) || role == types.RoleOwner {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return ErrNotFound
	}

	decision, err := s.visibility.ForMembers(ctx, req, group, OpUpdate)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return ErrForbidden
	}

	member, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return ErrNotFound
	}
	if member.Role == types.RoleOwner {
		// ownership does not change hands through role updates
		return ErrForbidden
	}

	return s.groupRepo.UpdateMemberRole(ctx, groupID, userID, role)
}

func (s *memberService) Remove(ctx context.Context, req Requester, groupID, userID string) error {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return ErrNotFound
	}

	decision, err := s.visibility.ForMembers(ctx, req, group, OpDelete)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return ErrForbidden
	}

	member, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return ErrNotFound
	}
	if member.Role == types.RoleOwner {
		return ErrForbidden
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberLeft(groupID, userID)
	}
	return nil
}

// ============================================
// Member Requests
// ============================================

func (s *memberService) SubmitRequest(ctx context.Context, req Requester, groupID string, message *string) (*repository.MemberRequest, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}

	decision, err := s.visibility.ForMemberRequest(ctx, req, group, nil, OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		// already a member
		return nil, ErrConflict
	}

	request := &repository.MemberRequest{
		GroupID: groupID,
		UserID:  req.UserID,
		Message: message,
	}
	if err := s.groupRepo.CreateRequest(ctx, request); err != nil {
		// unique partial index: one pending request per (group, user)
		return nil, ErrConflict
	}

	if s.notifier != nil {
		requesterName := req.UserID
		if user, _ := s.userRepo.FindByID(ctx, req.UserID); user != nil {
			requesterName = user.Username
		}
		if moderatorIDs, err := s.groupRepo.FindModeratorUserIDs(ctx, groupID); err == nil {
			s.notifier.SendRequestSubmitted(ctx, moderatorIDs, requesterName, group.Name, groupID, request.ID)
		}
	}

	return request, nil
}

func (s *memberService) ListRequests(ctx context.Context, req Requester, groupID string, p *RequestListParams) ([]*repository.MemberRequest, int, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return []*repository.MemberRequest{}, 0, nil
	}

	decision, err := s.visibility.ForMemberRequest(ctx, req, group, nil, OpRead)
	if err != nil {
		return nil, 0, err
	}
	if !decision.Allowed() {
		if req.Anonymous() {
			return nil, 0, ErrUnauthorized
		}
		return nil, 0, ErrForbidden
	}

	// non-moderators see only their own requests
	onlyUserID := ""
	if !decision.Full() {
		onlyUserID = req.UserID
	}

	filters, err := BuildRequestFilters(groupID, onlyUserID, p)
	if err != nil {
		return nil, 0, err
	}
	return s.groupRepo.FindRequests(ctx, filters)
}

func (s *memberService) GetRequest(ctx context.Context, req Requester, requestID string) (*repository.MemberRequest, error) {
	request, group, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	decision, err := s.visibility.ForMemberRequest(ctx, req, group, request, OpRead)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() || !decision.Full() {
		// same answer as a request that does not exist
		return nil, ErrNotFound
	}
	return request, nil
}

func (s *memberService) ApproveRequest(ctx context.Context, req Requester, requestID string) (*repository.MemberRequest, error) {
	request, group, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeDecision(ctx, req, group, request); err != nil {
		return nil, err
	}

	decided, err := s.groupRepo.ApproveRequest(ctx, requestID, req.UserID)
	if errors.Is(err, repository.ErrNotPending) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve request: %w", err)
	}

	s.notifyDecision(ctx, decided, group)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberJoined(group.ID, decided.UserID)
	}
	return decided, nil
}

func (s *memberService) RejectRequest(ctx context.Context, req Requester, requestID string) (*repository.MemberRequest, error) {
	request, group, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeDecision(ctx, req, group, request); err != nil {
		return nil, err
	}

	decided, err := s.groupRepo.RejectRequest(ctx, requestID, req.UserID)
	if errors.Is(err, repository.ErrNotPending) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reject request: %w", err)
	}

	s.notifyDecision(ctx, decided, group)
	return decided, nil
}

func (s *memberService) findRequest(ctx context.Context, requestID string) (*repository.MemberRequest, *repository.Group, error) {
	request, err := s.groupRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find request: %w", err)
	}
	if request == nil {
		return nil, nil, ErrNotFound
	}

	group, err := s.groupRepo.FindByID(ctx, request.GroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, nil, ErrNotFound
	}
	return request, group, nil
}

func (s *memberService) authorizeDecision(ctx context.Context, req Requester, group *repository.Group, request *repository.MemberRequest) error {
	if req.Anonymous() {
		return ErrUnauthorized
	}
	decision, err := s.visibility.ForMemberRequest(ctx, req, group, request, OpUpdate)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return ErrForbidden
	}
	return nil
}

func (s *memberService) notifyDecision(ctx context.Context, request *repository.MemberRequest, group *repository.Group) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRequestDecided(request.UserID, group.ID, request.Status)
	}
	if s.notifier == nil {
		return
	}
	userEmail := ""
	if user, _ := s.userRepo.FindByID(ctx, request.UserID); user != nil {
		userEmail = user.Email
	}
	s.notifier.SendRequestDecided(ctx, request.UserID, userEmail, group.Name, group.ID, request.Status)
}
