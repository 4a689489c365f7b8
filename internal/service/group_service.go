package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sbasnet-dev/reddit-go-backend/internal/db"
	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Group Service
// ============================================

// GroupView pairs a group with the visibility decision made for the
// requester. Handlers redact the fields the decision hides.
type GroupView struct {
	Group       *repository.Group
	MemberCount int
	Decision    Decision
}

type CreateGroupInput struct {
	Name        string
	Description *string
	Visibility  string
}

type UpdateGroupInput struct {
	Description *string
	Visibility  *string
}

type GroupService interface {
	Create(ctx context.Context, req Requester, input *CreateGroupInput) (*repository.Group, error)
	Get(ctx context.Context, req Requester, id string) (*GroupView, error)
	GetByName(ctx context.Context, req Requester, name string) (*GroupView, error)
	List(ctx context.Context, req Requester, p *GroupListParams) ([]*GroupView, int, error)
	Update(ctx context.Context, req Requester, id string, input *UpdateGroupInput) (*repository.Group, error)
}

type groupService struct {
	groupRepo  repository.GroupRepository
	visibility VisibilityService
	cache      *db.RedisDB
}

func NewGroupService(groupRepo repository.GroupRepository, visibility VisibilityService, cache *db.RedisDB) GroupService {
	return &groupService{groupRepo: groupRepo, visibility: visibility, cache: cache}
}

func (s *groupService) Create(ctx context.Context, req Requester, input *CreateGroupInput) (*repository.Group, error) {
	decision, err := s.visibility.ForGroup(ctx, req, nil, OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, ErrUnauthorized
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrValidation)
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = types.VisibilityPublic
	}
	if !types.IsValid(visibility, types.ValidGroupVisibilities) {
		return nil, fmt.Errorf("%w: invalid visibility %q", ErrValidation, visibility)
	}

	if existing, _ := s.groupRepo.FindByName(ctx, name); existing != nil {
		return nil, ErrConflict
	}

	// Create inserts the owner membership alongside the group, so the
	// creator can read a private group the moment it exists.
	group := &repository.Group{
		Name:        name,
		Description: input.Description,
		Visibility:  visibility,
		OwnerID:     req.UserID,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

func (s *groupService) Get(ctx context.Context, req Requester, id string) (*GroupView, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNotFound
	}
	return s.viewOrNotFound(ctx, req, group)
}

func (s *groupService) GetByName(ctx context.Context, req Requester, name string) (*GroupView, error) {
	group, err := s.groupRepo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}
	return s.viewOrNotFound(ctx, req, group)
}

// viewOrNotFound is the direct-GET path: a group the requester may not
// see at all gets the same answer as a group that does not exist.
func (s *groupService) viewOrNotFound(ctx context.Context, req Requester, group *repository.Group) (*GroupView, error) {
	view, err := s.view(ctx, req, group)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrNotFound
	}
	return view, nil
}

// List pages over the groups the requester may see. The anonymous
// tier is pushed into the query itself, so every fetched row yields a
// view and the total matches what pagination walks.
func (s *groupService) List(ctx context.Context, req Requester, p *GroupListParams) ([]*GroupView, int, error) {
	filters, err := BuildGroupFilters(p, req.Anonymous())
	if err != nil {
		return nil, 0, err
	}

	groups, total, err := s.groupRepo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}

	views := make([]*GroupView, 0, len(groups))
	for _, group := range groups {
		view, err := s.view(ctx, req, group)
		if err != nil {
			return nil, 0, err
		}
		if view != nil {
			views = append(views, view)
		}
	}
	return views, total, nil
}

func (s *groupService) Update(ctx context.Context, req Requester, id string, input *UpdateGroupInput) (*repository.Group, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNotFound
	}

	decision, err := s.visibility.ForGroup(ctx, req, group, OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, ErrForbidden
	}

	if input.Description != nil {
		group.Description = input.Description
	}
	if input.Visibility != nil {
		if !types.IsValid(*input.Visibility, types.ValidGroupVisibilities) {
			return nil, fmt.Errorf("%w: invalid visibility %q", ErrValidation, *input.Visibility)
		}
		group.Visibility = *input.Visibility
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	s.invalidate(ctx, group.ID)
	return group, nil
}

// view builds the requester-facing view of a group. Anonymous
// requesters never see private groups at all; authenticated
// non-members get the redacted form.
func (s *groupService) view(ctx context.Context, req Requester, group *repository.Group) (*GroupView, error) {
	decision, err := s.visibility.ForGroup(ctx, req, group, OpRead)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, nil
	}

	view := &GroupView{Group: group, Decision: decision}
	if decision.Full() {
		count, err := s.groupRepo.CountMembers(ctx, group.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		view.MemberCount = count
	}
	return view, nil
}

// findGroup reads through the cache when one is configured.
func (s *groupService) findGroup(ctx context.Context, id string) (*repository.Group, error) {
	if s.cache != nil {
		var cached repository.Group
		if err := s.cache.GetCache(ctx, "group:"+id, &cached); err == nil {
			return &cached, nil
		}
	}

	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group != nil && s.cache != nil {
		s.cache.SetCache(ctx, "group:"+id, group, 5*time.Minute)
	}
	return group, nil
}

func (s *groupService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.DeleteCache(ctx, "group:"+id)
	}
}
