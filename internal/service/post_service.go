package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/socket"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Post Service
// ============================================

type CreatePostInput struct {
	GroupID string
	Title   string
	URL     *string
	Body    *string
	Status  string // draft or published; defaults to published
}

type UpdatePostInput struct {
	Title  *string
	URL    *string
	Body   *string
	Status *string
}

type CreateCommentInput struct {
	PostID   string
	ParentID *string
	Body     string
}

type PostService interface {
	Create(ctx context.Context, req Requester, input *CreatePostInput) (*repository.Post, error)
	Get(ctx context.Context, req Requester, id string) (*repository.Post, error)
	List(ctx context.Context, req Requester, p *PostListParams) ([]*repository.Post, int, error)
	Update(ctx context.Context, req Requester, id string, input *UpdatePostInput) (*repository.Post, error)
	Remove(ctx context.Context, req Requester, id string) error

	// Comments
	AddComment(ctx context.Context, req Requester, input *CreateCommentInput) (*repository.Comment, error)
	ListComments(ctx context.Context, req Requester, postID string, page int) ([]*repository.Comment, int, error)
	UpdateComment(ctx context.Context, req Requester, commentID, body string) (*repository.Comment, error)
	DeleteComment(ctx context.Context, req Requester, commentID string) error

	// Votes
	Vote(ctx context.Context, req Requester, postID string, value int) error
	Unvote(ctx context.Context, req Requester, postID string) error
}

type postService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	visibility  VisibilityService
	broadcaster *socket.Broadcaster
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	visibility VisibilityService,
	broadcaster *socket.Broadcaster,
) PostService {
	return &postService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		visibility:  visibility,
		broadcaster: broadcaster,
	}
}

func (s *postService) Create(ctx context.Context, req Requester, input *CreatePostInput) (*repository.Post, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: post title is required", ErrValidation)
	}
	status := input.Status
	if status == "" {
		status = types.PostPublished
	}
	if status != types.PostDraft && status != types.PostPublished {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	group, err := s.groupRepo.FindByID(ctx, input.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}

	decision, err := s.visibility.ForPost(ctx, req, group, nil, OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, ErrForbidden
	}

	post := &repository.Post{
		GroupID:  input.GroupID,
		AuthorID: req.UserID,
		Title:    title,
		URL:      input.URL,
		Body:     input.Body,
		Status:   status,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if s.broadcaster != nil && post.Status == types.PostPublished {
		s.broadcaster.BroadcastPostCreated(group.ID, map[string]interface{}{
			"id":      post.ID,
			"groupId": post.GroupID,
			"title":   post.Title,
		}, req.UserID)
	}
	return post, nil
}

// Get returns a post the requester may read. An invisible post gets
// the same answer as a missing one.
func (s *postService) Get(ctx context.Context, req Requester, id string) (*repository.Post, error) {
	post, group, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.visibility.ForPost(ctx, req, group, post, OpRead)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, req Requester, p *PostListParams) ([]*repository.Post, int, error) {
	moderator := false
	scopeToViewer := true

	if p.GroupID != "" {
		group, err := s.groupRepo.FindByID(ctx, p.GroupID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to find group: %w", err)
		}
		if group == nil {
			// ancestor scope matches nothing
			return []*repository.Post{}, 0, nil
		}

		decision, err := s.visibility.ForPost(ctx, req, group, nil, OpRead)
		if err != nil {
			return nil, 0, err
		}
		if !decision.Allowed() {
			if req.Anonymous() {
				return nil, 0, ErrUnauthorized
			}
			return nil, 0, ErrForbidden
		}

		role := s.visibility.GroupRole(ctx, req.UserID, p.GroupID)
		moderator = hasMinimumRole(role, types.RoleModerator)
		scopeToViewer = false
	}

	filters, err := BuildPostFilters(p, req.UserID, scopeToViewer, moderator)
	if err != nil {
		return nil, 0, err
	}
	return s.postRepo.FindAll(ctx, filters)
}

func (s *postService) Update(ctx context.Context, req Requester, id string, input *UpdatePostInput) (*repository.Post, error) {
	post, group, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeWrite(ctx, req, group, post, OpUpdate); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: post title is required", ErrValidation)
		}
		post.Title = title
	}
	if input.URL != nil {
		post.URL = input.URL
	}
	if input.Body != nil {
		post.Body = input.Body
	}
	if input.Status != nil {
		if err := s.authorizeStatusChange(ctx, req, group, post, *input.Status); err != nil {
			return nil, err
		}
		post.Status = *input.Status
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPostUpdated(group.ID, map[string]interface{}{
			"id":     post.ID,
			"title":  post.Title,
			"status": post.Status,
		}, req.UserID)
	}
	return post, nil
}

// Remove takes a post down. The row stays for moderators and audit;
// the status flip hides it from everyone else.
func (s *postService) Remove(ctx context.Context, req Requester, id string) error {
	post, group, err := s.findPost(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorizeWrite(ctx, req, group, post, OpDelete); err != nil {
		return err
	}

	if err := s.postRepo.UpdateStatus(ctx, id, types.PostRemoved); err != nil {
		return fmt.Errorf("failed to remove post: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPostRemoved(group.ID, post.ID, req.UserID)
	}
	return nil
}

// ============================================
// Comments
// ============================================

func (s *postService) AddComment(ctx context.Context, req Requester, input *CreateCommentInput) (*repository.Comment, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrValidation)
	}

	// commenting requires the same access as posting
	post, group, err := s.findPost(ctx, input.PostID)
	if err != nil {
		return nil, err
	}
	readDecision, err := s.visibility.ForPost(ctx, req, group, post, OpRead)
	if err != nil {
		return nil, err
	}
	if !readDecision.Allowed() {
		return nil, ErrNotFound
	}
	createDecision, err := s.visibility.ForPost(ctx, req, group, nil, OpCreate)
	if err != nil {
		return nil, err
	}
	if !createDecision.Allowed() {
		return nil, ErrForbidden
	}

	if input.ParentID != nil {
		parent, err := s.postRepo.FindCommentByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		}
		if parent == nil || parent.PostID != post.ID {
			return nil, fmt.Errorf("%w: invalid parent comment", ErrValidation)
		}
	}

	comment := &repository.Comment{
		PostID:   post.ID,
		AuthorID: req.UserID,
		ParentID: input.ParentID,
		Body:     body,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastCommentAdded(group.ID, post.ID, map[string]interface{}{
			"id":   comment.ID,
			"body": comment.Body,
		}, req.UserID)
	}
	return comment, nil
}

func (s *postService) ListComments(ctx context.Context, req Requester, postID string, page int) ([]*repository.Comment, int, error) {
	post, group, err := s.findPost(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []*repository.Comment{}, 0, nil
		}
		return nil, 0, err
	}

	decision, err := s.visibility.ForPost(ctx, req, group, post, OpRead)
	if err != nil {
		return nil, 0, err
	}
	if !decision.Allowed() {
		return []*repository.Comment{}, 0, nil
	}

	offset := pageOffset(page, types.PageSizeComments)
	return s.postRepo.FindCommentsByPost(ctx, postID, types.PageSizeComments, offset)
}

func (s *postService) UpdateComment(ctx context.Context, req Requester, commentID, body string) (*repository.Comment, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrValidation)
	}

	comment, err := s.postRepo.FindCommentByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment == nil || comment.Deleted {
		return nil, ErrNotFound
	}
	// only the author edits a comment
	if comment.AuthorID != req.UserID {
		return nil, ErrForbidden
	}

	comment.Body = body
	if err := s.postRepo.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

func (s *postService) DeleteComment(ctx context.Context, req Requester, commentID string) error {
	if req.Anonymous() {
		return ErrUnauthorized
	}

	comment, err := s.postRepo.FindCommentByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to find comment: %w", err)
	}
	if comment == nil || comment.Deleted {
		return ErrNotFound
	}

	if comment.AuthorID != req.UserID {
		// moderators of the containing group may also delete
		_, group, err := s.findPost(ctx, comment.PostID)
		if err != nil {
			return err
		}
		role := s.visibility.GroupRole(ctx, req.UserID, group.ID)
		if !hasMinimumRole(role, types.RoleModerator) {
			return ErrForbidden
		}
	}

	return s.postRepo.SoftDeleteComment(ctx, commentID)
}

// ============================================
// Votes
// ============================================

func (s *postService) Vote(ctx context.Context, req Requester, postID string, value int) error {
	if req.Anonymous() {
		return ErrUnauthorized
	}
	if value != types.VoteUp && value != types.VoteDown {
		return fmt.Errorf("%w: invalid vote value %d", ErrValidation, value)
	}

	post, group, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	decision, err := s.visibility.ForPost(ctx, req, group, post, OpRead)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return ErrNotFound
	}

	vote := &repository.Vote{
		PostID: postID,
		UserID: req.UserID,
		Value:  value,
	}
	if err := s.postRepo.UpsertVote(ctx, vote); err != nil {
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}

func (s *postService) Unvote(ctx context.Context, req Requester, postID string) error {
	if req.Anonymous() {
		return ErrUnauthorized
	}
	return s.postRepo.DeleteVote(ctx, postID, req.UserID)
}

// ============================================
// Helpers
// ============================================

func (s *postService) findPost(ctx context.Context, id string) (*repository.Post, *repository.Group, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, nil, ErrNotFound
	}

	group, err := s.groupRepo.FindByID(ctx, post.GroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, nil, ErrNotFound
	}
	return post, group, nil
}

func (s *postService) authorizeWrite(ctx context.Context, req Requester, group *repository.Group, post *repository.Post, op Operation) error {
	if req.Anonymous() {
		return ErrUnauthorized
	}

	// a post the requester cannot read is a post that does not exist
	readDecision, err := s.visibility.ForPost(ctx, req, group, post, OpRead)
	if err != nil {
		return err
	}
	if !readDecision.Allowed() {
		return ErrNotFound
	}

	decision, err := s.visibility.ForPost(ctx, req, group, post, op)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return ErrForbidden
	}
	return nil
}

// authorizeStatusChange gates transitions: authors publish their own
// drafts; only moderators set or clear removed.
func (s *postService) authorizeStatusChange(ctx context.Context, req Requester, group *repository.Group, post *repository.Post, newStatus string) error {
	if !types.IsValid(newStatus, types.ValidPostStatuses) {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, newStatus)
	}
	if newStatus == post.Status {
		return nil
	}

	role := s.visibility.GroupRole(ctx, req.UserID, group.ID)
	moderator := hasMinimumRole(role, types.RoleModerator)

	if newStatus == types.PostRemoved || post.Status == types.PostRemoved {
		if !moderator {
			return ErrForbidden
		}
		return nil
	}

	// draft <-> published by the author or a moderator
	if post.AuthorID != req.UserID && !moderator {
		return ErrForbidden
	}
	return nil
}
