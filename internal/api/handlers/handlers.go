package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sbasnet-dev/reddit-go-backend/internal/api/middleware"
	"github.com/sbasnet-dev/reddit-go-backend/internal/models"
	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Group        *GroupHandler
	Member       *MemberHandler
	Request      *RequestHandler
	Post         *PostHandler
	Report       *ReportHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		User:         &UserHandler{userService: services.User},
		Group:        &GroupHandler{groupService: services.Group},
		Member:       &MemberHandler{memberService: services.Member},
		Request:      &RequestHandler{memberService: services.Member},
		Post:         &PostHandler{postService: services.Post},
		Report:       &ReportHandler{reportService: services.Report},
		Notification: &NotificationHandler{notificationService: services.Notification},
	}
}

// ============================================
// Error Mapping
// ============================================

// handleServiceError is the single place service errors become HTTP
// statuses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ============================================
// Request Helpers
// ============================================

func requesterFrom(c *gin.Context) service.Requester {
	return service.Requester{UserID: middleware.GetUserID(c)}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func pageResponse(items interface{}, page, pageSize, total int) models.Page {
	return models.Page{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// toPublicUserResponse omits the email; it is shown only to the
// account owner.
func toPublicUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func toGroupResponse(v *service.GroupView) models.GroupResponse {
	g := v.Group
	resp := models.GroupResponse{
		ID:         g.ID,
		Name:       g.Name,
		Visibility: g.Visibility,
	}
	if g.Description != nil {
		resp.Description = g.Description
	}
	if v.Decision.Full() {
		resp.OwnerID = g.OwnerID
		memberCount := v.MemberCount
		resp.MemberCount = &memberCount
		createdAt := g.CreatedAt
		updatedAt := g.UpdatedAt
		resp.CreatedAt = &createdAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

func toMemberResponse(m *repository.GroupMember) models.MemberResponse {
	resp := models.MemberResponse{
		ID:       m.ID,
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
	if m.User != nil {
		user := toPublicUserResponse(m.User)
		resp.User = &user
	}
	return resp
}

func toMemberRequestResponse(r *repository.MemberRequest) models.MemberRequestResponse {
	resp := models.MemberRequestResponse{
		ID:         r.ID,
		GroupID:    r.GroupID,
		UserID:     r.UserID,
		Status:     r.Status,
		Message:    r.Message,
		ReviewedBy: r.ReviewedBy,
		ReviewedAt: r.ReviewedAt,
		CreatedAt:  r.CreatedAt,
	}
	if r.User != nil {
		user := toPublicUserResponse(r.User)
		resp.User = &user
	}
	return resp
}

func toPostResponse(p *repository.Post) models.PostResponse {
	resp := models.PostResponse{
		ID:        p.ID,
		GroupID:   p.GroupID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		URL:       p.URL,
		Body:      p.Body,
		Status:    p.Status,
		Score:     p.Score,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Author != nil {
		resp.Author = p.Author.Username
	}
	return resp
}

// toCommentResponse blanks out author and body for deleted comments;
// the row survives to keep threads intact.
func toCommentResponse(cm *repository.Comment) models.CommentResponse {
	resp := models.CommentResponse{
		ID:        cm.ID,
		PostID:    cm.PostID,
		ParentID:  cm.ParentID,
		Deleted:   cm.Deleted,
		CreatedAt: cm.CreatedAt,
		UpdatedAt: cm.UpdatedAt,
	}
	if !cm.Deleted {
		resp.AuthorID = cm.AuthorID
		resp.Body = cm.Body
		if cm.Author != nil {
			resp.Author = cm.Author.Username
		}
	} else {
		resp.Body = "[deleted]"
	}
	return resp
}

func toReportResponse(r *repository.Report) models.ReportResponse {
	return models.ReportResponse{
		ID:           r.ID,
		PostID:       r.PostID,
		GroupID:      r.GroupID,
		ReporterID:   r.ReporterID,
		ReportTypeID: r.ReportTypeID,
		Detail:       r.Detail,
		Status:       r.Status,
		ResolvedBy:   r.ResolvedBy,
		ResolvedAt:   r.ResolvedAt,
		CreatedAt:    r.CreatedAt,
	}
}

func toReportTypeResponse(rt *repository.ReportType) models.ReportTypeResponse {
	return models.ReportTypeResponse{
		ID:          rt.ID,
		Name:        rt.Name,
		Description: rt.Description,
	}
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}
