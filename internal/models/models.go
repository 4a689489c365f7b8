package models

import "time"

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Avatar *string `json:"avatar,omitempty"`
}

type AuthCheckResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UserID          string `json:"userId,omitempty"`
}

// ============================================
// Pagination
// ============================================

// Page is the wrapper every list endpoint returns. Items are ordered
// by id ascending; Total counts matches before paging.
type Page struct {
	Items    interface{} `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Total    int         `json:"total"`
}

// ============================================
// Group DTOs
// ============================================

type CreateGroupRequest struct {
	Name        string  `json:"name" binding:"required,min=3,max=50"`
	Description *string `json:"description"`
	Visibility  string  `json:"visibility" binding:"omitempty,oneof=public private restricted"`
}

type UpdateGroupRequest struct {
	Description *string `json:"description"`
	Visibility  *string `json:"visibility" binding:"omitempty,oneof=public private restricted"`
}

// GroupResponse is the full view. Redacted views omit the pointer
// fields entirely.
type GroupResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Visibility  string     `json:"visibility"`
	OwnerID     string     `json:"ownerId,omitempty"`
	MemberCount *int       `json:"memberCount,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ============================================
// Membership DTOs
// ============================================

type MemberResponse struct {
	ID       string        `json:"id"`
	GroupID  string        `json:"groupId"`
	UserID   string        `json:"userId"`
	Role     string        `json:"role"`
	JoinedAt time.Time     `json:"joinedAt"`
	User     *UserResponse `json:"user,omitempty"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=moderator member"`
}

type CreateMemberRequestRequest struct {
	Message *string `json:"message"`
}

type MemberRequestResponse struct {
	ID         string        `json:"id"`
	GroupID    string        `json:"groupId"`
	UserID     string        `json:"userId"`
	Status     string        `json:"status"`
	Message    *string       `json:"message,omitempty"`
	ReviewedBy *string       `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time    `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	User       *UserResponse `json:"user,omitempty"`
}

// ============================================
// Post DTOs
// ============================================

type CreatePostRequest struct {
	GroupID string  `json:"groupId" binding:"required"`
	Title   string  `json:"title" binding:"required,max=300"`
	URL     *string `json:"url" binding:"omitempty,url"`
	Body    *string `json:"body"`
	Status  string  `json:"status" binding:"omitempty,oneof=draft published"`
}

type UpdatePostRequest struct {
	Title  *string `json:"title" binding:"omitempty,max=300"`
	URL    *string `json:"url" binding:"omitempty,url"`
	Body   *string `json:"body"`
	Status *string `json:"status" binding:"omitempty,oneof=draft published removed"`
}

type PostResponse struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	AuthorID  string    `json:"authorId"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	URL       *string   `json:"url,omitempty"`
	Body      *string   `json:"body,omitempty"`
	Status    string    `json:"status"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ============================================
// Comment DTOs
// ============================================

type CreateCommentRequest struct {
	ParentID *string `json:"parentId"`
	Body     string  `json:"body" binding:"required"`
}

type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type CommentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId,omitempty"`
	Author    string    `json:"author,omitempty"`
	ParentID  *string   `json:"parentId,omitempty"`
	Body      string    `json:"body"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ============================================
// Vote DTOs
// ============================================

type VoteRequest struct {
	Value int `json:"value" binding:"required,oneof=1 -1"`
}

// ============================================
// Report DTOs
// ============================================

type CreateReportRequest struct {
	PostID       string  `json:"postId" binding:"required"`
	ReportTypeID string  `json:"reportTypeId" binding:"required"`
	Detail       *string `json:"detail"`
}

type ReportResponse struct {
	ID           string     `json:"id"`
	PostID       string     `json:"postId"`
	GroupID      string     `json:"groupId"`
	ReporterID   string     `json:"reporterId"`
	ReportTypeID string     `json:"reportTypeId"`
	Detail       *string    `json:"detail,omitempty"`
	Status       string     `json:"status"`
	ResolvedBy   *string    `json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type ReportTypeResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type NotificationCountResponse struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}
