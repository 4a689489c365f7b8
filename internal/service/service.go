package service

import (
	"errors"

	"github.com/sbasnet-dev/reddit-go-backend/internal/config"
	"github.com/sbasnet-dev/reddit-go-backend/internal/db"
	"github.com/sbasnet-dev/reddit-go-backend/internal/notification"
	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/socket"
)

// Error taxonomy. Every service failure is one of these; handlers map
// them to HTTP statuses in exactly one place.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource already exists")
	ErrValidation         = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid state transition")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Group        GroupService
	Member       MemberService
	Post         PostService
	Report       ReportService
	Notification NotificationService
	Visibility   VisibilityService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	Cache       *db.RedisDB // optional
	Notifier    notification.Notifier
	Broadcaster *socket.Broadcaster
}

func NewServices(deps *ServiceDeps) *Services {
	visibility := NewVisibilityService(deps.Repos.GroupRepo)

	return &Services{
		Auth:         NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:         NewUserService(deps.Repos.UserRepo),
		Group:        NewGroupService(deps.Repos.GroupRepo, visibility, deps.Cache),
		Member:       NewMemberService(deps.Repos.GroupRepo, deps.Repos.UserRepo, visibility, deps.Notifier, deps.Broadcaster),
		Post:         NewPostService(deps.Repos.PostRepo, deps.Repos.GroupRepo, visibility, deps.Broadcaster),
		Report:       NewReportService(deps.Repos.ReportRepo, deps.Repos.PostRepo, deps.Repos.GroupRepo, deps.Repos.UserRepo, visibility, deps.Notifier, deps.Cache),
		Notification: NewNotificationService(deps.Repos.NotificationRepo),
		Visibility:   visibility,
		Broadcaster:  deps.Broadcaster,
	}
}
