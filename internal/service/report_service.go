package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sbasnet-dev/reddit-go-backend/internal/db"
	"github.com/sbasnet-dev/reddit-go-backend/internal/notification"
	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Report Service
// ============================================

type CreateReportInput struct {
	PostID       string
	ReportTypeID string
	Detail       *string
}

type ReportService interface {
	Create(ctx context.Context, req Requester, input *CreateReportInput) (*repository.Report, error)
	Get(ctx context.Context, req Requester, id string) (*repository.Report, error)
	List(ctx context.Context, req Requester, groupID string, p *ReportListParams) ([]*repository.Report, int, error)
	Resolve(ctx context.Context, req Requester, id string) (*repository.Report, error)
	Dismiss(ctx context.Context, req Requester, id string) (*repository.Report, error)

	// Report types (read-only enumeration)
	ListTypes(ctx context.Context) ([]*repository.ReportType, error)
	GetType(ctx context.Context, id string) (*repository.ReportType, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	postRepo   repository.PostRepository
	groupRepo  repository.GroupRepository
	userRepo   repository.UserRepository
	visibility VisibilityService
	notifier   notification.Notifier
	cache      *db.RedisDB
}

func NewReportService(
	reportRepo repository.ReportRepository,
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	visibility VisibilityService,
	notifier notification.Notifier,
	cache *db.RedisDB,
) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		visibility: visibility,
		notifier:   notifier,
		cache:      cache,
	}
}

func (s *reportService) Create(ctx context.Context, req Requester, input *CreateReportInput) (*repository.Report, error) {
	if req.Anonymous() {
		return nil, ErrUnauthorized
	}

	reportType, err := s.reportRepo.FindTypeByID(ctx, input.ReportTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report type: %w", err)
	}
	if reportType == nil {
		return nil, fmt.Errorf("%w: unknown report type", ErrValidation)
	}

	post, err := s.postRepo.FindByID(ctx, input.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	group, err := s.groupRepo.FindByID(ctx, post.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}

	// you can only report what you can read
	readDecision, err := s.visibility.ForPost(ctx, req, group, post, OpRead)
	if err != nil {
		return nil, err
	}
	if !readDecision.Allowed() {
		return nil, ErrNotFound
	}

	var detail *string
	if input.Detail != nil {
		trimmed := strings.TrimSpace(*input.Detail)
		if trimmed != "" {
			detail = &trimmed
		}
	}

	report := &repository.Report{
		PostID:       input.PostID,
		ReporterID:   req.UserID,
		ReportTypeID: input.ReportTypeID,
		Detail:       detail,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	report.GroupID = group.ID

	if s.notifier != nil {
		if moderatorIDs, err := s.groupRepo.FindModeratorUserIDs(ctx, group.ID); err == nil {
			s.notifier.SendReportFiled(ctx, moderatorIDs, group.ID, post.ID, report.ID)
		}
	}
	return report, nil
}

func (s *reportService) Get(ctx context.Context, req Requester, id string) (*repository.Report, error) {
	report, group, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.visibility.ForReport(ctx, req, group, report, OpRead)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() || !decision.Full() {
		return nil, ErrNotFound
	}
	return report, nil
}

func (s *reportService) List(ctx context.Context, req Requester, groupID string, p *ReportListParams) ([]*repository.Report, int, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return []*repository.Report{}, 0, nil
	}

	decision, err := s.visibility.ForReport(ctx, req, group, nil, OpRead)
	if err != nil {
		return nil, 0, err
	}
	if !decision.Allowed() {
		if req.Anonymous() {
			return nil, 0, ErrUnauthorized
		}
		return nil, 0, ErrForbidden
	}

	// non-moderators see only reports they filed
	onlyReporterID := ""
	if !decision.Full() {
		onlyReporterID = req.UserID
	}

	filters, err := BuildReportFilters(groupID, onlyReporterID, p)
	if err != nil {
		return nil, 0, err
	}
	return s.reportRepo.FindAll(ctx, filters)
}

func (s *reportService) Resolve(ctx context.Context, req Requester, id string) (*repository.Report, error) {
	return s.decide(ctx, req, id, types.ReportResolved)
}

func (s *reportService) Dismiss(ctx context.Context, req Requester, id string) (*repository.Report, error) {
	return s.decide(ctx, req, id, types.ReportDismissed)
}

// decide closes an open report; like a member-request decision it
// happens exactly once.
func (s *reportService) decide(ctx context.Context, req Requester, id, status string) (*repository.Report, error) {
	report, group, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Anonymous() {
		return nil, ErrUnauthorized
	}
	decision, err := s.visibility.ForReport(ctx, req, group, report, OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, ErrForbidden
	}

	decided, err := s.reportRepo.Resolve(ctx, id, status, req.UserID)
	if errors.Is(err, repository.ErrNotPending) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report: %w", err)
	}
	decided.GroupID = group.ID

	if s.notifier != nil {
		reporterEmail := ""
		if user, _ := s.userRepo.FindByID(ctx, decided.ReporterID); user != nil {
			reporterEmail = user.Email
		}
		s.notifier.SendReportResolved(ctx, decided.ReporterID, reporterEmail, status, decided.PostID, decided.ID)
	}
	return decided, nil
}

// ============================================
// Report Types
// ============================================

// ListTypes returns the report-type enumeration, cached since the set
// only changes at deploy time.
func (s *reportService) ListTypes(ctx context.Context) ([]*repository.ReportType, error) {
	if s.cache != nil {
		var cached []*repository.ReportType
		if err := s.cache.GetCache(ctx, "report_types", &cached); err == nil {
			return cached, nil
		}
	}

	reportTypes, err := s.reportRepo.FindAllTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list report types: %w", err)
	}
	if s.cache != nil {
		s.cache.SetCache(ctx, "report_types", reportTypes, time.Hour)
	}
	return reportTypes, nil
}

func (s *reportService) GetType(ctx context.Context, id string) (*repository.ReportType, error) {
	reportType, err := s.reportRepo.FindTypeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find report type: %w", err)
	}
	if reportType == nil {
		return nil, ErrNotFound
	}
	return reportType, nil
}

func (s *reportService) findReport(ctx context.Context, id string) (*repository.Report, *repository.Group, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find report: %w", err)
	}
	if report == nil {
		return nil, nil, ErrNotFound
	}

	group, err := s.groupRepo.FindByID(ctx, report.GroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, nil, ErrNotFound
	}
	return report, group, nil
}
