package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/sbasnet-dev/reddit-go-backend/internal/email"
	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/socket"
)

// Notification types
const (
	TypeRequestSubmitted = "MEMBER_REQUEST_SUBMITTED"
	TypeRequestApproved  = "MEMBER_REQUEST_APPROVED"
	TypeRequestRejected  = "MEMBER_REQUEST_REJECTED"
	TypeReportFiled      = "REPORT_FILED"
	TypeReportResolved   = "REPORT_RESOLVED"
)

// Notifier is the interface services use to fan out domain events.
// Implementations persist the notification and push it over whatever
// channels are configured; failures are logged, never surfaced to the
// triggering request.
type Notifier interface {
	SendRequestSubmitted(ctx context.Context, moderatorIDs []string, requesterName, groupName, groupID, requestID string)
	SendRequestDecided(ctx context.Context, userID, userEmail, groupName, groupID, status string)
	SendReportFiled(ctx context.Context, moderatorIDs []string, groupID, postID, reportID string)
	SendReportResolved(ctx context.Context, reporterID, reporterEmail, status, postID, reportID string)
}

// Service handles sending notifications
type Service struct {
	notificationRepo repository.NotificationRepository
	broadcaster      *socket.Broadcaster
	email            *email.Service // optional
}

// NewService creates a new notification service. email may be nil when
// SMTP is not configured.
func NewService(notificationRepo repository.NotificationRepository, emailService *email.Service) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		email:            emailService,
	}
}

// SetBroadcaster sets the WebSocket broadcaster (for dependency injection)
func (s *Service) SetBroadcaster(b *socket.Broadcaster) {
	s.broadcaster = b
}

// create persists a notification and pushes it in real time.
func (s *Service) create(ctx context.Context, n *repository.Notification) {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Printf("[Notification] Failed to create notification for user %s: %v", n.UserID, err)
		return
	}
	s.sendWebSocketNotification(n)
}

// sendWebSocketNotification sends real-time notification via WebSocket
func (s *Service) sendWebSocketNotification(n *repository.Notification) {
	if s.broadcaster == nil || n == nil {
		return
	}

	s.broadcaster.SendNotification(n.UserID, map[string]interface{}{
		"id":        n.ID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"read":      n.Read,
		"createdAt": n.CreatedAt,
	})

	if total, unread, err := s.notificationRepo.CountByUserID(context.Background(), n.UserID); err == nil {
		s.broadcaster.SendNotificationCount(n.UserID, total, unread)
	}
}

// ============================================
// Membership Notifications
// ============================================

// SendRequestSubmitted notifies group moderators that a membership
// request is waiting for review.
func (s *Service) SendRequestSubmitted(ctx context.Context, moderatorIDs []string, requesterName, groupName, groupID, requestID string) {
	for _, userID := range moderatorIDs {
		if userID == "" {
			continue
		}
		s.create(ctx, &repository.Notification{
			UserID:  userID,
			Type:    TypeRequestSubmitted,
			Title:   "New Membership Request",
			Message: fmt.Sprintf("%s requested to join %s", requesterName, groupName),
			Read:    false,
			Data: map[string]interface{}{
				"groupId":   groupID,
				"requestId": requestID,
				"action":    "review_request",
			},
		})
	}
}

// SendRequestDecided notifies the requester that their membership
// request was approved or rejected.
func (s *Service) SendRequestDecided(ctx context.Context, userID, userEmail, groupName, groupID, status string) {
	if userID == "" {
		return
	}

	notifType := TypeRequestApproved
	title := "Membership Approved"
	message := fmt.Sprintf("Your request to join %s was approved", groupName)
	if status == "rejected" {
		notifType = TypeRequestRejected
		title = "Membership Rejected"
		message = fmt.Sprintf("Your request to join %s was rejected", groupName)
	}

	s.create(ctx, &repository.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Read:    false,
		Data: map[string]interface{}{
			"groupId": groupID,
			"status":  status,
			"action":  "view_group",
		},
	})

	if s.email != nil && userEmail != "" {
		if err := s.email.SendRequestDecided(userEmail, groupName, status); err != nil {
			log.Printf("[Notification] Failed to email request decision to %s: %v", userEmail, err)
		}
	}
}

// ============================================
// Moderation Notifications
// ============================================

// SendReportFiled notifies group moderators that a post was reported.
func (s *Service) SendReportFiled(ctx context.Context, moderatorIDs []string, groupID, postID, reportID string) {
	for _, userID := range moderatorIDs {
		if userID == "" {
			continue
		}
		s.create(ctx, &repository.Notification{
			UserID:  userID,
			Type:    TypeReportFiled,
			Title:   "New Report",
			Message: "A post in your group was reported",
			Read:    false,
			Data: map[string]interface{}{
				"groupId":  groupID,
				"postId":   postID,
				"reportId": reportID,
				"action":   "review_report",
			},
		})
	}
}

// SendReportResolved notifies the reporter of the moderation outcome.
func (s *Service) SendReportResolved(ctx context.Context, reporterID, reporterEmail, status, postID, reportID string) {
	if reporterID == "" {
		return
	}

	s.create(ctx, &repository.Notification{
		UserID:  reporterID,
		Type:    TypeReportResolved,
		Title:   "Report Reviewed",
		Message: fmt.Sprintf("Your report was %s", status),
		Read:    false,
		Data: map[string]interface{}{
			"postId":   postID,
			"reportId": reportID,
			"status":   status,
			"action":   "view_post",
		},
	})

	if s.email != nil && reporterEmail != "" {
		if err := s.email.SendReportResolved(reporterEmail, status); err != nil {
			log.Printf("[Notification] Failed to email report outcome to %s: %v", reporterEmail, err)
		}
	}
}
