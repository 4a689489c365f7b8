package socket

import "fmt"

// Broadcaster provides high-level methods for broadcasting events
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func groupRoom(groupID string) string {
	return fmt.Sprintf("group:%s", groupID)
}

// ============================================
// Notification Broadcasting
// ============================================

// SendNotification sends a notification to a specific user
func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNotification, notification)
}

// SendNotificationCount updates notification count for a user
func (b *Broadcaster) SendNotificationCount(userID string, total, unread int) {
	b.hub.SendToUser(userID, MessageNotificationCount, map[string]interface{}{
		"total":  total,
		"unread": unread,
	})
}

// ============================================
// Post Broadcasting
// ============================================

// BroadcastPostCreated broadcasts post creation to group members
func (b *Broadcaster) BroadcastPostCreated(groupID string, post map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(groupRoom(groupID), MessagePostCreated, post, excludeUserID)
}

// BroadcastPostUpdated broadcasts post updates to group members
func (b *Broadcaster) BroadcastPostUpdated(groupID string, post map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(groupRoom(groupID), MessagePostUpdated, post, excludeUserID)
}

// BroadcastPostRemoved broadcasts a moderation removal to group members
func (b *Broadcaster) BroadcastPostRemoved(groupID, postID string, excludeUserID string) {
	b.hub.SendToRoom(groupRoom(groupID), MessagePostRemoved, map[string]interface{}{
		"postId": postID,
	}, excludeUserID)
}

// BroadcastCommentAdded broadcasts a new comment to group members
func (b *Broadcaster) BroadcastCommentAdded(groupID, postID string, comment map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(groupRoom(groupID), MessageCommentAdded, map[string]interface{}{
		"postId":  postID,
		"comment": comment,
	}, excludeUserID)
}

// ============================================
// Membership Broadcasting
// ============================================

// BroadcastMemberJoined broadcasts a new membership to group members
func (b *Broadcaster) BroadcastMemberJoined(groupID, userID string) {
	b.hub.SendToRoom(groupRoom(groupID), MessageMemberJoined, map[string]interface{}{
		"groupId": groupID,
		"userId":  userID,
	}, "")
}

// BroadcastMemberLeft broadcasts a membership removal to group members
func (b *Broadcaster) BroadcastMemberLeft(groupID, userID string) {
	b.hub.SendToRoom(groupRoom(groupID), MessageMemberLeft, map[string]interface{}{
		"groupId": groupID,
		"userId":  userID,
	}, "")
}

// BroadcastRequestDecided notifies the requester that their membership
// request has been decided
func (b *Broadcaster) BroadcastRequestDecided(requesterID, groupID, status string) {
	b.hub.SendToUser(requesterID, MessageRequestDecided, map[string]interface{}{
		"groupId": groupID,
		"status":  status,
	})
}

// ============================================
// Moderation Broadcasting
// ============================================

// BroadcastReportFiled notifies a moderator that a report was filed
func (b *Broadcaster) BroadcastReportFiled(moderatorID string, report map[string]interface{}) {
	b.hub.SendToUser(moderatorID, MessageReportFiled, report)
}

// BroadcastReportResolved notifies the reporter of the outcome
func (b *Broadcaster) BroadcastReportResolved(reporterID string, report map[string]interface{}) {
	b.hub.SendToUser(reporterID, MessageReportResolved, report)
}
