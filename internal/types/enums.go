package types

// Group visibility values
const (
	VisibilityPublic     = "public"
	VisibilityPrivate    = "private"
	VisibilityRestricted = "restricted"
)

// Group member roles
const (
	RoleOwner     = "owner"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// Post status values
const (
	PostDraft     = "draft"
	PostPublished = "published"
	PostRemoved   = "removed"
)

// Member request status values
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Report status values
const (
	ReportOpen      = "open"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// Vote values
const (
	VoteUp   = 1
	VoteDown = -1
)

// Fixed page sizes per resource kind
const (
	PageSizeMembers  = 24
	PageSizePosts    = 20
	PageSizeReports  = 20
	PageSizeRequests = 20
	PageSizeGroups   = 20
	PageSizeComments = 50
)

// Valid values for validation
var ValidGroupVisibilities = []string{
	VisibilityPublic, VisibilityPrivate, VisibilityRestricted,
}

var ValidMemberRoles = []string{
	RoleOwner, RoleModerator, RoleMember,
}

var ValidPostStatuses = []string{
	PostDraft, PostPublished, PostRemoved,
}

var ValidRequestStatuses = []string{
	RequestPending, RequestApproved, RequestRejected,
}

var ValidReportStatuses = []string{
	ReportOpen, ReportResolved, ReportDismissed,
}

// IsValid reports whether value is one of the allowed values.
func IsValid(value string, allowed []string) bool {
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}
