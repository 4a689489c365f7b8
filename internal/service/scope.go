package service

import (
	"fmt"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// ============================================
// Scoped Query Builder
// ============================================
//
// List endpoints accept caller-supplied filter parameters, but only
// from a fixed allow-list per resource, and only after the ancestor
// scope and the requester's visibility tier have been applied. The
// builders below translate validated caller parameters into the
// repository filter structs; constraints the caller did not (and can
// not) control are set by the services, never here.

type GroupListParams struct {
	Name       string
	Visibility string
	Page       int
}

type MemberListParams struct {
	Role     string
	Username string
	Page     int
}

type RequestListParams struct {
	Status string
	Page   int
}

// PostListParams mirrors the post allow-list: title (contains), author
// (exact username), status, group.
type PostListParams struct {
	Title   string
	Author  string
	Status  string
	GroupID string
	Page    int
}

type ReportListParams struct {
	Status       string
	ReportTypeID string
	PostID       string
	Page         int
}

// pageOffset converts a 1-based page number to an offset. Page 0 (or
// negative) reads as page 1.
func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

func validateEnum(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	if !types.IsValid(value, allowed) {
		return fmt.Errorf("%w: invalid %s %q", ErrValidation, field, value)
	}
	return nil
}

// BuildGroupFilters validates group listing parameters and stamps the
// viewer tier. Authenticated non-members see private groups redacted,
// so no constraint is injected for them; anonymous viewers never see
// private groups, and the exclusion must run before pagination so page
// boundaries and totals count only visible rows.
func BuildGroupFilters(p *GroupListParams, anonymous bool) (*repository.GroupFilters, error) {
	if err := validateEnum("visibility", p.Visibility, types.ValidGroupVisibilities); err != nil {
		return nil, err
	}
	return &repository.GroupFilters{
		NameContains:   p.Name,
		Visibility:     p.Visibility,
		ExcludePrivate: anonymous,
		Limit:          types.PageSizeGroups,
		Offset:         pageOffset(p.Page, types.PageSizeGroups),
	}, nil
}

// BuildMemberFilters validates member listing parameters for a group
// the requester has already been cleared to read. GroupID is the
// ancestor scope and is applied before any caller filter.
func BuildMemberFilters(groupID string, p *MemberListParams) (*repository.MemberFilters, error) {
	if err := validateEnum("role", p.Role, types.ValidMemberRoles); err != nil {
		return nil, err
	}
	return &repository.MemberFilters{
		GroupID:  groupID,
		Role:     p.Role,
		Username: p.Username,
		Limit:    types.PageSizeMembers,
		Offset:   pageOffset(p.Page, types.PageSizeMembers),
	}, nil
}

// BuildRequestFilters validates member-request listing parameters.
// onlyUserID is the tier constraint: when non-empty (non-moderator
// requester) the listing is narrowed to that user's own requests
// regardless of any caller filter.
func BuildRequestFilters(groupID, onlyUserID string, p *RequestListParams) (*repository.RequestFilters, error) {
	if err := validateEnum("status", p.Status, types.ValidRequestStatuses); err != nil {
		return nil, err
	}
	return &repository.RequestFilters{
		GroupID:    groupID,
		Status:     p.Status,
		OnlyUserID: onlyUserID,
		Limit:      types.PageSizeRequests,
		Offset:     pageOffset(p.Page, types.PageSizeRequests),
	}, nil
}

// BuildPostFilters validates post listing parameters and stamps the
// viewer tier. The tier decides whether drafts and removed posts may
// surface; callers cannot widen past it by filtering on status.
func BuildPostFilters(p *PostListParams, viewerID string, scopeToViewer, moderator bool) (*repository.PostFilters, error) {
	if err := validateEnum("status", p.Status, types.ValidPostStatuses); err != nil {
		return nil, err
	}
	if !moderator {
		// non-moderators may only ask for statuses their tier surfaces
		if p.Status == types.PostRemoved {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, p.Status)
		}
	}
	return &repository.PostFilters{
		GroupID:        p.GroupID,
		TitleContains:  p.Title,
		AuthorName:     p.Author,
		Status:         p.Status,
		ViewerID:       viewerID,
		ScopeToViewer:  scopeToViewer,
		IncludeRemoved: moderator,
		IncludeDrafts:  moderator,
		Limit:          types.PageSizePosts,
		Offset:         pageOffset(p.Page, types.PageSizePosts),
	}, nil
}

// BuildReportFilters validates report listing parameters. As with
// requests, onlyReporterID narrows non-moderators to their own reports.
func BuildReportFilters(groupID, onlyReporterID string, p *ReportListParams) (*repository.ReportFilters, error) {
	if err := validateEnum("status", p.Status, types.ValidReportStatuses); err != nil {
		return nil, err
	}
	return &repository.ReportFilters{
		GroupID:        groupID,
		PostID:         p.PostID,
		Status:         p.Status,
		ReportTypeID:   p.ReportTypeID,
		OnlyReporterID: onlyReporterID,
		Limit:          types.PageSizeReports,
		Offset:         pageOffset(p.Page, types.PageSizeReports),
	}, nil
}
