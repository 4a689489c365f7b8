package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Group is a community container scoping posts and membership.
// Groups are never hard-deleted; moderation removes content instead.
type Group struct {
	ID          string
	Name        string
	Description *string
	Visibility  string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type GroupMember struct {
	ID       string
	GroupID  string
	UserID   string
	Role     string
	JoinedAt time.Time
	User     *User
}

type MemberRequest struct {
	ID         string
	GroupID    string
	UserID     string
	Status     string
	Message    *string
	ReviewedBy *string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	User       *User
}

// GroupFilters narrows group listing. Name matching is case-insensitive
// substring, the way the old API's search behaved. ExcludePrivate is
// the anonymous tier: private groups are filtered out before the count
// and LIMIT/OFFSET run, so totals and page boundaries reflect only the
// rows the viewer may see.
type GroupFilters struct {
	NameContains   string
	Visibility     string
	ExcludePrivate bool
	Limit          int
	Offset         int
}

// MemberFilters narrows a member listing. GroupID is the ancestor scope
// and is always applied first; the rest are caller-supplied filters.
type MemberFilters struct {
	GroupID  string
	Role     string
	Username string
	Limit    int
	Offset   int
}

// RequestFilters narrows a member-request listing. OnlyUserID restricts
// the result to the requester's own applications (non-moderator tier).
type RequestFilters struct {
	GroupID    string
	Status     string
	OnlyUserID string
	Limit      int
	Offset     int
}

type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	FindByID(ctx context.Context, id string) (*Group, error)
	FindByName(ctx context.Context, name string) (*Group, error)
	FindAll(ctx context.Context, f *GroupFilters) ([]*Group, int, error)
	Update(ctx context.Context, group *Group) error

	// Membership
	AddMember(ctx context.Context, member *GroupMember) error
	FindMember(ctx context.Context, groupID, userID string) (*GroupMember, error)
	FindMembers(ctx context.Context, f *MemberFilters) ([]*GroupMember, int, error)
	UpdateMemberRole(ctx context.Context, groupID, userID, role string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	CountMembers(ctx context.Context, groupID string) (int, error)
	FindModeratorUserIDs(ctx context.Context, groupID string) ([]string, error)

	// Member requests
	CreateRequest(ctx context.Context, request *MemberRequest) error
	FindRequestByID(ctx context.Context, id string) (*MemberRequest, error)
	FindRequests(ctx context.Context, f *RequestFilters) ([]*MemberRequest, int, error)
	ApproveRequest(ctx context.Context, requestID, reviewerID string) (*MemberRequest, error)
	RejectRequest(ctx context.Context, requestID, reviewerID string) (*MemberRequest, error)
}

type pgGroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &pgGroupRepository{pool: pool}
}

// Create inserts the group and its owner's membership row in one
// transaction: a group never exists without its owner as a member,
// which for private groups would lock the owner out.
func (r *pgGroupRepository) Create(ctx context.Context, group *Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO groups (name, description, visibility, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, group.Name, group.Description, group.Visibility, group.OwnerID,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, 'owner')
	`, group.ID, group.OwnerID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgGroupRepository) FindByID(ctx context.Context, id string) (*Group, error) {
	query := `
		SELECT id, name, description, visibility, owner_id, created_at, updated_at
		FROM groups WHERE id = $1
	`
	return r.scanGroup(r.pool.QueryRow(ctx, query, id))
}

func (r *pgGroupRepository) FindByName(ctx context.Context, name string) (*Group, error) {
	query := `
		SELECT id, name, description, visibility, owner_id, created_at, updated_at
		FROM groups WHERE LOWER(name) = LOWER($1)
	`
	return r.scanGroup(r.pool.QueryRow(ctx, query, name))
}

func (r *pgGroupRepository) scanGroup(row pgx.Row) (*Group, error) {
	group := &Group{}
	err := row.Scan(
		&group.ID, &group.Name, &group.Description, &group.Visibility,
		&group.OwnerID, &group.CreatedAt, &group.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (r *pgGroupRepository) FindAll(ctx context.Context, f *GroupFilters) ([]*Group, int, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}

	if f.NameContains != "" {
		args = append(args, "%"+f.NameContains+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.Visibility != "" {
		args = append(args, f.Visibility)
		conditions = append(conditions, fmt.Sprintf("visibility = $%d", len(args)))
	}
	if f.ExcludePrivate {
		conditions = append(conditions, "visibility <> 'private'")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM groups WHERE " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT id, name, description, visibility, owner_id, created_at, updated_at
		FROM groups WHERE %s
		ORDER BY id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(
			&group.ID, &group.Name, &group.Description, &group.Visibility,
			&group.OwnerID, &group.CreatedAt, &group.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		groups = append(groups, group)
	}
	return groups, total, nil
}

func (r *pgGroupRepository) Update(ctx context.Context, group *Group) error {
	query := `
		UPDATE groups SET description = $2, visibility = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, group.ID, group.Description, group.Visibility)
	return err
}

// ============================================
// Membership
// ============================================

func (r *pgGroupRepository) AddMember(ctx context.Context, member *GroupMember) error {
	query := `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO NOTHING
		RETURNING id, joined_at
	`
	err := r.pool.QueryRow(ctx, query, member.GroupID, member.UserID, member.Role).
		Scan(&member.ID, &member.JoinedAt)
	if err == pgx.ErrNoRows {
		// already a member
		return nil
	}
	return err
}

func (r *pgGroupRepository) FindMember(ctx context.Context, groupID, userID string) (*GroupMember, error) {
	query := `
		SELECT id, group_id, user_id, role, joined_at
		FROM group_members WHERE group_id = $1 AND user_id = $2
	`
	member := &GroupMember{}
	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(
		&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.JoinedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *pgGroupRepository) FindMembers(ctx context.Context, f *MemberFilters) ([]*GroupMember, int, error) {
	args := []interface{}{f.GroupID}
	conditions := []string{"gm.group_id = $1"}

	if f.Role != "" {
		args = append(args, f.Role)
		conditions = append(conditions, fmt.Sprintf("gm.role = $%d", len(args)))
	}
	if f.Username != "" {
		args = append(args, f.Username)
		conditions = append(conditions, fmt.Sprintf("LOWER(u.username) = LOWER($%d)", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM group_members gm
		INNER JOIN users u ON gm.user_id = u.id
		WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at,
		       u.id, u.username, u.email, u.avatar, u.created_at
		FROM group_members gm
		INNER JOIN users u ON gm.user_id = u.id
		WHERE %s
		ORDER BY gm.id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []*GroupMember
	for rows.Next() {
		member := &GroupMember{User: &User{}}
		var userCreatedAt time.Time
		if err := rows.Scan(
			&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.JoinedAt,
			&member.User.ID, &member.User.Username, &member.User.Email,
			&member.User.Avatar, &userCreatedAt,
		); err != nil {
			return nil, 0, err
		}
		member.User.CreatedAt = userCreatedAt
		members = append(members, member)
	}
	return members, total, nil
}

func (r *pgGroupRepository) UpdateMemberRole(ctx context.Context, groupID, userID, role string) error {
	query := `UPDATE group_members SET role = $3 WHERE group_id = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, groupID, userID, role)
	return err
}

func (r *pgGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, groupID, userID)
	return err
}

func (r *pgGroupRepository) CountMembers(ctx context.Context, groupID string) (int, error) {
	query := `SELECT COUNT(*) FROM group_members WHERE group_id = $1`
	var count int
	err := r.pool.QueryRow(ctx, query, groupID).Scan(&count)
	return count, err
}

func (r *pgGroupRepository) FindModeratorUserIDs(ctx context.Context, groupID string) ([]string, error) {
	query := `
		SELECT user_id FROM group_members
		WHERE group_id = $1 AND role IN ('owner', 'moderator')
	`
	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, nil
}

// ============================================
// Member Requests
// ============================================

func (r *pgGroupRepository) CreateRequest(ctx context.Context, request *MemberRequest) error {
	query := `
		INSERT INTO member_requests (group_id, user_id, status, message)
		VALUES ($1, $2, 'pending', $3)
		RETURNING id, status, created_at
	`
	return r.pool.QueryRow(ctx, query, request.GroupID, request.UserID, request.Message).
		Scan(&request.ID, &request.Status, &request.CreatedAt)
}

func (r *pgGroupRepository) FindRequestByID(ctx context.Context, id string) (*MemberRequest, error) {
	query := `
		SELECT id, group_id, user_id, status, message, reviewed_by, reviewed_at, created_at
		FROM member_requests WHERE id = $1
	`
	request := &MemberRequest{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID, &request.GroupID, &request.UserID, &request.Status,
		&request.Message, &request.ReviewedBy, &request.ReviewedAt, &request.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *pgGroupRepository) FindRequests(ctx context.Context, f *RequestFilters) ([]*MemberRequest, int, error) {
	args := []interface{}{f.GroupID}
	conditions := []string{"mr.group_id = $1"}

	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("mr.status = $%d", len(args)))
	}
	if f.OnlyUserID != "" {
		args = append(args, f.OnlyUserID)
		conditions = append(conditions, fmt.Sprintf("mr.user_id = $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM member_requests mr WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT mr.id, mr.group_id, mr.user_id, mr.status, mr.message,
		       mr.reviewed_by, mr.reviewed_at, mr.created_at,
		       u.id, u.username, u.email, u.avatar
		FROM member_requests mr
		INNER JOIN users u ON mr.user_id = u.id
		WHERE %s
		ORDER BY mr.id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []*MemberRequest
	for rows.Next() {
		request := &MemberRequest{User: &User{}}
		if err := rows.Scan(
			&request.ID, &request.GroupID, &request.UserID, &request.Status,
			&request.Message, &request.ReviewedBy, &request.ReviewedAt, &request.CreatedAt,
			&request.User.ID, &request.User.Username, &request.User.Email, &request.User.Avatar,
		); err != nil {
			return nil, 0, err
		}
		requests = append(requests, request)
	}
	return requests, total, nil
}

// ApproveRequest flips a pending request to approved and creates the
// membership row in one transaction. The conditional UPDATE means that
// of two concurrent approvals exactly one sees a row; the other gets
// ErrNotPending.
func (r *pgGroupRepository) ApproveRequest(ctx context.Context, requestID, reviewerID string) (*MemberRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	request := &MemberRequest{}
	err = tx.QueryRow(ctx, `
		UPDATE member_requests
		SET status = 'approved', reviewed_by = $2, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, group_id, user_id, status, message, reviewed_by, reviewed_at, created_at
	`, requestID, reviewerID).Scan(
		&request.ID, &request.GroupID, &request.UserID, &request.Status,
		&request.Message, &request.ReviewedBy, &request.ReviewedAt, &request.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, 'member')
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, request.GroupID, request.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return request, nil
}

func (r *pgGroupRepository) RejectRequest(ctx context.Context, requestID, reviewerID string) (*MemberRequest, error) {
	request := &MemberRequest{}
	err := r.pool.QueryRow(ctx, `
		UPDATE member_requests
		SET status = 'rejected', reviewed_by = $2, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, group_id, user_id, status, message, reviewed_by, reviewed_at, created_at
	`, requestID, reviewerID).Scan(
		&request.ID, &request.GroupID, &request.UserID, &request.Status,
		&request.Message, &request.ReviewedBy, &request.ReviewedAt, &request.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}
