package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/types"
)

// In-memory fakes mirroring the Postgres repositories' contracts:
// lookups return (nil, nil) when nothing matches, request decisions
// return ErrNotPending once decided, one pending request per
// (group, user) is enforced, and listings page in stable ID order
// with the total counted before LIMIT/OFFSET.

func memberKey(groupID, userID string) string {
	return groupID + "|" + userID
}

// paginate slices a page out of the full filtered set, the way
// LIMIT/OFFSET does after ORDER BY.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakeGroupRepo struct {
	groups   map[string]*repository.Group
	members  map[string]*repository.GroupMember
	requests map[string]*repository.MemberRequest
	seq      int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:   make(map[string]*repository.Group),
		members:  make(map[string]*repository.GroupMember),
		requests: make(map[string]*repository.MemberRequest),
	}
}

// nextID zero-pads so lexicographic ID order is insertion order.
func (r *fakeGroupRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%04d", prefix, r.seq)
}

func (r *fakeGroupRepo) addGroup(id, name, visibility, ownerID string) *repository.Group {
	group := &repository.Group{
		ID:         id,
		Name:       name,
		Visibility: visibility,
		OwnerID:    ownerID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	r.groups[id] = group
	r.members[memberKey(id, ownerID)] = &repository.GroupMember{
		ID:       r.nextID("gm"),
		GroupID:  id,
		UserID:   ownerID,
		Role:     types.RoleOwner,
		JoinedAt: time.Now(),
	}
	return group
}

func (r *fakeGroupRepo) addMember(groupID, userID, role string) {
	r.members[memberKey(groupID, userID)] = &repository.GroupMember{
		ID:       r.nextID("gm"),
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
}

// Create inserts the group and the owner's membership together,
// matching the transactional contract of the Postgres repository.
func (r *fakeGroupRepo) Create(ctx context.Context, group *repository.Group) error {
	group.ID = r.nextID("g")
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	r.groups[group.ID] = group
	r.addMember(group.ID, group.OwnerID, types.RoleOwner)
	return nil
}

func (r *fakeGroupRepo) FindByID(ctx context.Context, id string) (*repository.Group, error) {
	return r.groups[id], nil
}

func (r *fakeGroupRepo) FindByName(ctx context.Context, name string) (*repository.Group, error) {
	for _, g := range r.groups {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return nil, nil
}

func (r *fakeGroupRepo) FindAll(ctx context.Context, f *repository.GroupFilters) ([]*repository.Group, int, error) {
	var out []*repository.Group
	for _, g := range r.groups {
		if f.NameContains != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(f.NameContains)) {
			continue
		}
		if f.Visibility != "" && g.Visibility != f.Visibility {
			continue
		}
		if f.ExcludePrivate && g.Visibility == types.VisibilityPrivate {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (r *fakeGroupRepo) Update(ctx context.Context, group *repository.Group) error {
	if _, ok := r.groups[group.ID]; !ok {
		return errors.New("group not found")
	}
	group.UpdatedAt = time.Now()
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) AddMember(ctx context.Context, member *repository.GroupMember) error {
	key := memberKey(member.GroupID, member.UserID)
	if existing, ok := r.members[key]; ok {
		member.ID = existing.ID
		member.JoinedAt = existing.JoinedAt
		return nil
	}
	member.ID = r.nextID("gm")
	member.JoinedAt = time.Now()
	r.members[key] = member
	return nil
}

func (r *fakeGroupRepo) FindMember(ctx context.Context, groupID, userID string) (*repository.GroupMember, error) {
	return r.members[memberKey(groupID, userID)], nil
}

func (r *fakeGroupRepo) FindMembers(ctx context.Context, f *repository.MemberFilters) ([]*repository.GroupMember, int, error) {
	var out []*repository.GroupMember
	for _, m := range r.members {
		if m.GroupID != f.GroupID {
			continue
		}
		if f.Role != "" && m.Role != f.Role {
			continue
		}
		if f.Username != "" && (m.User == nil || m.User.Username != f.Username) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (r *fakeGroupRepo) UpdateMemberRole(ctx context.Context, groupID, userID, role string) error {
	member, ok := r.members[memberKey(groupID, userID)]
	if !ok {
		return errors.New("member not found")
	}
	member.Role = role
	return nil
}

func (r *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	delete(r.members, memberKey(groupID, userID))
	return nil
}

func (r *fakeGroupRepo) CountMembers(ctx context.Context, groupID string) (int, error) {
	count := 0
	for _, m := range r.members {
		if m.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (r *fakeGroupRepo) FindModeratorUserIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	for _, m := range r.members {
		if m.GroupID == groupID && roleLevel(m.Role) >= roleLevel(types.RoleModerator) {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (r *fakeGroupRepo) CreateRequest(ctx context.Context, request *repository.MemberRequest) error {
	for _, existing := range r.requests {
		if existing.GroupID == request.GroupID && existing.UserID == request.UserID && existing.Status == types.RequestPending {
			return errors.New("duplicate pending request")
		}
	}
	request.ID = r.nextID("req")
	request.Status = types.RequestPending
	request.CreatedAt = time.Now()
	r.requests[request.ID] = request
	return nil
}

func (r *fakeGroupRepo) FindRequestByID(ctx context.Context, id string) (*repository.MemberRequest, error) {
	return r.requests[id], nil
}

func (r *fakeGroupRepo) FindRequests(ctx context.Context, f *repository.RequestFilters) ([]*repository.MemberRequest, int, error) {
	var out []*repository.MemberRequest
	for _, req := range r.requests {
		if req.GroupID != f.GroupID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.OnlyUserID != "" && req.UserID != f.OnlyUserID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (r *fakeGroupRepo) decideRequest(requestID, reviewerID, status string) (*repository.MemberRequest, error) {
	request, ok := r.requests[requestID]
	if !ok {
		return nil, repository.ErrNotPending
	}
	if request.Status != types.RequestPending {
		return nil, repository.ErrNotPending
	}
	now := time.Now()
	request.Status = status
	request.ReviewedBy = &reviewerID
	request.ReviewedAt = &now
	return request, nil
}

func (r *fakeGroupRepo) ApproveRequest(ctx context.Context, requestID, reviewerID string) (*repository.MemberRequest, error) {
	request, err := r.decideRequest(requestID, reviewerID, types.RequestApproved)
	if err != nil {
		return nil, err
	}
	r.AddMember(ctx, &repository.GroupMember{
		GroupID: request.GroupID,
		UserID:  request.UserID,
		Role:    types.RoleMember,
	})
	return request, nil
}

func (r *fakeGroupRepo) RejectRequest(ctx context.Context, requestID, reviewerID string) (*repository.MemberRequest, error) {
	return r.decideRequest(requestID, reviewerID, types.RequestRejected)
}

// ============================================
// User repo fake
// ============================================

type fakeUserRepo struct {
	users map[string]*repository.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*repository.User)}
}

func (r *fakeUserRepo) addUser(id, username, email string) *repository.User {
	user := &repository.User{ID: id, Username: username, Email: email}
	r.users[id] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	user.ID = fmt.Sprintf("u-%d", len(r.users)+1)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*repository.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *repository.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	return nil, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	return nil
}

func (r *fakeUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	return 0, nil
}
