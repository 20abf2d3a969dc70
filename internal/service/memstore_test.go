package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
)

// memData is the shared state behind memStore. Every access takes mu; row
// locks taken through LockByID and ShareLockByID are held until the owning
// transaction ends, and a failed transaction replays its undo log.
type memData struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*sync.RWMutex

	roles    map[uuid.UUID]model.Role
	admins   map[uuid.UUID]model.Admin
	policy   *model.SecurityPolicy
	attempts []model.LoginAttempt
	logs     []model.ActivityLog
}

// memTx tracks the row locks and undo steps of one transaction.
type memTx struct {
	exclusive map[uuid.UUID]*sync.RWMutex
	shared    map[uuid.UUID]*sync.RWMutex
	undo      []func()
}

type memStore struct {
	data *memData
	tx   *memTx
}

func newMemStore() *memStore {
	policy := model.DefaultSecurityPolicy()
	return &memStore{data: &memData{
		rows:   map[uuid.UUID]*sync.RWMutex{},
		roles:  map[uuid.UUID]model.Role{},
		admins: map[uuid.UUID]model.Admin{},
		policy: &policy,
	}}
}

func (s *memStore) Roles() repository.RoleRepository                 { return memRoles{s.data, s.tx} }
func (s *memStore) Admins() repository.AdminRepository               { return memAdmins{s.data, s.tx} }
func (s *memStore) Policies() repository.PolicyRepository            { return memPolicies{s.data, s.tx} }
func (s *memStore) LoginAttempts() repository.LoginAttemptRepository { return memAttempts{s.data, s.tx} }
func (s *memStore) ActivityLogs() repository.ActivityLogRepository   { return memLogs{s.data, s.tx} }

func (s *memStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx := &memTx{
		exclusive: map[uuid.UUID]*sync.RWMutex{},
		shared:    map[uuid.UUID]*sync.RWMutex{},
	}
	defer tx.release()

	err := fn(&memStore{data: s.data, tx: tx})
	if err != nil {
		s.data.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.data.mu.Unlock()
	}
	return err
}

// row returns the lock guarding id, creating it on first use.
func (d *memData) row(id uuid.UUID) *sync.RWMutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.rows[id]
	if !ok {
		l = &sync.RWMutex{}
		d.rows[id] = l
	}
	return l
}

// lock takes an exclusive row lock for the rest of tx; outside a
// transaction it is a no-op, like a bare SELECT ... FOR UPDATE.
func (tx *memTx) lock(d *memData, id uuid.UUID) {
	if tx == nil {
		return
	}
	if _, ok := tx.exclusive[id]; ok {
		return
	}
	l := d.row(id)
	if _, ok := tx.shared[id]; ok {
		l.RUnlock()
		delete(tx.shared, id)
	}
	l.Lock()
	tx.exclusive[id] = l
}

func (tx *memTx) shareLock(d *memData, id uuid.UUID) {
	if tx == nil {
		return
	}
	if _, ok := tx.exclusive[id]; ok {
		return
	}
	if _, ok := tx.shared[id]; ok {
		return
	}
	l := d.row(id)
	l.RLock()
	tx.shared[id] = l
}

func (tx *memTx) release() {
	for _, l := range tx.exclusive {
		l.Unlock()
	}
	for _, l := range tx.shared {
		l.RUnlock()
	}
}

// onRollback records an undo step; callers hold d.mu.
func (tx *memTx) onRollback(fn func()) {
	if tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

func cloneStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	return append(pq.StringArray{}, in...)
}

func stamp(base *model.BaseModel) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	now := time.Now()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func paginate[T any](items []T, p repository.Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// roles

type memRoles struct {
	d  *memData
	tx *memTx
}

func (r memRoles) FindAll(ctx context.Context, filter repository.RoleFilter) ([]model.Role, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []model.Role
	for _, role := range r.d.roles {
		if filter.Search != "" && !strings.Contains(strings.ToLower(role.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.SystemRole != nil && role.IsSystemRole != *filter.SystemRole {
			continue
		}
		role.Permissions = cloneStrings(role.Permissions)
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memRoles) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	role, ok := r.d.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	role.Permissions = cloneStrings(role.Permissions)
	return &role, nil
}

func (r memRoles) FindByName(ctx context.Context, name string) (*model.Role, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	key := model.RoleNameKey(name)
	for _, role := range r.d.roles {
		if role.NameKey == key {
			role.Permissions = cloneStrings(role.Permissions)
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memRoles) LockByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	r.tx.lock(r.d, id)
	return r.FindByID(ctx, id)
}

func (r memRoles) ShareLockByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	r.tx.shareLock(r.d, id)
	return r.FindByID(ctx, id)
}

func (r memRoles) Create(ctx context.Context, role *model.Role) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	role.NameKey = model.RoleNameKey(role.Name)
	for _, existing := range r.d.roles {
		if existing.NameKey == role.NameKey {
			return repository.ErrDuplicateKey
		}
	}
	stamp(&role.BaseModel)
	r.put(role)
	return nil
}

func (r memRoles) Update(ctx context.Context, role *model.Role) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	role.NameKey = model.RoleNameKey(role.Name)
	for id, existing := range r.d.roles {
		if id != role.ID && existing.NameKey == role.NameKey {
			return repository.ErrDuplicateKey
		}
	}
	stamp(&role.BaseModel)
	r.put(role)
	return nil
}

func (r memRoles) Delete(ctx context.Context, id uuid.UUID) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	prev, ok := r.d.roles[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.d.roles, id)
	r.tx.onRollback(func() { r.d.roles[id] = prev })
	return nil
}

// put stores role and records how to undo it; callers hold d.mu.
func (r memRoles) put(role *model.Role) {
	prev, existed := r.d.roles[role.ID]
	stored := *role
	stored.Permissions = cloneStrings(role.Permissions)
	r.d.roles[role.ID] = stored
	id := role.ID
	r.tx.onRollback(func() {
		if existed {
			r.d.roles[id] = prev
		} else {
			delete(r.d.roles, id)
		}
	})
}

func (r memRoles) SeedDefaults(ctx context.Context) error {
	for _, def := range model.DefaultRoles {
		if _, err := r.FindByName(ctx, def.Name); err == nil {
			continue
		}
		role := def
		if err := r.Create(ctx, &role); err != nil {
			return err
		}
	}
	return nil
}

// admins

type memAdmins struct {
	d  *memData
	tx *memTx
}

func (r memAdmins) load(admin model.Admin) *model.Admin {
	admin.CustomPermissions = cloneStrings(admin.CustomPermissions)
	admin.Role = nil
	if admin.RoleID != nil {
		if role, ok := r.d.roles[*admin.RoleID]; ok {
			role.Permissions = cloneStrings(role.Permissions)
			admin.Role = &role
		}
	}
	return &admin
}

func (r memAdmins) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, admin := range r.d.admins {
		if admin.Email == email {
			return r.load(admin), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memAdmins) FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	admin, ok := r.d.admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.load(admin), nil
}

func (r memAdmins) FindProtected(ctx context.Context) (*model.Admin, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, admin := range r.d.admins {
		if admin.IsProtected {
			return r.load(admin), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memAdmins) LockByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	r.tx.lock(r.d, id)
	return r.FindByID(ctx, id)
}

func (r memAdmins) FindAll(ctx context.Context, filter repository.AdminFilter, p repository.Page) ([]model.Admin, int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []model.Admin
	for _, admin := range r.d.admins {
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(admin.FullName), q) && !strings.Contains(admin.Email, q) {
				continue
			}
		}
		if filter.Status != "" && admin.Status != filter.Status {
			continue
		}
		if filter.RoleID != nil && (admin.RoleID == nil || *admin.RoleID != *filter.RoleID) {
			continue
		}
		if filter.Department != "" && admin.Department != filter.Department {
			continue
		}
		out = append(out, *r.load(admin))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return paginate(out, p), int64(len(out)), nil
}

func (r memAdmins) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var n int64
	for _, admin := range r.d.admins {
		if admin.RoleID != nil && *admin.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (r memAdmins) store(admin *model.Admin, create bool) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	admin.Email = model.NormalizeEmail(admin.Email)
	for id, existing := range r.d.admins {
		if id != admin.ID && existing.Email == admin.Email {
			return repository.ErrDuplicateKey
		}
	}
	if !create {
		if _, ok := r.d.admins[admin.ID]; !ok {
			return repository.ErrNotFound
		}
	}
	stamp(&admin.BaseModel)
	stored := *admin
	stored.Role = nil
	stored.CustomPermissions = cloneStrings(admin.CustomPermissions)
	r.put(stored)
	return nil
}

// put stores admin and records how to undo it; callers hold d.mu.
func (r memAdmins) put(admin model.Admin) {
	prev, existed := r.d.admins[admin.ID]
	r.d.admins[admin.ID] = admin
	id := admin.ID
	r.tx.onRollback(func() {
		if existed {
			r.d.admins[id] = prev
		} else {
			delete(r.d.admins, id)
		}
	})
}

func (r memAdmins) Create(ctx context.Context, admin *model.Admin) error {
	return r.store(admin, true)
}

func (r memAdmins) Update(ctx context.Context, admin *model.Admin) error {
	return r.store(admin, false)
}

func (r memAdmins) Delete(ctx context.Context, id uuid.UUID) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	prev, ok := r.d.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.d.admins, id)
	r.tx.onRollback(func() { r.d.admins[id] = prev })
	return nil
}

func (r memAdmins) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	admin, ok := r.d.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	admin.LastLoginAt = &at
	r.put(admin)
	return nil
}

func (r memAdmins) SetLockedUntil(ctx context.Context, id uuid.UUID, until time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	admin, ok := r.d.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	admin.LockedUntil = &until
	r.put(admin)
	return nil
}

// policy

type memPolicies struct {
	d  *memData
	tx *memTx
}

func (r memPolicies) Get(ctx context.Context) (*model.SecurityPolicy, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	policy := *r.d.policy
	policy.IPRestrictions.AllowedIPs = cloneStrings(policy.IPRestrictions.AllowedIPs)
	policy.IPRestrictions.BlockedIPs = cloneStrings(policy.IPRestrictions.BlockedIPs)
	return &policy, nil
}

func (r memPolicies) Save(ctx context.Context, policy *model.SecurityPolicy, expectedVersion int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.policy.Version != expectedVersion {
		return repository.ErrConflict
	}
	policy.ID = model.SecurityPolicyID
	policy.Version = expectedVersion + 1
	prev := r.d.policy
	stored := *policy
	r.d.policy = &stored
	r.tx.onRollback(func() { r.d.policy = prev })
	return nil
}

func (r memPolicies) SeedDefaults(ctx context.Context) error {
	return nil
}

// login attempts

type memAttempts struct {
	d  *memData
	tx *memTx
}

func (r memAttempts) Create(ctx context.Context, attempt *model.LoginAttempt) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	r.d.attempts = append(r.d.attempts, *attempt)
	id := attempt.ID
	r.tx.onRollback(func() {
		for i, a := range r.d.attempts {
			if a.ID == id {
				r.d.attempts = append(r.d.attempts[:i], r.d.attempts[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r memAttempts) CountFailuresSince(ctx context.Context, adminID uuid.UUID, since time.Time) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var n int
	for _, a := range r.d.attempts {
		if a.AdminID == nil || *a.AdminID != adminID || !a.Timestamp.After(since) || !a.CountsTowardLockout() {
			continue
		}
		n++
	}
	return n, nil
}

func (r memAttempts) KnownIPs(ctx context.Context, adminID uuid.UUID) ([]string, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	seen := map[string]bool{}
	var ips []string
	for _, a := range r.d.attempts {
		if a.AdminID != nil && *a.AdminID == adminID && a.Success && !seen[a.IPAddress] {
			seen[a.IPAddress] = true
			ips = append(ips, a.IPAddress)
		}
	}
	return ips, nil
}

func (r memAttempts) FindAll(ctx context.Context, filter repository.LoginAttemptFilter, p repository.Page) ([]model.LoginAttempt, int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []model.LoginAttempt
	for i := len(r.d.attempts) - 1; i >= 0; i-- {
		a := r.d.attempts[i]
		if filter.AdminID != nil && (a.AdminID == nil || *a.AdminID != *filter.AdminID) {
			continue
		}
		if filter.Success != nil && a.Success != *filter.Success {
			continue
		}
		if filter.Suspicious != nil && a.Suspicious != *filter.Suspicious {
			continue
		}
		out = append(out, a)
	}
	return paginate(out, p), int64(len(out)), nil
}

// activity logs

type memLogs struct {
	d  *memData
	tx *memTx
}

func (r memLogs) Create(ctx context.Context, entry *model.ActivityLog) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.d.logs = append(r.d.logs, *entry)
	id := entry.ID
	r.tx.onRollback(func() {
		for i, l := range r.d.logs {
			if l.ID == id {
				r.d.logs = append(r.d.logs[:i], r.d.logs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r memLogs) FindAll(ctx context.Context, filter repository.ActivityLogFilter, p repository.Page) ([]model.ActivityLog, int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []model.ActivityLog
	for i := len(r.d.logs) - 1; i >= 0; i-- {
		l := r.d.logs[i]
		if filter.ActionType != "" && l.ActionType != filter.ActionType {
			continue
		}
		if filter.PerformedBy != nil && (l.PerformedBy == nil || *l.PerformedBy != *filter.PerformedBy) {
			continue
		}
		out = append(out, l)
	}
	return paginate(out, p), int64(len(out)), nil
}

func (d *memData) countLogs(action model.ActionType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, l := range d.logs {
		if l.ActionType == action {
			n++
		}
	}
	return n
}

func (d *memData) allAttempts() []model.LoginAttempt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.LoginAttempt(nil), d.attempts...)
}
