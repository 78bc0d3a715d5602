package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/furniture-store/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetLoggedIn(ctx context.Context, username string, loggedIn bool) error
	UpdateProfile(ctx context.Context, username string, apply func(*model.User)) (*model.User, error)
}

type memUserRepo struct {
	mu         sync.RWMutex
	byUsername map[string]*model.User
	byEmail    map[string]string
}

func NewUserRepository() UserRepository {
	return &memUserRepo{
		byUsername: make(map[string]*model.User),
		byEmail:    make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUsername[user.Username]; ok {
		return model.ErrUserAlreadyExists
	}
	if _, ok := r.byEmail[emailKey(user.Email)]; ok {
		return model.ErrUserAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.byUsername[user.Username] = &stored
	r.byEmail[emailKey(user.Email)] = user.Username
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byUsername {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	username, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, nil
	}
	c := *r.byUsername[username]
	return &c, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

// Update replaces the stored profile. Username and email are immutable keys.
func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byUsername[user.Username]
	if !ok {
		return model.ErrUserNotFound
	}
	user.ID = existing.ID
	user.Email = existing.Email
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	stored := *user
	r.byUsername[user.Username] = &stored
	return nil
}

func (r *memUserRepo) SetLoggedIn(_ context.Context, username string, loggedIn bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byUsername[username]
	if !ok {
		return model.ErrUserNotFound
	}
	u.LoggedIn = loggedIn
	u.UpdatedAt = time.Now()
	return nil
}

// UpdateProfile runs apply on a copy of the stored user under the write lock
// and stores the result. Only the name, address and phone are taken from it.
func (r *memUserRepo) UpdateProfile(_ context.Context, username string, apply func(*model.User)) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byUsername[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	edited := *u
	apply(&edited)
	u.FullName = edited.FullName
	u.Address = edited.Address
	u.Phone = edited.Phone
	u.UpdatedAt = time.Now()
	c := *u
	return &c, nil
}
