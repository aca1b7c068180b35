package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go-storefront/internal/domain"
)

// memKV is an in-memory stand-in for the shared key-value store. It
// satisfies both AttemptStore and cache.KV.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	expires map[string]time.Time

	getErr  error
	incrErr error
	setErr  error

	incrCalls   int
	expireCalls int
	delCalls    int
	setCalls    int
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, expires: map[string]time.Time{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if exp, ok := m.expires[key]; ok && time.Now().After(exp) {
		delete(m.data, key)
		delete(m.expires, key)
	}
	b, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	}
	return nil
}

func (m *memKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrCalls++
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireCalls++
	m.expires[key] = time.Now().Add(ttl)
	return nil
}

func (m *memKV) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delCalls++
	delete(m.data, key)
	delete(m.expires, key)
	return nil
}

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *memKV) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *memKV) put(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
}

// stubUserRepo is an in-memory domain.UserRepository keyed by email.
type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	findErr   error
	createErr error
	writes    int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]*domain.User{}}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.users[u.Email]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	r.users[u.Email] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	return cloneUser(r.users[email]), nil
}

func (r *stubUserRepo) List(_ context.Context, _ string, _, _ int) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

// stubProductRepo serves canned products and counts loads.
type stubProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	findErr  error
	loads    int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: map[int64]*domain.Product{}}
}

func (r *stubProductRepo) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *stubProductRepo) Featured(_ context.Context, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	var out []domain.Product
	for _, p := range r.products {
		if p.IsFeatured && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Popular(_ context.Context, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	var out []domain.Product
	for _, p := range r.products {
		if len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}
