package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory collaborators for the flow tests. memTokenStore honors the same
// contract as the SQL repository: singleton upserts are atomic under the
// mutex and absence is a nil record.

type memTokenStore struct {
	mu   sync.Mutex
	rows []Token
}

func (s *memTokenStore) FindByUserAndPurpose(_ context.Context, userID uuid.UUID, purpose Purpose) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].Purpose == purpose {
			t := s.rows[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (s *memTokenStore) FindByValue(_ context.Context, value string, purpose Purpose) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].Value == value && s.rows[i].Purpose == purpose {
			t := s.rows[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (s *memTokenStore) UpsertSingleton(_ context.Context, userID uuid.UUID, purpose Purpose, value string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].Purpose == purpose {
			s.rows[i].Value = value
			s.rows[i].ExpiresAt = expiresAt
			return nil
		}
	}
	s.rows = append(s.rows, Token{UserID: userID, Purpose: purpose, Value: value, ExpiresAt: expiresAt})
	return nil
}

func (s *memTokenStore) InsertSession(_ context.Context, userID uuid.UUID, purpose Purpose, value string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Token{UserID: userID, Purpose: purpose, Value: value, ExpiresAt: expiresAt})
	return nil
}

func (s *memTokenStore) DeleteByValue(_ context.Context, value string, purpose Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.rows[:0]
	for _, r := range s.rows {
		if !(r.Value == value && r.Purpose == purpose) {
			out = append(out, r)
		}
	}
	s.rows = out
	return nil
}

func (s *memTokenStore) DeleteByUserAndPurpose(_ context.Context, userID uuid.UUID, purpose Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.rows[:0]
	for _, r := range s.rows {
		if !(r.UserID == userID && r.Purpose == purpose) {
			out = append(out, r)
		}
	}
	s.rows = out
	return nil
}

func (s *memTokenStore) count(userID uuid.UUID, purpose Purpose) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.UserID == userID && r.Purpose == purpose {
			n++
		}
	}
	return n
}

type memDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
}

func newMemDirectory(users ...*User) *memDirectory {
	d := &memDirectory{users: make(map[uuid.UUID]*User)}
	for _, u := range users {
		cp := *u
		d.users[u.ID] = &cp
	}
	return d
}

func (d *memDirectory) FindByEmail(_ context.Context, email string) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *memDirectory) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (d *memDirectory) UpdateCredential(_ context.Context, id uuid.UUID, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (d *memDirectory) UpdateVerificationState(_ context.Context, id uuid.UUID, state VerificationState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		u.Verified = state.Verified
		u.PendingCode = state.PendingCode
		u.CodeExpiresAt = state.CodeExpiresAt
	}
	return nil
}

// memAtomic serializes units of work against the shared fakes.
type memAtomic struct {
	mu     sync.Mutex
	users  UserDirectory
	tokens TokenStore
}

func (a *memAtomic) Within(_ context.Context, fn func(users UserDirectory, tokens TokenStore) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(a.users, a.tokens)
}

type sentEmail struct {
	Address  string
	Template string
	Payload  map[string]string
}

// recordingNotifier captures dispatch attempts; delivery itself is
// out-of-band and not asserted on.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (n *recordingNotifier) Send(_ context.Context, address, template string, payload map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{Address: address, Template: template, Payload: payload})
	return nil
}

func (n *recordingNotifier) last() sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentEmail{}
	}
	return n.sent[len(n.sent)-1]
}
