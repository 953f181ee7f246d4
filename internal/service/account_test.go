package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

// fakeUsers enforces email uniqueness like the real store.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*domain.User)}
}

func (f *fakeUsers) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) Get(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, token string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessions) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessions) DeleteExpired(ctx context.Context, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, token)
		}
	}
	return nil
}

// fakeOTP issues a fixed code and consumes it on verify.
type fakeOTP struct {
	issued map[string]string
}

func newFakeOTP() *fakeOTP {
	return &fakeOTP{issued: make(map[string]string)}
}

func (f *fakeOTP) Issue(ctx context.Context, email, code string) error {
	f.issued[email] = code
	return nil
}

func (f *fakeOTP) Verify(ctx context.Context, email, code string) error {
	stored, ok := f.issued[email]
	if !ok || stored != code {
		return domain.ErrInvalidOTP
	}
	delete(f.issued, email)
	return nil
}

func newTestAccounts() (*AccountService, *fakeUsers, *fakeSessions, *fakeOTP) {
	users := newFakeUsers()
	sessions := newFakeSessions()
	otp := newFakeOTP()
	svc := NewAccountService(users, sessions, otp, nil, nil, nil)
	return svc, users, sessions, otp
}

func TestSignup_OpensSession(t *testing.T) {
	svc, users, sessions, _ := newTestAccounts()

	user, session, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.False(t, user.IsAdmin)

	require.NotNil(t, session)
	assert.Equal(t, user.ID, session.UserID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	_, err = users.Get(context.Background(), user.ID)
	assert.NoError(t, err)
	_, err = sessions.Get(context.Background(), session.Token)
	assert.NoError(t, err)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestAccounts()

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "First", Email: "a@b.com", Password: "password1",
	})
	require.NoError(t, err)

	_, _, err = svc.Signup(context.Background(), SignupInput{
		Name: "Second", Email: "a@b.com", Password: "password2",
	})
	assert.True(t, domain.IsCode(err, domain.ECONFLICT))
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newTestAccounts()
	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "Asha", Email: "a@b.com", Password: "password1",
	})
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		user, session, err := svc.Login(context.Background(), "a@b.com", "password1")
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", user.Email)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "a@b.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email looks the same as wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "nobody@b.com", "password1")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestOTPFlow(t *testing.T) {
	svc, _, _, otp := newTestAccounts()
	_, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "Asha", Email: "a@b.com", Password: "password1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RequestOTP(context.Background(), "a@b.com"))
	code := otp.issued["a@b.com"]
	require.Len(t, code, 6)

	user, session, err := svc.VerifyOTP(context.Background(), "a@b.com", code)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.NotEmpty(t, session.Token)

	// Codes are single use
	_, _, err = svc.VerifyOTP(context.Background(), "a@b.com", code)
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestRequestOTP_UnknownEmailIsSilent(t *testing.T) {
	svc, _, _, otp := newTestAccounts()

	err := svc.RequestOTP(context.Background(), "nobody@b.com")
	assert.NoError(t, err)
	assert.Empty(t, otp.issued)
}

func TestAuthenticate(t *testing.T) {
	svc, _, sessions, _ := newTestAccounts()
	signed, session, err := svc.Signup(context.Background(), SignupInput{
		Name: "Asha", Email: "a@b.com", Password: "password1",
	})
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, signed.ID, user.ID)

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "bogus")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("expired session is rejected and removed", func(t *testing.T) {
		sessions.sessions[session.Token].ExpiresAt = time.Now().Add(-time.Minute)
		_, err := svc.Authenticate(context.Background(), session.Token)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		_, ok := sessions.sessions[session.Token]
		assert.False(t, ok)
	})
}

func TestLogout(t *testing.T) {
	svc, _, sessions, _ := newTestAccounts()
	_, session, err := svc.Signup(context.Background(), SignupInput{
		Name: "Asha", Email: "a@b.com", Password: "password1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.Token))
	_, ok := sessions.sessions[session.Token]
	assert.False(t, ok)

	// Logging out twice is fine
	assert.NoError(t, svc.Logout(context.Background(), session.Token))
}
