package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/auth"
	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/email"
	"github.com/meghkala/api/internal/telemetry"
)

const (
	sessionTTL = 7 * 24 * time.Hour
	otpDigits  = 6
)

// SignupInput carries a new account registration.
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// OTPVerifier abstracts the one-time code store (Redis in production).
type OTPVerifier interface {
	Issue(ctx context.Context, email, code string) error
	Verify(ctx context.Context, email, code string) error
}

// AccountService handles signup, password and OTP login, and sessions.
type AccountService struct {
	users    domain.UserStore
	sessions domain.SessionStore
	otp      OTPVerifier
	mail     *email.Service
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewAccountService(users domain.UserStore, sessions domain.SessionStore, otp OTPVerifier, mail *email.Service, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		users:    users,
		sessions: sessions,
		otp:      otp,
		mail:     mail,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup registers a user and opens a session.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*domain.User, *domain.Session, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, nil, domain.Invalid("account.signup", err.Error())
		}
		return nil, nil, domain.Internal(err, "account.signup", "failed to hash password")
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.Signups.Inc()
	}
	s.logger.Info("user signed up", "user_id", user.ID)

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login checks the password and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, emailAddr, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			s.countLoginFailure("password")
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		s.countLoginFailure("password")
		return nil, nil, domain.ErrInvalidCredentials
	}

	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues("password").Inc()
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// RequestOTP issues a one-time login code and emails it. An unknown email
// is reported as success so the endpoint cannot be used to probe accounts.
func (s *AccountService) RequestOTP(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	if _, err := s.users.GetByEmail(ctx, emailAddr); err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			s.logger.Info("otp requested for unknown email")
			return nil
		}
		return err
	}

	code, err := auth.GenerateOTP(otpDigits)
	if err != nil {
		return domain.Internal(err, "account.request_otp", "failed to generate code")
	}
	if err := s.otp.Issue(ctx, emailAddr, code); err != nil {
		return domain.Internal(err, "account.request_otp", "failed to store code")
	}

	if s.mail != nil {
		s.mail.SendOTP(ctx, emailAddr, code)
	}
	return nil
}

// VerifyOTP consumes a one-time code and opens a session.
func (s *AccountService) VerifyOTP(ctx context.Context, emailAddr, code string) (*domain.User, *domain.Session, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	if err := s.otp.Verify(ctx, emailAddr, code); err != nil {
		s.countLoginFailure("otp")
		return nil, nil, err
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues("otp").Inc()
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout deletes the session. Deleting an unknown token succeeds.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to its user.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, session.Token)
		return nil, domain.ErrSessionNotFound
	}
	return s.users.Get(ctx, session.UserID)
}

func (s *AccountService) openSession(ctx context.Context, userID string) (*domain.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, "account.session", "failed to generate token")
	}
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: s.now().Add(sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AccountService) countLoginFailure(method string) {
	if s.metrics != nil {
		s.metrics.LoginFailed.WithLabelValues(method).Inc()
	}
}
