package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/service/session"
)

var (
	// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type userLookup interface {
	GetByName(ctx context.Context, name string) (*domain.User, error)
}

// Service handles login, logout and the logged-in check over the session record.
type Service struct {
	users  userLookup
	guard  *session.Guard
	newID  session.IDIssuer
	logger *zap.Logger
}

// New creates a Service issuing session ids from the system CSPRNG.
func New(users userLookup, guard *session.Guard, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:  users,
		guard:  guard,
		newID:  session.NewSessionID,
		logger: logger,
	}
}

// Login verifies the credentials and returns the record stamped with the user
// id and a fresh session id. A validated inbound cart is carried over; an
// invalid one is dropped.
func (s *Service) Login(ctx context.Context, rec domain.SessionRecord, name, password string) (domain.SessionRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return domain.SessionRecord{}, fmt.Errorf("%w: name and password required", domain.ErrInvalidInput)
	}

	u, err := s.users.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			CheckPassword(password, decoyHash())
			s.logger.Info("login rejected", zap.String("reason", "unknown user"))
			return domain.SessionRecord{}, ErrInvalidCredentials
		}
		return domain.SessionRecord{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(password, u.Password) {
		s.logger.Info("login rejected", zap.String("reason", "password mismatch"), zap.Int64("user_id", u.ID))
		return domain.SessionRecord{}, ErrInvalidCredentials
	}

	sid, err := s.newID()
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("issue session id: %w", err)
	}

	base, ok := s.guard.Validate(rec)
	if !ok {
		base = domain.AnonymousSession()
	}
	out := base.Clone()
	uid := u.ID
	out.UserID = &uid
	out.SessionID = sid
	out.Message = ""
	s.logger.Info("login succeeded", zap.Int64("user_id", u.ID), zap.Int("cart_items", len(out.OrderItems)))
	return s.guard.Secure(out), nil
}

// Logout returns the anonymous record; the cart is discarded with the identity.
func (s *Service) Logout() domain.SessionRecord {
	return domain.AnonymousSession()
}

// IsLoggedIn returns the record when it validates and carries a user id. The
// unsigned message is dropped.
func (s *Service) IsLoggedIn(rec domain.SessionRecord) (domain.SessionRecord, bool) {
	valid, ok := s.guard.Validate(rec)
	if !ok || valid.IsAnonymous() {
		return domain.AnonymousSession(), false
	}
	valid.Message = ""
	return valid, true
}
