package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"adespota/internal/config"
	"adespota/internal/domain"
	"adespota/pkg/e"
)

const invalidCredentials = "invalid email or password"

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Auth is the identity provider: bcrypt password hashes and HS256 session tokens.
type Auth struct {
	users        UserStore
	revoker      TokenRevoker
	verification VerificationService
	logger       *slog.Logger

	secret []byte
	issuer string
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

type AuthOption func(*Auth)

func WithBcryptCost(cost int) AuthOption {
	return func(a *Auth) { a.cost = cost }
}

func WithAuthClock(now func() time.Time) AuthOption {
	return func(a *Auth) { a.now = now }
}

func NewAuthService(
	cfg config.AuthConfig,
	users UserStore,
	revoker TokenRevoker,
	verification VerificationService,
	logger *slog.Logger,
	opts ...AuthOption,
) *Auth {
	a := &Auth{
		users:        users,
		revoker:      revoker,
		verification: verification,
		logger:       logger,
		secret:       []byte(cfg.JWTSecret),
		issuer:       cfg.Issuer,
		ttl:          cfg.TokenTTL,
		cost:         bcrypt.DefaultCost,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SignUp creates the account, signs it in and starts email verification.
// A verification start failure does not undo the signup.
func (a *Auth) SignUp(ctx context.Context, req domain.SignUpRequest) (domain.AuthResponse, error) {
	const op = "service.Auth.SignUp"

	if err := req.Check(); err != nil {
		return domain.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return domain.AuthResponse{}, e.Wrap(op, err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hash),
	}
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, e.ErrUniqueViolation) {
			return domain.AuthResponse{}, &domain.AuthError{Reason: "email already registered", Err: err}
		}
		return domain.AuthResponse{}, &domain.StoreError{Op: "users.create", Err: err}
	}

	sess, err := a.issue(user)
	if err != nil {
		return domain.AuthResponse{}, e.Wrap(op, err)
	}

	resp := domain.AuthResponse{Session: sess}
	status, err := a.verification.Begin(ctx, sess)
	if err != nil {
		a.logger.Warn("verification start failed after signup",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
		return resp, nil
	}
	resp.Verification = &status
	return resp, nil
}

func (a *Auth) SignIn(ctx context.Context, req domain.SignInRequest) (*domain.Session, error) {
	const op = "service.Auth.SignIn"

	if err := req.Check(); err != nil {
		return nil, err
	}

	user, err := a.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, &domain.AuthError{Reason: invalidCredentials}
		}
		return nil, &domain.StoreError{Op: "users.get", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &domain.AuthError{Reason: invalidCredentials}
	}

	sess, err := a.issue(user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	a.logger.Info("user signed in", slog.String("user_id", user.ID.String()))
	return sess, nil
}

// SignOut revokes the session token until it would have expired.
func (a *Auth) SignOut(ctx context.Context, sess *domain.Session) error {
	if !sess.Authenticated() {
		return domain.NewValidationError(domain.KindNotAuthenticated, "You are not signed in")
	}
	if err := a.revoker.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return e.Wrap("service.Auth.SignOut", err)
	}
	return nil
}

// Authenticate resolves a bearer token into the session it was issued for.
func (a *Auth) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, &domain.AuthError{Reason: "invalid token", Err: err}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, &domain.AuthError{Reason: "invalid token subject", Err: err}
	}

	revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, e.Wrap("service.Auth.Authenticate", err)
	}
	if revoked {
		return nil, &domain.AuthError{Reason: "session ended"}
	}

	return &domain.Session{
		Token:     token,
		TokenID:   claims.ID,
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (a *Auth) issue(user *domain.User) (*domain.Session, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	jti := uuid.NewString()

	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    a.issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		Token:     signed,
		TokenID:   jti,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: exp.Truncate(time.Second),
	}, nil
}
