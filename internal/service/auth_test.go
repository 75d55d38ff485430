package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"adespota/internal/config"
	"adespota/internal/domain"
	"adespota/internal/service"
	"adespota/pkg/e"
	"adespota/pkg/logger"

	mock_service "adespota/internal/service/mocks"
)

// --- helpers ---

func mustTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 12, 23, 12, 0, 0, 0, time.UTC)
}

func authConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret: "0123456789abcdef0123",
		TokenTTL:  time.Hour,
		Issuer:    "adespota-test",
	}
}

type authDeps struct {
	users   *mock_service.MockUserStore
	revoker *mock_service.MockTokenRevoker
	verif   *mock_service.MockVerificationService
}

func newAuth(t *testing.T, now time.Time) (*service.Auth, authDeps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := authDeps{
		users:   mock_service.NewMockUserStore(ctrl),
		revoker: mock_service.NewMockTokenRevoker(ctrl),
		verif:   mock_service.NewMockVerificationService(ctrl),
	}
	a := service.NewAuthService(authConfig(), d.users, d.revoker, d.verif, logger.Discard(),
		service.WithBcryptCost(bcrypt.MinCost),
		service.WithAuthClock(func() time.Time { return now }),
	)
	return a, d
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func signUpReq() domain.SignUpRequest {
	return domain.SignUpRequest{
		Email:           "maria@example.gr",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		Phone:           "+306900000000",
	}
}

// --- SignUp ---

func TestAuth_SignUp_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mod  func(r *domain.SignUpRequest)
		want error
	}{
		{"missing email", func(r *domain.SignUpRequest) { r.Email = "  " }, domain.ErrMissingField},
		{"missing phone", func(r *domain.SignUpRequest) { r.Phone = "" }, domain.ErrMissingField},
		{"missing password", func(r *domain.SignUpRequest) { r.Password = ""; r.ConfirmPassword = "" }, domain.ErrMissingField},
		{"mismatch", func(r *domain.SignUpRequest) { r.ConfirmPassword = "other" }, domain.ErrPasswordMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a, _ := newAuth(t, mustTime(t))
			req := signUpReq()
			tc.mod(&req)

			_, err := a.SignUp(context.Background(), req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuth_SignUp_OK_StartsVerification(t *testing.T) {
	t.Parallel()

	now := mustTime(t)
	a, d := newAuth(t, now)
	ctx := context.Background()

	var created *domain.User
	d.users.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			created = u
			return nil
		}).
		Times(1)

	status := domain.VerificationStatus{State: "awaiting_code", Channel: domain.ChannelEmail, CooldownSeconds: 60}
	d.verif.EXPECT().
		Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sess *domain.Session) (domain.VerificationStatus, error) {
			if sess.UserID != created.ID {
				t.Fatalf("verification started for %s, user is %s", sess.UserID, created.ID)
			}
			return status, nil
		}).
		Times(1)

	resp, err := a.SignUp(ctx, signUpReq())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if created.ID == uuid.Nil || created.Phone != "+306900000000" {
		t.Fatalf("unexpected user %+v", created)
	}
	if bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("s3cret-pass")) != nil {
		t.Fatalf("password was not hashed with bcrypt")
	}
	if resp.Session == nil || resp.Session.Token == "" || !resp.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected session %+v", resp.Session)
	}
	if resp.Verification == nil || *resp.Verification != status {
		t.Fatalf("unexpected verification %+v", resp.Verification)
	}
}

func TestAuth_SignUp_EmailTaken(t *testing.T) {
	t.Parallel()

	a, d := newAuth(t, mustTime(t))

	d.users.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("postgres.Users.Create: %w", e.ErrUniqueViolation)).
		Times(1)

	_, err := a.SignUp(context.Background(), signUpReq())

	var authErr *domain.AuthError
	if !errors.As(err, &authErr) || !errors.Is(err, e.ErrUniqueViolation) {
		t.Fatalf("expected AuthError wrapping unique violation, got %v", err)
	}
}

func TestAuth_SignUp_VerificationFailureKeepsSession(t *testing.T) {
	t.Parallel()

	a, d := newAuth(t, mustTime(t))

	d.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	d.verif.EXPECT().
		Begin(gomock.Any(), gomock.Any()).
		Return(domain.VerificationStatus{}, errors.New("queue down")).
		Times(1)

	resp, err := a.SignUp(context.Background(), signUpReq())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.Session == nil || resp.Verification != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

// --- SignIn / Authenticate / SignOut ---

func TestAuth_SignIn_RoundTrip(t *testing.T) {
	t.Parallel()

	now := mustTime(t)
	a, d := newAuth(t, now)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: "maria@example.gr", PasswordHash: hashed(t, "pw-123456")}
	d.users.EXPECT().GetByEmail(gomock.Any(), "maria@example.gr").Return(user, nil).Times(1)

	sess, err := a.SignIn(ctx, domain.SignInRequest{Email: " maria@example.gr ", Password: "pw-123456"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	d.revoker.EXPECT().IsRevoked(gomock.Any(), sess.TokenID).Return(false, nil).Times(1)

	got, err := a.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.UserID != user.ID || got.Email != user.Email || got.TokenID != sess.TokenID {
		t.Fatalf("session mismatch: got %+v want %+v", got, sess)
	}
	if !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("expiry mismatch: %s vs %s", got.ExpiresAt, sess.ExpiresAt)
	}
}

func TestAuth_SignIn_InvalidCredentials(t *testing.T) {
	t.Parallel()

	a, d := newAuth(t, mustTime(t))
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: "maria@example.gr", PasswordHash: hashed(t, "right")}
	d.users.EXPECT().GetByEmail(gomock.Any(), "maria@example.gr").Return(user, nil).Times(1)
	d.users.EXPECT().GetByEmail(gomock.Any(), "ghost@example.gr").Return(nil, e.ErrNotFound).Times(1)

	var authErr *domain.AuthError
	if _, err := a.SignIn(ctx, domain.SignInRequest{Email: "maria@example.gr", Password: "wrong"}); !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError for wrong password, got %v", err)
	}
	if _, err := a.SignIn(ctx, domain.SignInRequest{Email: "ghost@example.gr", Password: "x"}); !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError for unknown email, got %v", err)
	}
	if _, err := a.SignIn(ctx, domain.SignInRequest{Email: "", Password: "x"}); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected MissingField, got %v", err)
	}
}

func TestAuth_Authenticate_Rejects(t *testing.T) {
	t.Parallel()

	now := mustTime(t)
	issuer, d := newAuth(t, now)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: "a@b.gr", PasswordHash: hashed(t, "pw")}
	d.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(user, nil).AnyTimes()

	sess, err := issuer.SignIn(ctx, domain.SignInRequest{Email: "a@b.gr", Password: "pw"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	var authErr *domain.AuthError

	t.Run("garbage", func(t *testing.T) {
		if _, err := issuer.Authenticate(ctx, "not-a-jwt"); !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later, _ := newAuth(t, now.Add(2*time.Hour))
		if _, err := later.Authenticate(ctx, sess.Token); !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		d.revoker.EXPECT().IsRevoked(gomock.Any(), sess.TokenID).Return(true, nil).Times(1)
		if _, err := issuer.Authenticate(ctx, sess.Token); !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
	})
}

func TestAuth_SignOut_RevokesTokenID(t *testing.T) {
	t.Parallel()

	a, d := newAuth(t, mustTime(t))

	sess := &domain.Session{UserID: uuid.New(), TokenID: "jti-1", ExpiresAt: mustTime(t).Add(time.Hour)}
	d.revoker.EXPECT().Revoke(gomock.Any(), "jti-1", sess.ExpiresAt).Return(nil).Times(1)

	if err := a.SignOut(context.Background(), sess); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := a.SignOut(context.Background(), nil); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected NotAuthenticated, got %v", err)
	}
}
