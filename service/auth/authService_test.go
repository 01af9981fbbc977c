package authsvc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookswap/model"
	authrepo "bookswap/repository/auth"
	"bookswap/util/hash"
	jwtutil "bookswap/util/jwt"
)

type mockRepo struct {
	byEmailFn              func(ctx context.Context, email string) (*model.User, error)
	byIDFn                 func(ctx context.Context, id int64) (*model.User, error)
	upsertUnverifiedFn     func(ctx context.Context, email, name, otp string, otpExpiresAt time.Time) (*model.User, error)
	completeVerificationFn func(ctx context.Context, email, otp, passwordHash string, now time.Time) (*model.User, error)
	insertRefreshFn        func(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	refreshTokenUserFn     func(ctx context.Context, token string, now time.Time) (int64, error)
	deleteRefreshFn        func(ctx context.Context, token string) (bool, error)
}

var _ authrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, nil
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, nil
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) UpsertUnverified(ctx context.Context, email, name, otp string, otpExpiresAt time.Time) (*model.User, error) {
	if m.upsertUnverifiedFn == nil {
		return nil, nil
	}
	return m.upsertUnverifiedFn(ctx, email, name, otp, otpExpiresAt)
}

func (m *mockRepo) CompleteVerification(ctx context.Context, email, otp, passwordHash string, now time.Time) (*model.User, error) {
	if m.completeVerificationFn == nil {
		return nil, nil
	}
	return m.completeVerificationFn(ctx, email, otp, passwordHash, now)
}

func (m *mockRepo) InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if m.insertRefreshFn == nil {
		return nil
	}
	return m.insertRefreshFn(ctx, userID, token, expiresAt)
}

func (m *mockRepo) RefreshTokenUser(ctx context.Context, token string, now time.Time) (int64, error) {
	if m.refreshTokenUserFn == nil {
		return 0, nil
	}
	return m.refreshTokenUserFn(ctx, token, now)
}

func (m *mockRepo) DeleteRefreshToken(ctx context.Context, token string) (bool, error) {
	if m.deleteRefreshFn == nil {
		return false, nil
	}
	return m.deleteRefreshFn(ctx, token)
}

func (m *mockRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type mockMailer struct {
	sendOTPFn func(ctx context.Context, email, name, otp string) error
	lastName  string
	lastOTP   string
}

func (m *mockMailer) SendOTP(ctx context.Context, email, name, otp string) error {
	m.lastName = name
	m.lastOTP = otp
	if m.sendOTPFn == nil {
		return nil
	}
	return m.sendOTPFn(ctx, email, name, otp)
}

func newSvc(r authrepo.Repo, mail OTPMailer) Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(r, mail, "test-secret", log)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestSignup_Success(t *testing.T) {
	ctx := context.Background()
	mail := &mockMailer{}
	m := &mockRepo{
		upsertUnverifiedFn: func(ctx context.Context, email, name, otp string, otpExpiresAt time.Time) (*model.User, error) {
			require.Equal(t, "user@example.com", email)
			require.Equal(t, "Reader", name)
			require.Len(t, otp, 6)
			return &model.User{ID: 42, Email: email, Name: name}, nil
		},
	}
	svc := newSvc(m, mail)

	expiresAt, err := svc.Signup(ctx, model.SignupReq{
		Email: "USER@Example.COM ",
		Name:  " Reader ",
	})
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))
	require.Len(t, mail.lastOTP, 6)
	require.Equal(t, "Reader", mail.lastName)
}

func TestSignup_EmailTaken(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		upsertUnverifiedFn: func(ctx context.Context, email, name, otp string, otpExpiresAt time.Time) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	_, err := svc.Signup(ctx, model.SignupReq{Email: "taken@example.com", Name: "X"})
	require.Error(t, err)
	require.Equal(t, ErrEmailTaken, Code(err))
}

func TestSignup_MailFailure(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		upsertUnverifiedFn: func(ctx context.Context, email, name, otp string, otpExpiresAt time.Time) (*model.User, error) {
			return &model.User{ID: 1, Email: email}, nil
		},
	}
	mail := &mockMailer{
		sendOTPFn: func(ctx context.Context, email, name, otp string) error {
			return errors.New("smtp down")
		},
	}
	svc := newSvc(m, mail)

	_, err := svc.Signup(ctx, model.SignupReq{Email: "x@example.com", Name: "X"})
	require.Error(t, err)
	require.Equal(t, ErrMailFailed, Code(err))
}

func TestVerifyOTP_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		completeVerificationFn: func(ctx context.Context, email, otp, passwordHash string, now time.Time) (*model.User, error) {
			require.Equal(t, "user@example.com", email)
			require.Equal(t, "123456", otp)
			require.NotEmpty(t, passwordHash)
			return &model.User{ID: 7, Email: email, IsVerified: true}, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	u, pair, err := svc.VerifyOTP(ctx, model.VerifyOTPReq{
		Email:    "user@example.com",
		OTP:      "123456",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.True(t, u.IsVerified)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// Both tokens carry the right subject and type.
	uid, err := jwtutil.Parse(pair.AccessToken, "test-secret", jwtutil.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, int64(7), uid)
	uid, err = jwtutil.Parse(pair.RefreshToken, "test-secret", jwtutil.TypeRefresh)
	require.NoError(t, err)
	require.Equal(t, int64(7), uid)
}

func TestVerifyOTP_Invalid(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		completeVerificationFn: func(ctx context.Context, email, otp, passwordHash string, now time.Time) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	_, _, err := svc.VerifyOTP(ctx, model.VerifyOTPReq{
		Email:    "user@example.com",
		OTP:      "000000",
		Password: "supersecret",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidOTP, Code(err))
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "supersecret")
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: "user@example.com", PasswordHash: hashed, IsVerified: true}, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	u, pair, err := svc.Login(ctx, model.LoginReq{Email: "user@example.com", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestLogin_UserNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newSvc(&mockRepo{}, &mockMailer{})

	_, _, err := svc.Login(ctx, model.LoginReq{Email: "missing@example.com", Password: "x"})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_NotVerified(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, IsVerified: false}, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	_, _, err := svc.Login(ctx, model.LoginReq{Email: "user@example.com", Password: "x"})
	require.Error(t, err)
	require.Equal(t, ErrNotVerified, Code(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "correct-password")
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, PasswordHash: hashed, IsVerified: true}, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	_, _, err := svc.Login(ctx, model.LoginReq{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestRefresh_RotatesToken(t *testing.T) {
	ctx := context.Background()

	refresh, err := jwtutil.Issue("test-secret", 7, jwtutil.TypeRefresh, time.Hour)
	require.NoError(t, err)

	var deleted string
	m := &mockRepo{
		refreshTokenUserFn: func(ctx context.Context, token string, now time.Time) (int64, error) {
			require.Equal(t, refresh, token)
			return 7, nil
		},
		deleteRefreshFn: func(ctx context.Context, token string) (bool, error) {
			deleted = token
			return true, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	pair, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, refresh, deleted)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEqual(t, refresh, pair.RefreshToken)
}

func TestRefresh_UnknownToken(t *testing.T) {
	ctx := context.Background()

	refresh, err := jwtutil.Issue("test-secret", 7, jwtutil.TypeRefresh, time.Hour)
	require.NoError(t, err)

	m := &mockRepo{
		refreshTokenUserFn: func(ctx context.Context, token string, now time.Time) (int64, error) {
			return 0, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	_, err = svc.Refresh(ctx, refresh)
	require.Error(t, err)
	require.Equal(t, ErrInvalidRefresh, Code(err))
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	ctx := context.Background()

	access, err := jwtutil.Issue("test-secret", 7, jwtutil.TypeAccess, time.Hour)
	require.NoError(t, err)

	svc := newSvc(&mockRepo{}, &mockMailer{})

	_, err = svc.Refresh(ctx, access)
	require.Error(t, err)
	require.Equal(t, ErrInvalidRefresh, Code(err))
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id != 7 {
				return nil, nil
			}
			return &model.User{ID: 7, Email: "user@example.com"}, nil
		},
	}
	svc := newSvc(m, &mockMailer{})

	u, err := svc.Profile(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)

	_, err = svc.Profile(ctx, 8)
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}
