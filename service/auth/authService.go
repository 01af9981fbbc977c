package authsvc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"bookswap/model"
	authrepo "bookswap/repository/auth"
	"bookswap/util/hash"
	jwtutil "bookswap/util/jwt"
)

// errors used by controllers

type ErrCode string

const (
	ErrEmailTaken     ErrCode = "EMAIL_TAKEN"
	ErrInvalidOTP     ErrCode = "INVALID_OTP"
	ErrInvalidCreds   ErrCode = "INVALID_CREDENTIALS"
	ErrNotVerified    ErrCode = "NOT_VERIFIED"
	ErrInvalidRefresh ErrCode = "INVALID_REFRESH"
	ErrMailFailed     ErrCode = "MAIL_FAILED"
	ErrNotFound       ErrCode = "NOT_FOUND"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

const otpTTL = 10 * time.Minute

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// OTPMailer sends the one-time verification code. Unlike the request
// notifications, a failure here fails the signup.
type OTPMailer interface {
	SendOTP(ctx context.Context, email, name, otp string) error
}

type Service interface {
	Signup(ctx context.Context, req model.SignupReq) (time.Time, error)
	VerifyOTP(ctx context.Context, req model.VerifyOTPReq) (*model.User, TokenPair, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, userID int64) (*model.User, error)
}

type service struct {
	r      authrepo.Repo
	mail   OTPMailer
	secret string
	log    *slog.Logger
}

func New(r authrepo.Repo, mail OTPMailer, secret string, log *slog.Logger) Service {
	return &service{r: r, mail: mail, secret: secret, log: log}
}

func (s *service) Signup(ctx context.Context, req model.SignupReq) (time.Time, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	otp, err := generateOTP()
	if err != nil {
		return time.Time{}, err
	}
	expiresAt := time.Now().UTC().Add(otpTTL)

	u, err := s.r.UpsertUnverified(ctx, email, name, otp, expiresAt)
	if err != nil {
		return time.Time{}, err
	}
	if u == nil {
		return time.Time{}, makeErr(ErrEmailTaken)
	}

	if err := s.mail.SendOTP(ctx, email, name, otp); err != nil {
		s.log.Error("otp email failed", "email", email, "err", err)
		return time.Time{}, makeErr(ErrMailFailed)
	}

	s.log.Info("otp sent", "email", email, "user_id", u.ID)
	return expiresAt, nil
}

func (s *service) VerifyOTP(ctx context.Context, req model.VerifyOTPReq) (*model.User, TokenPair, error) {
	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	u, err := s.r.CompleteVerification(ctx, strings.TrimSpace(req.Email), req.OTP, hashed, time.Now().UTC())
	if err != nil {
		return nil, TokenPair{}, err
	}
	if u == nil {
		return nil, TokenPair{}, makeErr(ErrInvalidOTP)
	}

	pair, err := s.issueTokens(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.log.Info("user verified", "email", u.Email, "user_id", u.ID)
	return u, pair, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, TokenPair, error) {
	u, err := s.r.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if u == nil {
		return nil, TokenPair{}, makeErr(ErrInvalidCreds)
	}
	if !u.IsVerified {
		return nil, TokenPair{}, makeErr(ErrNotVerified)
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, TokenPair{}, makeErr(ErrInvalidCreds)
	}

	pair, err := s.issueTokens(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.log.Info("user logged in", "email", u.Email, "user_id", u.ID)
	return u, pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := jwtutil.Parse(refreshToken, s.secret, jwtutil.TypeRefresh)
	if err != nil {
		return TokenPair{}, makeErr(ErrInvalidRefresh)
	}

	storedUser, err := s.r.RefreshTokenUser(ctx, refreshToken, time.Now().UTC())
	if err != nil {
		return TokenPair{}, err
	}
	if storedUser == 0 || storedUser != userID {
		return TokenPair{}, makeErr(ErrInvalidRefresh)
	}

	// Rotate: the old token is gone before the new pair exists.
	if _, err := s.r.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return TokenPair{}, err
	}
	return s.issueTokens(ctx, userID)
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.r.DeleteRefreshToken(ctx, refreshToken)
	return err
}

func (s *service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.r.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, makeErr(ErrNotFound)
	}
	return u, nil
}

func (s *service) issueTokens(ctx context.Context, userID int64) (TokenPair, error) {
	access, err := jwtutil.Issue(s.secret, userID, jwtutil.TypeAccess, jwtutil.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtutil.Issue(s.secret, userID, jwtutil.TypeRefresh, jwtutil.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.r.InsertRefreshToken(ctx, userID, refresh, time.Now().UTC().Add(jwtutil.RefreshTTL)); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return TokenPair{}, derr
		}
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		if strings.Contains(cn, "users_email") {
			return makeErr(ErrEmailTaken)
		}
		return makeErr(ErrInvalidRefresh)
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
