package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookswap/model"
)

type Repo interface {
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)

	// UpsertUnverified creates or refreshes an unverified account with a new
	// OTP. Returns nil when the email belongs to a verified account.
	UpsertUnverified(ctx context.Context, email, name, otp string, otpExpiresAt time.Time) (*model.User, error)

	// CompleteVerification atomically consumes a matching unexpired OTP,
	// stores the password hash and flags the account verified. Returns nil
	// when no row matched.
	CompleteVerification(ctx context.Context, email, otp, passwordHash string, now time.Time) (*model.User, error)

	InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RefreshTokenUser(ctx context.Context, token string, now time.Time) (int64, error)
	DeleteRefreshToken(ctx context.Context, token string) (bool, error)

	// PurgeExpired removes stale unverified signups and expired refresh
	// tokens, returning how many rows went away.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const userCols = `id, name, email, password_hash, is_verified, otp_code, otp_expires_at, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsVerified,
		&u.OTPCode, &u.OTPExpiresAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE lower(email) = lower($1)`,
		email))
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE id = $1`,
		id))
}

func (r *repo) UpsertUnverified(ctx context.Context, email, name, otp string, otpExpiresAt time.Time) (*model.User, error) {
	// Verified accounts are never overwritten; the guarded DO UPDATE returns
	// no row for them.
	return scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, otp_code, otp_expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ((lower(email))) DO UPDATE
		SET name = EXCLUDED.name,
		    otp_code = EXCLUDED.otp_code,
		    otp_expires_at = EXCLUDED.otp_expires_at
		WHERE users.is_verified = FALSE
		RETURNING `+userCols,
		name, email, otp, otpExpiresAt))
}

func (r *repo) CompleteVerification(ctx context.Context, email, otp, passwordHash string, now time.Time) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET password_hash = $3,
		    is_verified = TRUE,
		    otp_code = NULL,
		    otp_expires_at = NULL
		WHERE lower(email) = lower($1)
		  AND otp_code = $2
		  AND otp_expires_at > $4
		RETURNING `+userCols,
		email, otp, passwordHash, now))
}

func (r *repo) InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)`,
		userID, token, expiresAt)
	return err
}

func (r *repo) RefreshTokenUser(ctx context.Context, token string, now time.Time) (int64, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM refresh_tokens
		WHERE token = $1
		  AND expires_at > $2`,
		token, now).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return userID, err
}

func (r *repo) DeleteRefreshToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE token = $1`,
		token)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM users
		WHERE is_verified = FALSE
		  AND otp_expires_at < $1`,
		now)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	purged += n

	res, err = r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1`,
		now)
	if err != nil {
		return purged, err
	}
	n, _ = res.RowsAffected()
	purged += n

	return purged, nil
}
