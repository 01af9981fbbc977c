// Package requestrepo persists exchange requests. Status changes go through a
// single conditional UPDATE keyed on the expected prior status, so concurrent
// writers cannot both move the same request.
package requestrepo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"bookswap/model"
)

// TransitionParams describes one atomic status transition. When ReleaseBook is
// set the referenced book's availability is cleared in the same transaction.
type TransitionParams struct {
	RequestID       int64
	ActorID         int64
	ActorIsOwner    bool
	From            model.RequestStatus
	To              model.RequestStatus
	ResponseMessage *string
	StampResponded  bool
	ReleaseBook     bool
}

type Repo interface {
	// CreateGuarded inserts a pending request only while the book is still
	// available and not owned by the requester. Returns nil when the guard
	// blocked the insert. A duplicate active request surfaces as a unique
	// violation from the partial index.
	CreateGuarded(ctx context.Context, bookID, requesterID int64, message *string) (*model.BookRequest, error)

	// Transition performs the compare-and-set move; nil result means no row
	// matched (absent, wrong actor, or already out of the expected status).
	Transition(ctx context.Context, p TransitionParams) (*model.BookRequest, error)

	RequestRow(ctx context.Context, id int64) (*model.BookRequest, error)
	DetailByID(ctx context.Context, id int64) (*model.RequestDetail, error)

	ListByRequester(ctx context.Context, requesterID int64, status string, page, limit int) ([]model.RequestDetail, int64, error)
	ListByOwner(ctx context.Context, ownerID int64, status string, page, limit int) ([]model.RequestDetail, int64, error)

	CountsByRequester(ctx context.Context, userID int64) (model.StatusCounts, error)
	CountsByOwner(ctx context.Context, userID int64) (model.StatusCounts, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const reqCols = `r.id, r.book_id, r.requester_id, r.owner_id, r.status,
	r.message, r.response_message, r.requested_at, r.responded_at`

type rowScanner interface{ Scan(...any) error }

func scanRequest(s rowScanner) (*model.BookRequest, error) {
	q := &model.BookRequest{}
	err := s.Scan(&q.ID, &q.BookID, &q.RequesterID, &q.OwnerID, &q.Status,
		&q.Message, &q.ResponseMessage, &q.RequestedAt, &q.RespondedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repo) CreateGuarded(ctx context.Context, bookID, requesterID int64, message *string) (*model.BookRequest, error) {
	// FOR UPDATE makes the insert wait on a concurrent accept's book-row
	// lock and re-check availability after it commits.
	return scanRequest(r.db.QueryRowContext(ctx, `
		INSERT INTO book_requests (book_id, requester_id, owner_id, message)
		SELECT b.id, $2, b.owner_id, $3
		FROM books b
		WHERE b.id = $1
		  AND b.is_available = TRUE
		  AND b.owner_id <> $2
		FOR UPDATE
		RETURNING id, book_id, requester_id, owner_id, status,
		          message, response_message, requested_at, responded_at`,
		bookID, requesterID, message))
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repo) Transition(ctx context.Context, p TransitionParams) (req *model.BookRequest, err error) {
	if !p.ReleaseBook {
		return r.transition(ctx, r.db, p)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err = r.transition(ctx, tx, p)
	if err != nil {
		return nil, err
	}
	if req == nil {
		_ = tx.Rollback()
		return nil, nil
	}

	// At most one request ever flips the book; a book already off the shelf
	// stays untouched.
	if _, err = tx.ExecContext(ctx, `
		UPDATE books
		SET is_available = FALSE,
		    updated_at = now()
		WHERE id = $1
		  AND is_available = TRUE`,
		req.BookID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *repo) transition(ctx context.Context, q queryRower, p TransitionParams) (*model.BookRequest, error) {
	actorCol := "requester_id"
	if p.ActorIsOwner {
		actorCol = "owner_id"
	}

	stmt := `
		UPDATE book_requests r
		SET status = $1,
		    response_message = COALESCE($2, response_message)`
	if p.StampResponded {
		stmt += `,
		    responded_at = now()`
	}
	stmt += `
		WHERE r.id = $3
		  AND r.status = $4
		  AND r.` + actorCol + ` = $5
		RETURNING ` + reqCols

	return scanRequest(q.QueryRowContext(ctx, stmt,
		p.To, p.ResponseMessage, p.RequestID, p.From, p.ActorID))
}

func (r *repo) RequestRow(ctx context.Context, id int64) (*model.BookRequest, error) {
	return scanRequest(r.db.QueryRowContext(ctx, `
		SELECT `+reqCols+`
		FROM book_requests r
		WHERE r.id = $1`,
		id))
}

const detailCols = reqCols + `,
	b.id, b.title, b.author, b.condition, b.image,
	ru.id, ru.name, ru.email,
	ou.id, ou.name, ou.email`

const detailJoins = `
	FROM book_requests r
	JOIN books b ON b.id = r.book_id
	JOIN users ru ON ru.id = r.requester_id
	JOIN users ou ON ou.id = r.owner_id`

func scanDetail(s rowScanner) (*model.RequestDetail, error) {
	d := &model.RequestDetail{}
	err := s.Scan(&d.ID, &d.BookID, &d.RequesterID, &d.OwnerID, &d.Status,
		&d.Message, &d.ResponseMessage, &d.RequestedAt, &d.RespondedAt,
		&d.Book.ID, &d.Book.Title, &d.Book.Author, &d.Book.Condition, &d.Book.Image,
		&d.Requester.ID, &d.Requester.Name, &d.Requester.Email,
		&d.Owner.ID, &d.Owner.Name, &d.Owner.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repo) DetailByID(ctx context.Context, id int64) (*model.RequestDetail, error) {
	return scanDetail(r.db.QueryRowContext(ctx, `
		SELECT `+detailCols+detailJoins+`
		WHERE r.id = $1`,
		id))
}

func (r *repo) ListByRequester(ctx context.Context, requesterID int64, status string, page, limit int) ([]model.RequestDetail, int64, error) {
	return r.list(ctx, "requester_id", requesterID, status, page, limit)
}

func (r *repo) ListByOwner(ctx context.Context, ownerID int64, status string, page, limit int) ([]model.RequestDetail, int64, error) {
	return r.list(ctx, "owner_id", ownerID, status, page, limit)
}

func (r *repo) list(ctx context.Context, col string, userID int64, status string, page, limit int) ([]model.RequestDetail, int64, error) {
	cond := `r.` + col + ` = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		cond += ` AND r.status = $2`
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_requests r WHERE `+cond, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	q := `
		SELECT ` + detailCols + detailJoins + `
		WHERE ` + cond + `
		ORDER BY r.requested_at DESC, r.id DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.RequestDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (r *repo) CountsByRequester(ctx context.Context, userID int64) (model.StatusCounts, error) {
	return r.counts(ctx, "requester_id", userID)
}

func (r *repo) CountsByOwner(ctx context.Context, userID int64) (model.StatusCounts, error) {
	return r.counts(ctx, "owner_id", userID)
}

func (r *repo) counts(ctx context.Context, col string, userID int64) (model.StatusCounts, error) {
	var c model.StatusCounts
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM book_requests
		WHERE `+col+` = $1
		GROUP BY status`,
		userID)
	if err != nil {
		return c, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.RequestStatus
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return c, err
		}
		c.Set(s, n)
	}
	return c, rows.Err()
}
