package requestrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"bookswap/model"
)

var requestCols = []string{
	"id", "book_id", "requester_id", "owner_id", "status",
	"message", "response_message", "requested_at", "responded_at",
}

func requestRow(status model.RequestStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(requestCols).
		AddRow(int64(1), int64(10), int64(2), int64(5), string(status), nil, nil, now, nil)
}

func newMock(t *testing.T) (Repo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

func TestTransition_AcceptFlipsBookInOneTx(t *testing.T) {
	r, mock, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE book_requests").
		WithArgs(string(model.StatusAccepted), nil, int64(1), string(model.StatusPending), int64(5)).
		WillReturnRows(requestRow(model.StatusAccepted))
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, err := r.Transition(context.Background(), TransitionParams{
		RequestID:      1,
		ActorID:        5,
		ActorIsOwner:   true,
		From:           model.StatusPending,
		To:             model.StatusAccepted,
		StampResponded: true,
		ReleaseBook:    true,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if req == nil || req.Status != model.StatusAccepted {
		t.Fatalf("got %+v; want accepted request", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTransition_MissRollsBack(t *testing.T) {
	r, mock, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE book_requests").
		WillReturnRows(sqlmock.NewRows(requestCols))
	mock.ExpectRollback()

	req, err := r.Transition(context.Background(), TransitionParams{
		RequestID:    1,
		ActorID:      5,
		ActorIsOwner: true,
		From:         model.StatusPending,
		To:           model.StatusAccepted,
		ReleaseBook:  true,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if req != nil {
		t.Fatalf("got %+v; want nil on missed compare-and-set", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTransition_NoReleaseSkipsTx(t *testing.T) {
	r, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("UPDATE book_requests").
		WithArgs(string(model.StatusCancelled), nil, int64(1), string(model.StatusPending), int64(2)).
		WillReturnRows(requestRow(model.StatusCancelled))

	req, err := r.Transition(context.Background(), TransitionParams{
		RequestID: 1,
		ActorID:   2,
		From:      model.StatusPending,
		To:        model.StatusCancelled,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if req == nil || req.Status != model.StatusCancelled {
		t.Fatalf("got %+v; want cancelled request", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateGuarded_LocksBookRow(t *testing.T) {
	r, mock, done := newMock(t)
	defer done()

	// The source SELECT must lock the book row so a concurrent accept's
	// availability flip is re-checked rather than read from a stale snapshot.
	mock.ExpectQuery("INSERT INTO book_requests.*FOR UPDATE").
		WithArgs(int64(10), int64(2), nil).
		WillReturnRows(requestRow(model.StatusPending))

	req, err := r.CreateGuarded(context.Background(), 10, 2, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req == nil || req.Status != model.StatusPending {
		t.Fatalf("got %+v; want pending request", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateGuarded_GuardBlocked(t *testing.T) {
	r, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO book_requests").
		WithArgs(int64(10), int64(2), nil).
		WillReturnRows(sqlmock.NewRows(requestCols))

	req, err := r.CreateGuarded(context.Background(), 10, 2, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req != nil {
		t.Fatalf("got %+v; want nil when the guard blocks", req)
	}
}

func TestCreateGuarded_DuplicateSurfacesPgError(t *testing.T) {
	r, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO book_requests").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "book_requests_active_key"})

	_, err := r.CreateGuarded(context.Background(), 10, 2, nil)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		t.Fatalf("got %v; want unique violation", err)
	}
}
