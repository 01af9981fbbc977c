// Package requestsvc owns the exchange-request lifecycle:
// pending -> accepted | declined | cancelled, accepted -> completed.
package requestsvc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"bookswap/model"
	bookrepo "bookswap/repository/book"
	requestrepo "bookswap/repository/request"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrForbidden    ErrCode = "FORBIDDEN"
	ErrInvalidState ErrCode = "INVALID_STATE"
	ErrDuplicate    ErrCode = "DUPLICATE_REQUEST"
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

const notifyTimeout = 10 * time.Second

// Notifier delivers the lifecycle emails. All sends are best effort; the
// lifecycle never waits on them and never fails because of them.
type Notifier interface {
	NotifyNewRequest(ctx context.Context, ownerEmail, requesterName, bookTitle, message string) error
	NotifyAccepted(ctx context.Context, requesterEmail, requesterName, bookTitle, ownerName, responseMessage string) error
	NotifyDeclined(ctx context.Context, requesterEmail, requesterName, bookTitle, ownerName, responseMessage string) error
}

type Stats struct {
	Sent     model.StatusCounts `json:"sent"`
	Received model.StatusCounts `json:"received"`
}

type Service interface {
	Create(ctx context.Context, requesterID, bookID int64, message *string) (*model.RequestDetail, error)
	Respond(ctx context.Context, userID, requestID int64, decision model.RequestStatus, responseMessage *string) (*model.RequestDetail, error)
	Complete(ctx context.Context, userID, requestID int64) (*model.RequestDetail, error)
	Cancel(ctx context.Context, userID, requestID int64) error
	Get(ctx context.Context, userID, requestID int64) (*model.RequestDetail, error)
	Sent(ctx context.Context, userID int64, status string, page, limit int) ([]model.RequestDetail, int64, error)
	Received(ctx context.Context, userID int64, status string, page, limit int) ([]model.RequestDetail, int64, error)
	Stats(ctx context.Context, userID int64) (*Stats, error)
}

type service struct {
	r   requestrepo.Repo
	br  bookrepo.Repo
	n   Notifier
	log *slog.Logger
}

func New(r requestrepo.Repo, br bookrepo.Repo, n Notifier, log *slog.Logger) Service {
	return &service{r: r, br: br, n: n, log: log}
}

func (s *service) Create(ctx context.Context, requesterID, bookID int64, message *string) (*model.RequestDetail, error) {
	req, err := s.r.CreateGuarded(ctx, bookID, requesterID, message)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrDuplicate)
		}
		return nil, err
	}
	if req == nil {
		// The guard blocked the insert; read the book to say why.
		book, err := s.br.ByID(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if book == nil {
			return nil, makeErr(ErrNotFound)
		}
		// Self-request or no longer available.
		return nil, makeErr(ErrInvalidState)
	}

	detail, err := s.r.DetailByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, makeErr(ErrNotFound)
	}

	s.log.Info("book request created",
		"request_id", detail.ID,
		"book_id", detail.BookID,
		"requester_id", detail.RequesterID,
		"owner_id", detail.OwnerID,
	)

	s.notify(func(ctx context.Context) error {
		return s.n.NotifyNewRequest(ctx, detail.Owner.Email, detail.Requester.Name,
			detail.Book.Title, deref(detail.Message))
	}, "new request", detail.ID)

	return detail, nil
}

func (s *service) Respond(ctx context.Context, userID, requestID int64, decision model.RequestStatus, responseMessage *string) (*model.RequestDetail, error) {
	if decision != model.StatusAccepted && decision != model.StatusDeclined {
		return nil, makeErr(ErrInvalidState)
	}

	req, err := s.r.Transition(ctx, requestrepo.TransitionParams{
		RequestID:       requestID,
		ActorID:         userID,
		ActorIsOwner:    true,
		From:            model.StatusPending,
		To:              decision,
		ResponseMessage: responseMessage,
		StampResponded:  true,
		ReleaseBook:     decision == model.StatusAccepted,
	})
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, s.classify(ctx, requestID, userID, true, model.StatusPending)
	}

	detail, err := s.r.DetailByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, makeErr(ErrNotFound)
	}

	s.log.Info("book request updated",
		"request_id", requestID,
		"status", decision,
		"user_id", userID,
	)

	s.notify(func(ctx context.Context) error {
		if decision == model.StatusAccepted {
			return s.n.NotifyAccepted(ctx, detail.Requester.Email, detail.Requester.Name,
				detail.Book.Title, detail.Owner.Name, deref(responseMessage))
		}
		return s.n.NotifyDeclined(ctx, detail.Requester.Email, detail.Requester.Name,
			detail.Book.Title, detail.Owner.Name, deref(responseMessage))
	}, string(decision), requestID)

	return detail, nil
}

func (s *service) Complete(ctx context.Context, userID, requestID int64) (*model.RequestDetail, error) {
	req, err := s.r.Transition(ctx, requestrepo.TransitionParams{
		RequestID:    requestID,
		ActorID:      userID,
		ActorIsOwner: true,
		From:         model.StatusAccepted,
		To:           model.StatusCompleted,
	})
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, s.classify(ctx, requestID, userID, true, model.StatusAccepted)
	}

	s.log.Info("book request completed", "request_id", requestID, "user_id", userID)

	detail, err := s.r.DetailByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, makeErr(ErrNotFound)
	}
	return detail, nil
}

func (s *service) Cancel(ctx context.Context, userID, requestID int64) error {
	req, err := s.r.Transition(ctx, requestrepo.TransitionParams{
		RequestID:    requestID,
		ActorID:      userID,
		ActorIsOwner: false,
		From:         model.StatusPending,
		To:           model.StatusCancelled,
	})
	if err != nil {
		return err
	}
	if req == nil {
		return s.classify(ctx, requestID, userID, false, model.StatusPending)
	}

	s.log.Info("book request cancelled", "request_id", requestID, "user_id", userID)
	return nil
}

func (s *service) Get(ctx context.Context, userID, requestID int64) (*model.RequestDetail, error) {
	detail, err := s.r.DetailByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, makeErr(ErrNotFound)
	}
	if detail.RequesterID != userID && detail.OwnerID != userID {
		return nil, makeErr(ErrForbidden)
	}
	return detail, nil
}

func (s *service) Sent(ctx context.Context, userID int64, status string, page, limit int) ([]model.RequestDetail, int64, error) {
	return s.r.ListByRequester(ctx, userID, status, page, limit)
}

func (s *service) Received(ctx context.Context, userID int64, status string, page, limit int) ([]model.RequestDetail, int64, error) {
	return s.r.ListByOwner(ctx, userID, status, page, limit)
}

func (s *service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	sent, err := s.r.CountsByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.r.CountsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{Sent: sent, Received: received}, nil
}

// classify turns a missed compare-and-set into the error the caller deserves.
func (s *service) classify(ctx context.Context, requestID, userID int64, actorIsOwner bool, expected model.RequestStatus) error {
	row, err := s.r.RequestRow(ctx, requestID)
	if err != nil {
		return err
	}
	if row == nil {
		return makeErr(ErrNotFound)
	}
	actor := row.RequesterID
	if actorIsOwner {
		actor = row.OwnerID
	}
	if actor != userID {
		return makeErr(ErrForbidden)
	}
	if row.Status != expected {
		return makeErr(ErrInvalidState)
	}
	// The row matched on re-read; the transition lost a race it would now win.
	return makeErr(ErrInvalidState)
}

func (s *service) notify(send func(context.Context) error, kind string, requestID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.log.Error("request notification failed",
				"kind", kind,
				"request_id", requestID,
				"err", err,
			)
		}
	}()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
