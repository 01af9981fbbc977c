package booksvc

import (
	"context"
	"errors"

	"bookswap/model"
	bookrepo "bookswap/repository/book"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrNotOwner ErrCode = "NOT_OWNER"
	ErrBadInput ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// CreateInput carries the multipart fields; Image is the stored filename, the
// controller owns the file itself.
type CreateInput struct {
	Title       string
	Author      string
	Condition   model.BookCondition
	Description *string
	Genre       *string
	ISBN        *string
	Image       *string
}

// UpdateInput applies only non-nil fields.
type UpdateInput struct {
	Title       *string
	Author      *string
	Condition   *model.BookCondition
	Description *string
	Genre       *string
	ISBN        *string
	Image       *string
}

type Filter = bookrepo.ListFilter

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	ListAvailable(ctx context.Context, f Filter) ([]model.Book, int64, error)
	ListByOwner(ctx context.Context, ownerID int64, page, limit int) ([]model.Book, int64, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, ownerID int64, in CreateInput) (*model.Book, error)
	List(ctx context.Context, f Filter) ([]model.Book, int64, error)
	MyBooks(ctx context.Context, ownerID int64, page, limit int) ([]model.Book, int64, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)

	// Update returns the updated book and the previous image filename when it
	// was replaced, so the caller can remove the file.
	Update(ctx context.Context, userID, id int64, in UpdateInput) (*model.Book, *string, error)

	// Delete returns the image filename of the removed book, if any.
	Delete(ctx context.Context, userID, id int64) (*string, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, ownerID int64, in CreateInput) (*model.Book, error) {
	if in.Title == "" || in.Author == "" || !in.Condition.Valid() {
		return nil, makeErr(ErrBadInput)
	}
	if in.ISBN != nil && !model.ValidISBN(*in.ISBN) {
		return nil, makeErr(ErrBadInput)
	}

	b := &model.Book{
		Title:       in.Title,
		Author:      in.Author,
		Condition:   in.Condition,
		Description: in.Description,
		Genre:       in.Genre,
		ISBN:        in.ISBN,
		Image:       in.Image,
		OwnerID:     ownerID,
	}
	if err := s.r.Create(ctx, b); err != nil {
		return nil, err
	}
	return s.r.ByID(ctx, b.ID)
}

func (s *service) List(ctx context.Context, f Filter) ([]model.Book, int64, error) {
	return s.r.ListAvailable(ctx, f)
}

func (s *service) MyBooks(ctx context.Context, ownerID int64, page, limit int) ([]model.Book, int64, error) {
	return s.r.ListByOwner(ctx, ownerID, page, limit)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*model.Book, *string, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, makeErr(ErrNotFound)
	}
	if b.OwnerID != userID {
		return nil, nil, makeErr(ErrNotOwner)
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, nil, makeErr(ErrBadInput)
		}
		b.Title = *in.Title
	}
	if in.Author != nil {
		if *in.Author == "" {
			return nil, nil, makeErr(ErrBadInput)
		}
		b.Author = *in.Author
	}
	if in.Condition != nil {
		if !in.Condition.Valid() {
			return nil, nil, makeErr(ErrBadInput)
		}
		b.Condition = *in.Condition
	}
	if in.Description != nil {
		b.Description = in.Description
	}
	if in.Genre != nil {
		b.Genre = in.Genre
	}
	if in.ISBN != nil {
		if !model.ValidISBN(*in.ISBN) {
			return nil, nil, makeErr(ErrBadInput)
		}
		b.ISBN = in.ISBN
	}

	var oldImage *string
	if in.Image != nil {
		if b.Image != nil && *b.Image != *in.Image {
			oldImage = b.Image
		}
		b.Image = in.Image
	}

	ok, err := s.r.Update(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, makeErr(ErrNotFound)
	}

	updated, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, oldImage, nil
}

func (s *service) Delete(ctx context.Context, userID, id int64) (*string, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	if b.OwnerID != userID {
		return nil, makeErr(ErrNotOwner)
	}

	ok, err := s.r.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrNotFound)
	}
	return b.Image, nil
}
