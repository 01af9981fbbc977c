package booksvc_test

import (
	"context"
	"testing"

	"bookswap/model"
	bookrepo "bookswap/repository/book"
	booksvc "bookswap/service/book"
)

type repoMock struct {
	createFn  func(ctx context.Context, b *model.Book) error
	byIDFn    func(ctx context.Context, id int64) (*model.Book, error)
	listFn    func(ctx context.Context, f bookrepo.ListFilter) ([]model.Book, int64, error)
	byOwnerFn func(ctx context.Context, ownerID int64, page, limit int) ([]model.Book, int64, error)
	updateFn  func(ctx context.Context, b *model.Book) (bool, error)
	deleteFn  func(ctx context.Context, id int64) (bool, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) error { return m.createFn(ctx, b) }
func (m *repoMock) ByID(ctx context.Context, id int64) (*model.Book, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) ListAvailable(ctx context.Context, f bookrepo.ListFilter) ([]model.Book, int64, error) {
	return m.listFn(ctx, f)
}
func (m *repoMock) ListByOwner(ctx context.Context, ownerID int64, page, limit int) ([]model.Book, int64, error) {
	return m.byOwnerFn(ctx, ownerID, page, limit)
}
func (m *repoMock) Update(ctx context.Context, b *model.Book) (bool, error) {
	return m.updateFn(ctx, b)
}
func (m *repoMock) Delete(ctx context.Context, id int64) (bool, error) { return m.deleteFn(ctx, id) }

func strptr(s string) *string { return &s }

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	ctx := context.Background()

	if _, err := s.Create(ctx, 1, booksvc.CreateInput{Author: "a", Condition: model.ConditionGood}); booksvc.Code(err) != booksvc.ErrBadInput {
		t.Fatalf("empty title: got %v", err)
	}
	if _, err := s.Create(ctx, 1, booksvc.CreateInput{Title: "t", Condition: model.ConditionGood}); booksvc.Code(err) != booksvc.ErrBadInput {
		t.Fatalf("empty author: got %v", err)
	}
	if _, err := s.Create(ctx, 1, booksvc.CreateInput{Title: "t", Author: "a", Condition: "Mint"}); booksvc.Code(err) != booksvc.ErrBadInput {
		t.Fatalf("bad condition: got %v", err)
	}
	if _, err := s.Create(ctx, 1, booksvc.CreateInput{Title: "t", Author: "a", Condition: model.ConditionGood, ISBN: strptr("12345")}); booksvc.Code(err) != booksvc.ErrBadInput {
		t.Fatalf("bad isbn: got %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) error {
			if b.Title != "Neuromancer" || b.OwnerID != 5 {
				t.Fatalf("unexpected insert: %+v", b)
			}
			b.ID = 42
			return nil
		},
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Neuromancer", OwnerID: 5, IsAvailable: true}, nil
		},
	}
	s := booksvc.New(m)

	b, err := s.Create(context.Background(), 5, booksvc.CreateInput{
		Title:     "Neuromancer",
		Author:    "William Gibson",
		Condition: model.ConditionGood,
		ISBN:      strptr("9780441569595"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID != 42 || !b.IsAvailable {
		t.Fatalf("got %+v; want id=42 available", b)
	}
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, nil },
	}
	s := booksvc.New(m)

	if _, err := s.Detail(context.Background(), 99); booksvc.Code(err) != booksvc.ErrNotFound {
		t.Fatalf("got %v; want not found", err)
	}
}

func TestUpdate_OwnerOnly(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Dune", OwnerID: 5}, nil
		},
	}
	s := booksvc.New(m)

	if _, _, err := s.Update(context.Background(), 6, 1, booksvc.UpdateInput{}); booksvc.Code(err) != booksvc.ErrNotOwner {
		t.Fatalf("got %v; want not owner", err)
	}
}

func TestUpdate_ReplacesImage(t *testing.T) {
	old := "old.jpg"
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Dune", Author: "Herbert", Condition: model.ConditionGood, OwnerID: 5, Image: &old}, nil
		},
		updateFn: func(ctx context.Context, b *model.Book) (bool, error) {
			if b.Image == nil || *b.Image != "new.jpg" {
				t.Fatalf("image not applied: %+v", b.Image)
			}
			return true, nil
		},
	}
	s := booksvc.New(m)

	_, oldImage, err := s.Update(context.Background(), 5, 1, booksvc.UpdateInput{Image: strptr("new.jpg")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if oldImage == nil || *oldImage != "old.jpg" {
		t.Fatalf("got old image %v; want old.jpg", oldImage)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Dune", Author: "Herbert", Condition: model.ConditionGood, OwnerID: 5}, nil
		},
		updateFn: func(ctx context.Context, b *model.Book) (bool, error) {
			if b.Title != "Dune Messiah" || b.Author != "Herbert" {
				t.Fatalf("partial update wrong: %+v", b)
			}
			return true, nil
		},
	}
	s := booksvc.New(m)

	if _, _, err := s.Update(context.Background(), 5, 1, booksvc.UpdateInput{Title: strptr("Dune Messiah")}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestDelete(t *testing.T) {
	img := "cover.jpg"
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			if id != 1 {
				return nil, nil
			}
			return &model.Book{ID: 1, OwnerID: 5, Image: &img}, nil
		},
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return true, nil },
	}
	s := booksvc.New(m)

	image, err := s.Delete(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if image == nil || *image != "cover.jpg" {
		t.Fatalf("got image %v; want cover.jpg", image)
	}

	if _, err := s.Delete(context.Background(), 6, 1); booksvc.Code(err) != booksvc.ErrNotOwner {
		t.Fatalf("got %v; want not owner", err)
	}
	if _, err := s.Delete(context.Background(), 5, 2); booksvc.Code(err) != booksvc.ErrNotFound {
		t.Fatalf("got %v; want not found", err)
	}
}
