package bookrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookswap/model"
)

type ListFilter struct {
	Search    string
	Genre     string
	Condition string
	Page      int
	Limit     int
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	ListAvailable(ctx context.Context, f ListFilter) ([]model.Book, int64, error)
	ListByOwner(ctx context.Context, ownerID int64, page, limit int) ([]model.Book, int64, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookCols = `b.id, b.title, b.author, b.condition, b.description, b.genre, b.isbn,
	b.image, b.owner_id, b.is_available, b.created_at, b.updated_at,
	u.id, u.name, u.email`

func scanBook(s interface{ Scan(...any) error }) (*model.Book, error) {
	b := &model.Book{}
	err := s.Scan(&b.ID, &b.Title, &b.Author, &b.Condition, &b.Description, &b.Genre,
		&b.ISBN, &b.Image, &b.OwnerID, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt,
		&b.Owner.ID, &b.Owner.Name, &b.Owner.Email)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO books (title, author, condition, description, genre, isbn, image, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_available, created_at, updated_at`,
		b.Title, b.Author, b.Condition, b.Description, b.Genre, b.ISBN, b.Image, b.OwnerID,
	).Scan(&b.ID, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	b, err := scanBook(r.db.QueryRowContext(ctx, `
		SELECT `+bookCols+`
		FROM books b
		JOIN users u ON u.id = b.owner_id
		WHERE b.id = $1`,
		id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *repo) ListAvailable(ctx context.Context, f ListFilter) ([]model.Book, int64, error) {
	where := []string{"b.is_available = TRUE"}
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := fmt.Sprintf("$%d", len(args))
		where = append(where, fmt.Sprintf(
			"(b.title ILIKE %s OR b.author ILIKE %s OR b.description ILIKE %s)", p, p, p))
	}
	if f.Genre != "" {
		args = append(args, f.Genre)
		where = append(where, fmt.Sprintf("b.genre = $%d", len(args)))
	}
	if f.Condition != "" {
		args = append(args, f.Condition)
		where = append(where, fmt.Sprintf("b.condition = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books b WHERE `+cond, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	q := fmt.Sprintf(`
		SELECT `+bookCols+`
		FROM books b
		JOIN users u ON u.id = b.owner_id
		WHERE `+cond+`
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.collect(ctx, q, args, total)
}

func (r *repo) ListByOwner(ctx context.Context, ownerID int64, page, limit int) ([]model.Book, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books b WHERE b.owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	return r.collect(ctx, `
		SELECT `+bookCols+`
		FROM books b
		JOIN users u ON u.id = b.owner_id
		WHERE b.owner_id = $1
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2 OFFSET $3`,
		[]any{ownerID, limit, (page - 1) * limit}, total)
}

func (r *repo) collect(ctx context.Context, q string, args []any, total int64) ([]model.Book, int64, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (r *repo) Update(ctx context.Context, b *model.Book) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET title = $2,
		    author = $3,
		    condition = $4,
		    description = $5,
		    genre = $6,
		    isbn = $7,
		    image = $8,
		    updated_at = now()
		WHERE id = $1`,
		b.ID, b.Title, b.Author, b.Condition, b.Description, b.Genre, b.ISBN, b.Image)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM books
		WHERE id = $1`,
		id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
