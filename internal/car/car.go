// Package car is the business resource the application lists: a thin
// repository over the cars table.
package car

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Car is one row of the cars table.
type Car struct {
	ID        int64
	Make      string
	Model     string
	Year      int
	CreatedAt time.Time
}

// DBTX is the persistence capability the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads cars from the database.
type Repository struct {
	db DBTX
}

// NewRepository creates a car repository over the given database.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// List returns all cars, newest first.
func (r *Repository) List(ctx context.Context) ([]Car, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, make, model, year, created_at FROM cars ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []Car
	for rows.Next() {
		var c Car
		if err := rows.Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.CreatedAt); err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

// Find returns the car with the given id, or nil when it does not exist.
func (r *Repository) Find(ctx context.Context, id int64) (*Car, error) {
	var c Car
	row := r.db.QueryRow(ctx,
		`SELECT id, make, model, year, created_at FROM cars WHERE id = $1`,
		id,
	)
	if err := row.Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
