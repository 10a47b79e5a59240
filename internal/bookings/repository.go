package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Booking is a confirmed appointment row.
type Booking struct {
	ID              uuid.UUID `json:"id"`
	EmployeeID      string    `json:"employeeId"`
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail"`
	StartAt         time.Time `json:"startAt"`
	EndAt           time.Time `json:"endAt"`
	Services        []string  `json:"services"`
	CalendarEventID string    `json:"calendarEventId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// DB is the pgx surface the repository needs; pgxpool.Pool satisfies it
// in production and pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists bookings in Postgres.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a confirmed booking.
func (r *Repository) Insert(ctx context.Context, b *Booking) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (id, employee_id, customer_name, customer_email, start_at, end_at, services, calendar_event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.EmployeeID, b.CustomerName, b.CustomerEmail, b.StartAt, b.EndAt, b.Services, b.CalendarEventID, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: insert: %w", err)
	}
	return nil
}

// ListFrom returns bookings starting at or after the given instant,
// earliest first.
func (r *Repository) ListFrom(ctx context.Context, from time.Time, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, employee_id, customer_name, customer_email, start_at, end_at, services, calendar_event_id, created_at
		FROM bookings
		WHERE start_at >= $1
		ORDER BY start_at ASC
		LIMIT $2`,
		from, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.CustomerName, &b.CustomerEmail, &b.StartAt, &b.EndAt, &b.Services, &b.CalendarEventID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: rows: %w", err)
	}
	return out, nil
}
