// README: Booking store backed by PostgreSQL; status updates use compare-and-swap.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cabdesk/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, vendor_id, customer_id, driver_id, status, status_version,
			price, currency, pickup_location, dropoff_location,
			pickup_date, drop_date, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13
		)`,
		string(b.ID),
		string(b.VendorID),
		string(b.CustomerID),
		toStringPtr(b.DriverID),
		string(b.Status),
		b.StatusVersion,
		b.Price.Amount,
		b.Price.Currency,
		b.PickupLocation,
		b.DropoffLocation,
		b.PickupDate,
		b.DropDate,
		b.CreatedAt,
	)
	return err
}

const bookingColumns = `
	id, vendor_id, customer_id, driver_id, status, status_version,
	price, currency, pickup_location, dropoff_location,
	pickup_date, drop_date, created_at,
	approved_at, departed_at, started_at, completed_at, cancelled_at, cancel_reason`

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1`, string(id),
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatus applies the transition only when the caller's view of
// (status, status_version) is still current; a stale caller gets ok=false.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason string) (bool, error) {
	var d *string
	if driverID != nil {
		v := string(*driverID)
		d = &v
	}
	var r *string
	if reason != "" {
		r = &reason
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE($2, driver_id),
		    cancel_reason = COALESCE($3, cancel_reason),
		    approved_at = CASE WHEN $1 = 'approved' THEN NOW() ELSE approved_at END,
		    departed_at = CASE WHEN $1 = 'preongoing' THEN NOW() ELSE departed_at END,
		    started_at = CASE WHEN $1 = 'ongoing' THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    drop_date = CASE WHEN $1 = 'completed' THEN NOW() ELSE drop_date END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		d,
		r,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_state_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		string(e.ActorType),
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *Store) ListByVendor(ctx context.Context, vendorID types.ID, status Status) ([]*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE vendor_id = $1`
	args := []any{string(vendorID)}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var driverID, cancelReason sql.NullString
	var dropDate, approvedAt, departedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.VendorID, &b.CustomerID, &driverID, &b.Status, &b.StatusVersion,
		&b.Price.Amount, &b.Price.Currency, &b.PickupLocation, &b.DropoffLocation,
		&b.PickupDate, &dropDate, &b.CreatedAt,
		&approvedAt, &departedAt, &startedAt, &completedAt, &cancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		d := types.ID(driverID.String)
		b.DriverID = &d
	}
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	b.DropDate = toTimePtr(dropDate)
	b.ApprovedAt = toTimePtr(approvedAt)
	b.DepartedAt = toTimePtr(departedAt)
	b.StartedAt = toTimePtr(startedAt)
	b.CompletedAt = toTimePtr(completedAt)
	b.CancelledAt = toTimePtr(cancelledAt)
	if b.Price.Currency == "" {
		b.Price.Currency = "INR"
	}
	return &b, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
