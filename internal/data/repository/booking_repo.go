package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByTransactionID(ctx context.Context, transactionID string) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// Business queries
	// UpdateStatusIfNotTerminal applies a status transition only when the
	// stored record is still non-terminal. Returns false when the guard
	// rejected the write (already terminal or unknown transaction id).
	UpdateStatusIfNotTerminal(ctx context.Context, transactionID string, bookingStatus entity.BookingStatus, paymentStatus entity.PaymentStatus, gatewayPaymentID string) (bool, error)
	SaveTypePayload(ctx context.Context, booking *entity.Booking) error
	FindPendingByMethodCreatedAfter(ctx context.Context, paymentMethod string, cutoff time.Time) ([]*entity.Booking, error)
	// FindPendingCreatedBefore returns unsettled bookings (pending or
	// processing payment) older than the cutoff, for the expiry sweep.
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `
	id, user_id, booking_type, flights, hotel, car, vacation,
	transaction_id, payment_status, payment_method, amount, currency, gateway_payment_id,
	booking_status, version, created_at, updated_at
`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	flights, hotel, car, vacation, err := marshalPayloads(booking)
	if err != nil {
		return fmt.Errorf("marshal booking payloads: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.BookingType,
		flights,
		hotel,
		car,
		vacation,
		booking.PaymentDetails.TransactionID,
		booking.PaymentDetails.PaymentStatus,
		booking.PaymentDetails.PaymentMethod,
		booking.PaymentDetails.Amount,
		booking.PaymentDetails.Currency,
		booking.PaymentDetails.GatewayPaymentID,
		booking.BookingStatus,
		booking.Version,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("transaction_id", booking.PaymentDetails.TransactionID),
			zap.String("booking_type", string(booking.BookingType)),
		)
		return fmt.Errorf("create booking %s: %w", booking.PaymentDetails.TransactionID, err)
	}

	return nil
}

func (r *bookingRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE transaction_id = $1
	`

	booking, err := r.scanBooking(r.db.QueryRow(ctx, query, transactionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by transaction ID",
			zap.Error(err),
			zap.String("transaction_id", transactionID),
		)
		return nil, fmt.Errorf("find booking by transaction ID %s: %w", transactionID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	return r.collectBookings(rows)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatusIfNotTerminal(ctx context.Context, transactionID string, bookingStatus entity.BookingStatus, paymentStatus entity.PaymentStatus, gatewayPaymentID string) (bool, error) {
	// Conditional update menutup race window antara read dan write:
	// terminal records never transition again, regardless of delivery order.
	query := `
		UPDATE bookings
		SET booking_status = $2,
		    payment_status = $3,
		    gateway_payment_id = COALESCE(NULLIF($4, ''), gateway_payment_id),
		    version = version + 1,
		    updated_at = $5
		WHERE transaction_id = $1
		  AND payment_status NOT IN ('completed', 'failed')
		  AND booking_status NOT IN ('confirmed', 'failed', 'cancelled')
	`

	result, err := r.db.Exec(ctx, query,
		transactionID,
		bookingStatus,
		paymentStatus,
		gatewayPaymentID,
		time.Now(),
	)

	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("transaction_id", transactionID),
			zap.String("booking_status", string(bookingStatus)),
			zap.String("payment_status", string(paymentStatus)),
		)
		return false, fmt.Errorf("update booking status %s: %w", transactionID, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SaveTypePayload(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET flights = $2, hotel = $3, car = $4, vacation = $5,
		    version = version + 1,
		    updated_at = $6
		WHERE transaction_id = $1
	`

	flights, hotel, car, vacation, err := marshalPayloads(booking)
	if err != nil {
		return fmt.Errorf("marshal booking payloads: %w", err)
	}

	result, err := r.db.Exec(ctx, query,
		booking.PaymentDetails.TransactionID,
		flights,
		hotel,
		car,
		vacation,
		time.Now(),
	)

	if err != nil {
		r.log.Error("Failed to save booking payload",
			zap.Error(err),
			zap.String("transaction_id", booking.PaymentDetails.TransactionID),
		)
		return fmt.Errorf("save booking payload %s: %w", booking.PaymentDetails.TransactionID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", booking.PaymentDetails.TransactionID)
	}

	return nil
}

func (r *bookingRepository) FindPendingByMethodCreatedAfter(ctx context.Context, paymentMethod string, cutoff time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE payment_status = 'pending'
		  AND payment_method = $1
		  AND created_at >= $2
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, paymentMethod, cutoff)
	if err != nil {
		r.log.Error("Failed to find pending bookings by method",
			zap.Error(err),
			zap.String("payment_method", paymentMethod),
		)
		return nil, fmt.Errorf("find pending bookings for %s: %w", paymentMethod, err)
	}
	defer rows.Close()

	return r.collectBookings(rows)
}

func (r *bookingRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	// Processing counts as stale too: a booking parked there by an
	// intermediate gateway event whose terminal webhook never arrives
	// must still be swept.
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE payment_status IN ('pending', 'processing')
		  AND created_at < $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to find expired pending bookings", zap.Error(err))
		return nil, fmt.Errorf("find expired pending bookings: %w", err)
	}
	defer rows.Close()

	return r.collectBookings(rows)
}

// ==================== SCAN HELPERS ====================

func (r *bookingRepository) scanBooking(row pgx.Row) (*entity.Booking, error) {
	var (
		booking  entity.Booking
		flights  []byte
		hotel    []byte
		car      []byte
		vacation []byte
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.BookingType,
		&flights,
		&hotel,
		&car,
		&vacation,
		&booking.PaymentDetails.TransactionID,
		&booking.PaymentDetails.PaymentStatus,
		&booking.PaymentDetails.PaymentMethod,
		&booking.PaymentDetails.Amount,
		&booking.PaymentDetails.Currency,
		&booking.PaymentDetails.GatewayPaymentID,
		&booking.BookingStatus,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalPayloads(&booking, flights, hotel, car, vacation); err != nil {
		return nil, fmt.Errorf("unmarshal booking payloads: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func marshalPayloads(booking *entity.Booking) (flights, hotel, car, vacation []byte, err error) {
	if len(booking.Flights) > 0 {
		if flights, err = json.Marshal(booking.Flights); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if booking.Hotel != nil {
		if hotel, err = json.Marshal(booking.Hotel); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if booking.Car != nil {
		if car, err = json.Marshal(booking.Car); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if booking.Vacation != nil {
		if vacation, err = json.Marshal(booking.Vacation); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return flights, hotel, car, vacation, nil
}

func unmarshalPayloads(booking *entity.Booking, flights, hotel, car, vacation []byte) error {
	if len(flights) > 0 {
		if err := json.Unmarshal(flights, &booking.Flights); err != nil {
			return err
		}
	}
	if len(hotel) > 0 {
		booking.Hotel = &entity.HotelStay{}
		if err := json.Unmarshal(hotel, booking.Hotel); err != nil {
			return err
		}
	}
	if len(car) > 0 {
		booking.Car = &entity.CarTransfer{}
		if err := json.Unmarshal(car, booking.Car); err != nil {
			return err
		}
	}
	if len(vacation) > 0 {
		booking.Vacation = &entity.VacationPackage{}
		if err := json.Unmarshal(vacation, booking.Vacation); err != nil {
			return err
		}
	}
	return nil
}
