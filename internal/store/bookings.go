package store

import (
	"context"
	"fmt"

	"github.com/parleyhq/parley/internal/booking"
)

// SaveBooking writes a confirmed booking record.
func (s *Store) SaveBooking(ctx context.Context, rec booking.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings (id, name, email, date, time, interview_type, session_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Name, rec.Email, rec.Date, rec.Time, rec.InterviewType, rec.SessionID, rec.Status, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// RecentBookings lists the newest bookings, most recent first.
func (s *Store) RecentBookings(ctx context.Context, limit int) ([]booking.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, date, time, interview_type, session_id, status, created_at
		FROM bookings ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var out []booking.Record
	for rows.Next() {
		var rec booking.Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Date, &rec.Time,
			&rec.InterviewType, &rec.SessionID, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
