// Package events publishes domain notifications over NATS. The publisher is
// optional at runtime; a nil *Publisher drops everything silently so the
// chat and ingestion paths never depend on the broker being up.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/parleyhq/parley/internal/booking"
	"github.com/parleyhq/parley/internal/ingest"
)

const (
	SubjectBookingCreated   = "parley.booking.created"
	SubjectDocumentIngested = "parley.document.ingested"
)

// BookingCreatedEvent announces a persisted booking.
type BookingCreatedEvent struct {
	BookingID     string `json:"booking_id"`
	SessionID     string `json:"session_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	InterviewType string `json:"interview_type"`
}

// DocumentIngestedEvent announces a completed ingestion run.
type DocumentIngestedEvent struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
	Strategy      string `json:"strategy"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}

// BookingCreated publishes the booking notification. Failures are logged,
// never surfaced; the booking is already persisted.
func (p *Publisher) BookingCreated(_ context.Context, res booking.Result, sessionID string) {
	if p == nil || res.BookingID == nil || res.Draft == nil {
		return
	}
	p.publish(SubjectBookingCreated, BookingCreatedEvent{
		BookingID:     res.BookingID.String(),
		SessionID:     sessionID,
		Name:          res.Draft.Name,
		Email:         res.Draft.Email,
		Date:          res.Draft.Date,
		Time:          res.Draft.Time,
		InterviewType: res.Draft.InterviewType,
	})
}

// DocumentIngested publishes the ingestion notification.
func (p *Publisher) DocumentIngested(_ context.Context, res ingest.Result, filename string) {
	if p == nil {
		return
	}
	p.publish(SubjectDocumentIngested, DocumentIngestedEvent{
		DocumentID:    res.DocumentID.String(),
		Filename:      filename,
		ChunksCreated: res.ChunksCreated,
		Strategy:      res.Strategy,
	})
}

func (p *Publisher) publish(subject string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		p.logger.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("publish event", "subject", subject, "error", err)
	}
}
