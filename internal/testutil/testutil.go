// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"orma/internal/database"
	"orma/internal/payments"
	"orma/internal/queue"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns a migrated in-memory database closed when t ends. A single
// connection keeps every query on the same in-memory database.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// ObjectStoreStub records stored keys in memory.
type ObjectStoreStub struct {
	mu   sync.Mutex
	keys []string
	Err  error
}

func (s *ObjectStoreStub) Put(_ context.Context, key, _ string, _ []byte) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return nil
}

func (s *ObjectStoreStub) PresignGet(_ context.Context, key string) (string, error) {
	return "https://signed.example.com/" + key + "?sig=1", nil
}

// Keys returns the stored keys in order.
func (s *ObjectStoreStub) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

// PublisherStub records published processing jobs.
type PublisherStub struct {
	mu   sync.Mutex
	msgs []queue.Message
	Err  error
}

func (p *PublisherStub) Publish(_ context.Context, msg queue.Message) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

// Messages returns the published jobs in order.
func (p *PublisherStub) Messages() []queue.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.Message(nil), p.msgs...)
}

// SMSStub captures sent message bodies.
type SMSStub struct {
	mu   sync.Mutex
	sent []string
	Err  error
}

func (s *SMSStub) Send(_ context.Context, _ string, body string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return nil
}

// Sent returns the message bodies in order.
func (s *SMSStub) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// PaymentStub records charges. Status defaults to succeeded.
type PaymentStub struct {
	mu      sync.Mutex
	charges []payments.Charge
	Status  string
	Err     error
}

func (p *PaymentStub) Charge(_ context.Context, in payments.Charge) (*payments.Receipt, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges = append(p.charges, in)
	status := p.Status
	if status == "" {
		status = payments.StatusSucceeded
	}
	return &payments.Receipt{ID: "pi_test", Status: status}, nil
}

// Charges returns the recorded charges in order.
func (p *PaymentStub) Charges() []payments.Charge {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payments.Charge(nil), p.charges...)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
