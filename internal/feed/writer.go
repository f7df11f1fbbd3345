package feed

import (
	"context"
	"log/slog"
	"time"

	"orma/internal/database"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// EntryStore persists a feed entry together with its score.
type EntryStore interface {
	InsertEntryWithScore(ctx context.Context, entry *models.FeedEntry, score float64) error
}

// Input describes a freshly uploaded post to place on the timeline.
type Input struct {
	PostID     uint
	CategoryID uint
	EventHash  string
	CapturedAt time.Time
}

const (
	defaultWriteAttempts = 3
	defaultWriteBackoff  = 50 * time.Millisecond
)

// Writer records posts on the feed.
type Writer struct {
	store    EntryStore
	scorer   *Scorer
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewWriter returns a Writer that retries transient database errors up to three
// times with exponential backoff starting at 50ms.
func NewWriter(store EntryStore, scorer *Scorer) *Writer {
	return &Writer{
		store:    store,
		scorer:   scorer,
		attempts: defaultWriteAttempts,
		backoff:  defaultWriteBackoff,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Record quantizes the capture time, then writes the feed entry and the category
// score in one transaction. The write is idempotent per post.
func (w *Writer) Record(ctx context.Context, in Input) (err error) {
	ctx, span := observability.StartSpan(ctx, "feed.record", in.EventHash)
	defer func() { observability.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int64("orma.post_id", int64(in.PostID)))

	score := w.scorer.Score(ctx, in.CategoryID)
	entry := models.FeedEntry{
		PostID:     in.PostID,
		Timeslot:   Quantize(in.CapturedAt),
		CategoryID: in.CategoryID,
		EventHash:  in.EventHash,
	}

	for attempt := 1; ; attempt++ {
		err = w.store.InsertEntryWithScore(ctx, &entry, score)
		if err == nil {
			observability.FeedWrites.WithLabelValues("ok").Inc()
			return nil
		}

		transient := database.IsTransient(err) && ctx.Err() == nil
		if !transient || attempt >= w.attempts {
			reason := "permanent"
			if transient {
				reason = "transient"
			}
			observability.FeedWrites.WithLabelValues("failed").Inc()
			observability.FeedWriteFailures.WithLabelValues(reason).Inc()
			middleware.Logger.ErrorContext(ctx, "feed write failed",
				slog.Uint64("post_id", uint64(in.PostID)),
				slog.String("event_hash", in.EventHash),
				slog.Int("attempts", attempt),
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
			return err
		}

		observability.FeedWriteRetries.Inc()
		wait := w.backoff << (attempt - 1)
		middleware.Logger.WarnContext(ctx, "feed write hit a transient error, retrying",
			slog.Uint64("post_id", uint64(in.PostID)),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		if sleepErr := w.sleep(ctx, wait); sleepErr != nil {
			return models.WrapDependency("database", sleepErr)
		}
	}
}
