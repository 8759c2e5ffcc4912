package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "staybook/internal/app/outbox"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Store is the relay side of the outbox: flushed records are claimed in
// batches, acked once published and nacked back on failure.
type Store interface {
	Claim(ctx context.Context, limit int) ([]appoutbox.EventRecord, error)
	Ack(ctx context.Context, ids []string) error
	Nack(ctx context.Context, ids []string) error
}

// Worker relays flushed outbox records to the broker as CloudEvents.
// Delivery is at-least-once: a record is acked only after a successful
// publish, so consumers must tolerate duplicates.
type Worker struct {
	Store       Store
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	BatchSize   int
	TopicPrefix string
	Source      string
	Backoff     []time.Duration

	failures int
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	timer := time.NewTimer(w.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			w.processOnce(ctx)
			timer.Reset(w.nextDelay())
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) {
	batch, err := w.Store.Claim(ctx, w.batchSize())
	if err != nil {
		w.logError("outbox claim failed", err)
		w.failures++
		return
	}
	if len(batch) == 0 {
		w.failures = 0
		return
	}
	var acked, nacked []string
	for _, rec := range batch {
		if err := w.publish(ctx, rec); err != nil {
			w.logError("outbox publish failed", err, "event", rec.Name, "id", rec.ID)
			nacked = append(nacked, rec.ID)
			continue
		}
		acked = append(acked, rec.ID)
	}
	if len(acked) > 0 {
		if err := w.Store.Ack(ctx, acked); err != nil {
			w.logError("outbox ack failed", err)
		}
	}
	if len(nacked) > 0 {
		if err := w.Store.Nack(ctx, nacked); err != nil {
			w.logError("outbox nack failed", err)
		}
		w.failures++
		return
	}
	w.failures = 0
}

func (w *Worker) publish(ctx context.Context, rec appoutbox.EventRecord) error {
	payload, headers, err := w.formatPayload(rec)
	if err != nil {
		return err
	}
	return w.Producer.Publish(ctx, w.topicFor(rec.Name), rec.Aggregate, payload, headers)
}

func (w *Worker) formatPayload(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor routes events by their aggregate prefix: reservation.* goes
// to reservation.events.v1 and so on.
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 64
	}
	return w.BatchSize
}

// nextDelay stretches the poll interval after consecutive failures.
func (w *Worker) nextDelay() time.Duration {
	if w.failures == 0 || len(w.Backoff) == 0 {
		return w.interval()
	}
	idx := w.failures - 1
	if idx >= len(w.Backoff) {
		idx = len(w.Backoff) - 1
	}
	return w.Backoff[idx]
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://staybook"
}

func (w *Worker) logError(msg string, err error, args ...any) {
	if w.Logger == nil {
		return
	}
	w.Logger.Error(msg, append([]any{"error", err}, args...)...)
}
