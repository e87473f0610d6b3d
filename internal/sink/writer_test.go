package sink

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/metrics"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/store"
)

type fakeAppender struct {
	err     error
	records []feedback.Record
}

func (f *fakeAppender) Append(_ context.Context, record feedback.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func TestWriteDelivered(t *testing.T) {
	appender := &fakeAppender{}
	buffer := store.NewMemoryFeedbackBuffer()
	collector := metrics.NewCollector()
	writer := NewWriter(appender, buffer, collector, slog.Default())

	result, err := writer.Write(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if result != Delivered {
		t.Fatalf("expected delivered, got %v", result)
	}
	if len(appender.records) != 1 {
		t.Fatalf("expected 1 record appended, got %d", len(appender.records))
	}
	buffered, err := buffer.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("read buffer: %v", err)
	}
	if len(buffered) != 0 {
		t.Fatalf("expected empty buffer after delivery, got %d", len(buffered))
	}
	_, _, _, _, delivered, bufferedCount := collector.Snapshot()
	if delivered != 1 || bufferedCount != 0 {
		t.Fatalf("expected delivered=1 buffered=0, got %d/%d", delivered, bufferedCount)
	}
}

func TestWriteBuffersOnSinkFailure(t *testing.T) {
	appender := &fakeAppender{err: errors.New("webhook down")}
	buffer := store.NewMemoryFeedbackBuffer()
	collector := metrics.NewCollector()
	writer := NewWriter(appender, buffer, collector, slog.Default())

	record := testRecord()
	result, err := writer.Write(context.Background(), record)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if result != Buffered {
		t.Fatalf("expected buffered, got %v", result)
	}

	buffered, err := buffer.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("read buffer: %v", err)
	}
	if len(buffered) != 1 {
		t.Fatalf("expected exactly one buffered record, got %d", len(buffered))
	}
	got := buffered[0]
	if got.VacancyID != record.VacancyID || got.OverallRating != record.OverallRating ||
		got.Recommendations != record.Recommendations || !got.SubmittedAt.Equal(record.SubmittedAt) {
		t.Fatalf("buffered record differs from submitted one: %+v", got)
	}
	_, _, _, _, delivered, bufferedCount := collector.Snapshot()
	if delivered != 0 || bufferedCount != 1 {
		t.Fatalf("expected delivered=0 buffered=1, got %d/%d", delivered, bufferedCount)
	}
}

func TestWriteBuffersWhenSinkNotConfigured(t *testing.T) {
	buffer := store.NewMemoryFeedbackBuffer()
	writer := NewWriter(nil, buffer, nil, slog.Default())

	result, err := writer.Write(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if result != BufferedNotConfigured {
		t.Fatalf("expected buffered-not-configured, got %v", result)
	}
	buffered, err := buffer.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("read buffer: %v", err)
	}
	if len(buffered) != 1 {
		t.Fatalf("expected one buffered record, got %d", len(buffered))
	}
}

type failingBuffer struct{}

func (failingBuffer) Add(context.Context, feedback.Record) error {
	return errors.New("disk full")
}

func (failingBuffer) Recent(context.Context, int) ([]feedback.Record, error) {
	return nil, nil
}

func TestWriteReportsBufferFailure(t *testing.T) {
	appender := &fakeAppender{err: errors.New("webhook down")}
	writer := NewWriter(appender, failingBuffer{}, nil, slog.Default())

	result, err := writer.Write(context.Background(), testRecord())
	if err == nil {
		t.Fatalf("expected error when buffer write fails")
	}
	if result != Buffered {
		t.Fatalf("expected buffered result alongside error, got %v", result)
	}
}
