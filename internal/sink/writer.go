package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/metrics"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/store"
)

// Result описывает судьбу одного отзыва после записи.
type Result int

const (
	// Delivered — отзыв записан во внешнюю таблицу.
	Delivered Result = iota
	// Buffered — запись не удалась, отзыв сохранен в локальном буфере.
	Buffered
	// BufferedNotConfigured — webhook таблицы не настроен, отзыв сохранен
	// в локальном буфере.
	BufferedNotConfigured
)

// Appender записывает один отзыв во внешнюю таблицу.
type Appender interface {
	Append(ctx context.Context, record feedback.Record) error
}

// Writer доставляет отзыв в таблицу или, при неудаче, в локальный буфер.
// Каждый отзыв попадает ровно в одно из двух мест.
type Writer struct {
	sink      Appender
	buffer    store.FeedbackBuffer
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewWriter создает Writer. sink может быть nil, если webhook не настроен.
func NewWriter(sink Appender, buffer store.FeedbackBuffer, collector *metrics.Collector, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		sink:      sink,
		buffer:    buffer,
		collector: collector,
		logger:    logger,
	}
}

// Write пытается доставить отзыв в таблицу и буферизует его при неудаче.
func (w *Writer) Write(ctx context.Context, record feedback.Record) (Result, error) {
	if w.sink == nil {
		w.logger.Warn("sheet webhook not configured, buffering feedback locally",
			slog.String("vacancy_id", record.VacancyID))
		if err := w.buffer.Add(ctx, record); err != nil {
			return BufferedNotConfigured, fmt.Errorf("buffer feedback: %w", err)
		}
		w.incBuffered()
		return BufferedNotConfigured, nil
	}

	if err := w.sink.Append(ctx, record); err != nil {
		w.logger.Error("sheet webhook write failed, buffering feedback locally",
			slog.String("vacancy_id", record.VacancyID),
			slog.String("error", err.Error()))
		if bufErr := w.buffer.Add(ctx, record); bufErr != nil {
			return Buffered, fmt.Errorf("buffer feedback: %w", bufErr)
		}
		w.incBuffered()
		return Buffered, nil
	}

	if w.collector != nil {
		w.collector.IncRecordsDelivered()
	}
	return Delivered, nil
}

func (w *Writer) incBuffered() {
	if w.collector != nil {
		w.collector.IncRecordsBuffered()
	}
}
