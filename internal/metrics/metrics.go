package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Collector считает события процесса для страницы /metrics.
type Collector struct {
	requests        uint64
	errors          uint64
	eventsAccepted  uint64
	eventsDuplicate uint64
	delivered       uint64
	buffered        uint64
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) IncRequests() {
	atomic.AddUint64(&c.requests, 1)
}

func (c *Collector) IncErrors() {
	atomic.AddUint64(&c.errors, 1)
}

func (c *Collector) IncEventsAccepted() {
	atomic.AddUint64(&c.eventsAccepted, 1)
}

func (c *Collector) IncEventsDuplicate() {
	atomic.AddUint64(&c.eventsDuplicate, 1)
}

func (c *Collector) IncRecordsDelivered() {
	atomic.AddUint64(&c.delivered, 1)
}

func (c *Collector) IncRecordsBuffered() {
	atomic.AddUint64(&c.buffered, 1)
}

// Snapshot возвращает текущие значения счетчиков.
func (c *Collector) Snapshot() (requests, errors, accepted, duplicate, delivered, buffered uint64) {
	return atomic.LoadUint64(&c.requests),
		atomic.LoadUint64(&c.errors),
		atomic.LoadUint64(&c.eventsAccepted),
		atomic.LoadUint64(&c.eventsDuplicate),
		atomic.LoadUint64(&c.delivered),
		atomic.LoadUint64(&c.buffered)
}

type Handler struct {
	collector *Collector
}

func NewHandler(collector *Collector) *Handler {
	return &Handler{collector: collector}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	var requests, errors, accepted, duplicate, delivered, buffered uint64
	if h.collector != nil {
		requests, errors, accepted, duplicate, delivered, buffered = h.collector.Snapshot()
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = fmt.Fprintf(w, "# HELP feedback_bot_requests_total Total number of HTTP requests.\n")
	_, _ = fmt.Fprintf(w, "# TYPE feedback_bot_requests_total counter\n")
	_, _ = fmt.Fprintf(w, "feedback_bot_requests_total %d\n", requests)
	_, _ = fmt.Fprintf(w, "# HELP feedback_bot_errors_total Total number of 5xx HTTP responses.\n")
	_, _ = fmt.Fprintf(w, "# TYPE feedback_bot_errors_total counter\n")
	_, _ = fmt.Fprintf(w, "feedback_bot_errors_total %d\n", errors)
	_, _ = fmt.Fprintf(w, "# HELP feedback_bot_events_accepted_total Vacancy closed events accepted for fan-out.\n")
	_, _ = fmt.Fprintf(w, "# TYPE feedback_bot_events_accepted_total counter\n")
	_, _ = fmt.Fprintf(w, "feedback_bot_events_accepted_total %d\n", accepted)
	_, _ = fmt.Fprintf(w, "# HELP feedback_bot_events_duplicate_total Vacancy closed events rejected as duplicates.\n")
	_, _ = fmt.Fprintf(w, "# TYPE feedback_bot_events_duplicate_total counter\n")
	_, _ = fmt.Fprintf(w, "feedback_bot_events_duplicate_total %d\n", duplicate)
	_, _ = fmt.Fprintf(w, "# HELP feedback_bot_records_delivered_total Feedback records written to the sheet webhook.\n")
	_, _ = fmt.Fprintf(w, "# TYPE feedback_bot_records_delivered_total counter\n")
	_, _ = fmt.Fprintf(w, "feedback_bot_records_delivered_total %d\n", delivered)
	_, _ = fmt.Fprintf(w, "# HELP feedback_bot_records_buffered_total Feedback records kept in the local fallback buffer.\n")
	_, _ = fmt.Fprintf(w, "# TYPE feedback_bot_records_buffered_total counter\n")
	_, _ = fmt.Fprintf(w, "feedback_bot_records_buffered_total %d\n", buffered)
}
