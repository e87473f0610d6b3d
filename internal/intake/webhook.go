package intake

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/metrics"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/observability"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/ratelimit"
)

const friendworkSecretHeader = "X-Friendwork-Secret"

// WebhookHandler проверяет запросы webhook FriendWork и передает события
// слою приема.
type WebhookHandler struct {
	service      *Service
	secret       string
	limiter      ratelimit.Limiter
	collector    *metrics.Collector
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewWebhookHandler создает обработчик webhook закрытия вакансий.
func NewWebhookHandler(service *Service, secret string, limiter ratelimit.Limiter, collector *metrics.Collector, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		service:      service,
		secret:       secret,
		limiter:      limiter,
		collector:    collector,
		maxBodyBytes: 1 << 20,
		logger:       logger,
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

// ServeHTTP реализует http.Handler для уведомлений о закрытии вакансий.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if r.Header.Get(friendworkSecretHeader) != h.secret {
		h.logger.Warn("unauthorized intake request", slog.String("request_id", observability.RequestIDFromContext(r.Context())))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if h.limiter != nil && !h.limiter.Allow("friendwork") {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer body.Close()

	payload, err := io.ReadAll(body)
	if err != nil {
		h.logger.Warn("failed to read intake body", slog.String("request_id", observability.RequestIDFromContext(r.Context())))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Warn("invalid intake payload", slog.String("request_id", observability.RequestIDFromContext(r.Context())))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	result, err := h.service.HandleEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to handle vacancy closed event",
			slog.String("request_id", observability.RequestIDFromContext(r.Context())),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if h.collector != nil {
		switch result {
		case ResultDuplicate:
			h.collector.IncEventsDuplicate()
		default:
			h.collector.IncEventsAccepted()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(statusResponse{Status: string(result)})
}
