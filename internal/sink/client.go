package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
)

const (
	maxAttempts = 3
	backoffBase = time.Second
	backoffCap  = 10 * time.Second
	sourceTag   = "telegram-bot"
)

// StatusError описывает неуспешный HTTP-ответ webhook таблицы.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sheet webhook status %d: %s", e.StatusCode, e.Body)
}

// Client записывает отзывы в webhook внешней таблицы.
type Client struct {
	webhookURL string
	webhookKey string
	httpClient *http.Client
	logger     *slog.Logger
	sleep      func(time.Duration)
}

// NewClient создает клиент webhook таблицы.
func NewClient(webhookURL, webhookKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		webhookURL: strings.TrimSpace(webhookURL),
		webhookKey: strings.TrimSpace(webhookKey),
		httpClient: httpClient,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

type appendPayload struct {
	Vacancy              string `json:"vacancy"`
	VacancyID            string `json:"vacancy_id"`
	HiringManager        string `json:"hiring_manager"`
	Comment              string `json:"comment"`
	Recruiter            string `json:"recruiter"`
	Overall              int    `json:"overall"`
	OverallRating        int    `json:"overall_rating"`
	CommsRating          int    `json:"comms_rating"`
	TimelinessRating     int    `json:"timeliness_rating"`
	RelevanceRating      int    `json:"relevance_rating"`
	ProcessQualityRating int    `json:"process_quality_rating"`
	Recommendations      string `json:"recommendations"`
	SubmittedAt          string `json:"submitted_at"`
	TelegramUserID       int64  `json:"telegram_user_id"`
	Source               string `json:"source"`
	Row                  []any  `json:"row"`
}

func buildPayload(record feedback.Record) appendPayload {
	vacancy := record.VacancyTitle
	if vacancy == "" {
		vacancy = record.VacancyID
	}
	recommendations := record.Recommendations
	if recommendations == "" {
		recommendations = record.FeedbackComment
	}
	return appendPayload{
		Vacancy:              vacancy,
		VacancyID:            record.VacancyID,
		HiringManager:        record.HiringManagerName,
		Comment:              record.FeedbackComment,
		Recruiter:            record.RecruiterName,
		Overall:              record.OverallRating,
		OverallRating:        record.OverallRating,
		CommsRating:          record.CommsRating,
		TimelinessRating:     record.TimelinessRating,
		RelevanceRating:      record.RelevanceRating,
		ProcessQualityRating: record.ProcessQualityRating,
		Recommendations:      record.Recommendations,
		SubmittedAt:          record.SubmittedAt.Format(time.RFC3339),
		TelegramUserID:       record.TelegramUserID,
		Source:               sourceTag,
		// Позиционное отображение на колонки листа A-I.
		Row: []any{
			vacancy,
			record.HiringManagerName,
			recommendations,
			record.RecruiterName,
			record.OverallRating,
			record.CommsRating,
			record.TimelinessRating,
			record.RelevanceRating,
			record.ProcessQualityRating,
		},
	}
}

// Append записывает один отзыв в таблицу. Неудачные попытки повторяются
// с экспоненциальной задержкой; после maxAttempts ошибка возвращается
// вызывающему.
func (c *Client) Append(ctx context.Context, record feedback.Record) error {
	var lastErr error
	backoff := backoffBase
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.post(ctx, record)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("sheet webhook attempt failed",
			slog.Int("attempt", attempt),
			slog.String("vacancy_id", record.VacancyID),
			slog.String("error", lastErr.Error()))
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < maxAttempts {
			c.sleep(backoff)
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}
	}
	return lastErr
}

func (c *Client) post(ctx context.Context, record feedback.Record) error {
	body, err := json.Marshal(buildPayload(record))
	if err != nil {
		return fmt.Errorf("sheet webhook encode: %w", err)
	}

	endpoint := c.webhookURL
	params := url.Values{"key": {c.webhookKey}}
	endpoint += "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sheet webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheet webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	c.logger.Info("feedback sent to sheet webhook",
		slog.String("vacancy_id", record.VacancyID),
		slog.Int("status", resp.StatusCode))
	return nil
}
