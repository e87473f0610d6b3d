package intake

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/metrics"
)

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func newTestHandler(collector *metrics.Collector) (*WebhookHandler, *fakeSender) {
	sender := &fakeSender{}
	service, _ := newTestService(sender, nil, 0)
	return NewWebhookHandler(service, "secret", nil, collector, slog.Default()), sender
}

func postEvent(handler http.Handler, secret string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/friendwork/webhook", bytes.NewBufferString(body))
	if secret != "" {
		req.Header.Set("X-Friendwork-Secret", secret)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

const eventBody = `{"event_id":"e1","vacancy_id":"v1","vacancy_title":"Go Developer","recruiter_name":"Jane","hiring_manager_ids":[42]}`

func TestIntakeWebhookUnauthorized(t *testing.T) {
	handler, sender := newTestHandler(nil)

	rec := postEvent(handler, "", eventBody)
	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Result().StatusCode)
	}
	rec = postEvent(handler, "wrong", eventBody)
	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", rec.Result().StatusCode)
	}
	if len(sender.invitedChatIDs()) != 0 {
		t.Fatalf("expected no fan-out for unauthorized requests")
	}
}

func TestIntakeWebhookMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/friendwork/webhook", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Result().StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Result().StatusCode)
	}
}

func TestIntakeWebhookAccepted(t *testing.T) {
	collector := metrics.NewCollector()
	handler, sender := newTestHandler(collector)

	rec := postEvent(handler, "secret", eventBody)
	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Result().StatusCode)
	}

	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %q", resp.Status)
	}
	if got := sender.invitedChatIDs(); len(got) != 1 || got[0] != 42 {
		t.Fatalf("expected invite to 42, got %v", got)
	}
	_, _, accepted, duplicate, _, _ := collector.Snapshot()
	if accepted != 1 || duplicate != 0 {
		t.Fatalf("expected accepted=1 duplicate=0, got %d/%d", accepted, duplicate)
	}
}

func TestIntakeWebhookDuplicate(t *testing.T) {
	collector := metrics.NewCollector()
	handler, _ := newTestHandler(collector)

	postEvent(handler, "secret", eventBody)
	rec := postEvent(handler, "secret", eventBody)
	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for duplicate, got %d", rec.Result().StatusCode)
	}

	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "duplicate" {
		t.Fatalf("expected status duplicate, got %q", resp.Status)
	}
	_, _, accepted, duplicate, _, _ := collector.Snapshot()
	if accepted != 1 || duplicate != 1 {
		t.Fatalf("expected accepted=1 duplicate=1, got %d/%d", accepted, duplicate)
	}
}

func TestIntakeWebhookBadPayload(t *testing.T) {
	handler, _ := newTestHandler(nil)

	rec := postEvent(handler, "secret", `{"event_id":`)
	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Result().StatusCode)
	}

	rec = postEvent(handler, "secret", `{"vacancy_id":"v1"}`)
	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing event_id, got %d", rec.Result().StatusCode)
	}
}

func TestIntakeWebhookRateLimited(t *testing.T) {
	sender := &fakeSender{}
	service, _ := newTestService(sender, nil, 0)
	handler := NewWebhookHandler(service, "secret", denyAllLimiter{}, nil, slog.Default())

	rec := postEvent(handler, "secret", eventBody)
	if rec.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Result().StatusCode)
	}
}
