package telegram

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeUpdateHandler struct {
	updates []Update
	err     error
}

func (f *fakeUpdateHandler) HandleUpdate(_ context.Context, update Update) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, update)
	return nil
}

func TestWebhookUnauthorized(t *testing.T) {
	bot := &fakeUpdateHandler{}
	handler := NewWebhookHandler(bot, "secret", slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewBufferString(`{"update_id":1}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Result().StatusCode)
	}
	if len(bot.updates) != 0 {
		t.Fatalf("expected update to be dropped, got %d", len(bot.updates))
	}
}

func TestWebhookSuccess(t *testing.T) {
	bot := &fakeUpdateHandler{}
	handler := NewWebhookHandler(bot, "secret", slog.Default())

	payload := `{"update_id":1,"message":{"message_id":1,"chat":{"id":12,"type":"private"},"text":"/start"}}`
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewBufferString(payload))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "secret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Result().StatusCode)
	}
	if len(bot.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(bot.updates))
	}
	update := bot.updates[0]
	if update.Message == nil || update.Message.Chat.ID != 12 {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestWebhookInvalidPayload(t *testing.T) {
	bot := &fakeUpdateHandler{}
	handler := NewWebhookHandler(bot, "secret", slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewBufferString(`{"update_id":`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "secret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Result().StatusCode)
	}
}

func TestWebhookHandlerError(t *testing.T) {
	bot := &fakeUpdateHandler{err: errors.New("boom")}
	handler := NewWebhookHandler(bot, "secret", slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewBufferString(`{"update_id":1}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "secret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Result().StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Result().StatusCode)
	}
}
