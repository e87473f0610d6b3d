package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoSpeech сообщает, что распознаватель не вернул текст.
var ErrNoSpeech = errors.New("no speech recognized")

// Transcriber переводит аудио в текст.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// StatusError описывает неуспешный ответ сервиса распознавания.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("speech api status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient отправляет аудио на HTTP-сервис распознавания речи.
type HTTPClient struct {
	endpoint   string
	language   string
	httpClient *http.Client
}

// NewHTTPClient создает клиент распознавания речи.
func NewHTTPClient(endpoint, language string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		language:   language,
		httpClient: httpClient,
	}
}

type recognizeResponse struct {
	Transcript string `json:"transcript"`
}

func (c *HTTPClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("speech api endpoint is not configured")
	}

	endpoint := c.endpoint
	if c.language != "" {
		endpoint += "?" + url.Values{"language": {c.language}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("speech recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var parsed recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("speech recognize decode: %w", err)
	}

	transcript := strings.TrimSpace(parsed.Transcript)
	if transcript == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}
