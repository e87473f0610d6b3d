package telegram

import (
	"context"
	"log/slog"
	"time"
)

// Poller получает обновления через long polling для разработки.
type Poller struct {
	client      *Client
	handler     UpdateHandler
	logger      *slog.Logger
	timeout     time.Duration
	interval    time.Duration
	limit       int
	dropPending bool
	dropWebhook bool
}

// NewPoller создает poller поверх getUpdates.
func NewPoller(client *Client, handler UpdateHandler, logger *slog.Logger, timeout, interval time.Duration, limit int, dropPending, dropWebhook bool) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:      client,
		handler:     handler,
		logger:      logger,
		timeout:     timeout,
		interval:    interval,
		limit:       limit,
		dropPending: dropPending,
		dropWebhook: dropWebhook,
	}
}

// Run опрашивает Telegram до отмены контекста. Каждое обновление
// обрабатывается в своей горутине; порядок внутри одного чата
// обеспечивается блокировкой сессии пользователя в обработчике.
func (p *Poller) Run(ctx context.Context) {
	if p.dropWebhook {
		deleteCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := p.client.DeleteWebhook(deleteCtx, p.dropPending); err != nil {
			p.logger.Warn("delete webhook failed", slog.String("error", err.Error()))
		}
		cancel()
	}

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.timeout, p.limit)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("get updates failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.interval):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			go func(update Update) {
				if err := p.handler.HandleUpdate(ctx, update); err != nil {
					p.logger.Error("failed to handle telegram update", slog.Int64("update_id", update.UpdateID), slog.String("error", err.Error()))
				}
			}(update)
		}

		if len(updates) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.interval):
			}
		}
	}
}
