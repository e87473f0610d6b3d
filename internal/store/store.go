package store

import (
	"context"
	"errors"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
)

// ErrUserNotFound сообщает об отсутствии зарегистрированного пользователя.
var ErrUserNotFound = errors.New("user not found")

// ErrVacancyNotFound сообщает об отсутствии назначения вакансии.
var ErrVacancyNotFound = errors.New("vacancy assignment not found")

// UserStore хранит зарегистрированных пользователей по ID Telegram.
type UserStore interface {
	Get(ctx context.Context, telegramID int64) (feedback.User, error)
	Upsert(ctx context.Context, user feedback.User) error
}

// VacancyStore хранит назначения вакансий по ID вакансии.
type VacancyStore interface {
	Get(ctx context.Context, vacancyID string) (feedback.VacancyAssignment, error)
	Upsert(ctx context.Context, vacancy feedback.VacancyAssignment) error
}

// EventDedupStore хранит ID уже обработанных событий.
type EventDedupStore interface {
	// MarkSeen записывает ID события и сообщает, был ли этот вызов первым.
	// Проверка и запись атомарны относительно других вызовов.
	MarkSeen(ctx context.Context, eventID string) (bool, error)
}

// FeedbackBuffer хранит отзывы, не доставленные во внешнюю таблицу.
type FeedbackBuffer interface {
	Add(ctx context.Context, record feedback.Record) error
	Recent(ctx context.Context, limit int) ([]feedback.Record, error)
}
