package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/store"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/telegram"
)

// Event — уведомление внешней системы о закрытии вакансии.
type Event struct {
	EventID          string  `json:"event_id"`
	VacancyID        string  `json:"vacancy_id"`
	VacancyTitle     string  `json:"vacancy_title"`
	RecruiterName    string  `json:"recruiter_name"`
	HiringManagerIDs []int64 `json:"hiring_manager_ids"`
}

// Result — исход обработки одного уведомления.
type Result string

const (
	ResultOK         Result = "ok"
	ResultDuplicate  Result = "duplicate"
	ResultNoManagers Result = "no_managers"
)

// ErrInvalidEvent сообщает о неполном payload уведомления.
var ErrInvalidEvent = errors.New("invalid event payload")

// Sender отправляет приглашения к отзыву.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithMarkup(ctx context.Context, chatID int64, text string, replyMarkup any) error
}

// Service валидирует, дедуплицирует и раздает уведомления о закрытых
// вакансиях.
type Service struct {
	sender      Sender
	users       store.UserStore
	vacancies   store.VacancyStore
	dedup       store.EventDedupStore
	adminChatID int64
	logger      *slog.Logger
}

// NewService создает слой приема уведомлений.
func NewService(sender Sender, users store.UserStore, vacancies store.VacancyStore, dedup store.EventDedupStore, adminChatID int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sender:      sender,
		users:       users,
		vacancies:   vacancies,
		dedup:       dedup,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// HandleEvent обрабатывает одно уведомление. ID события помечается
// обработанным до раздачи приглашений: повторная доставка того же события
// всегда дает duplicate, а падение процесса между пометкой и раздачей
// навсегда теряет эту раздачу. Это принятый компромисс.
func (s *Service) HandleEvent(ctx context.Context, event Event) (Result, error) {
	if strings.TrimSpace(event.EventID) == "" || strings.TrimSpace(event.VacancyID) == "" {
		return "", ErrInvalidEvent
	}

	first, err := s.dedup.MarkSeen(ctx, event.EventID)
	if err != nil {
		return "", fmt.Errorf("mark event %s: %w", event.EventID, err)
	}
	if !first {
		return ResultDuplicate, nil
	}

	vacancy := feedback.VacancyAssignment{
		VacancyID:        event.VacancyID,
		VacancyTitle:     event.VacancyTitle,
		RecruiterName:    event.RecruiterName,
		HiringManagerIDs: event.HiringManagerIDs,
	}
	if err := s.vacancies.Upsert(ctx, vacancy); err != nil {
		return "", fmt.Errorf("upsert vacancy %s: %w", event.VacancyID, err)
	}

	if len(vacancy.HiringManagerIDs) == 0 {
		s.notifyAdmin(ctx, fmt.Sprintf("No hiring managers found for vacancy %s", vacancy.VacancyID))
		return ResultNoManagers, nil
	}

	s.fanOut(ctx, vacancy)
	return ResultOK, nil
}

// fanOut отправляет приглашение каждому активному менеджеру. Ошибка
// доставки одному получателю не прерывает раздачу остальным.
func (s *Service) fanOut(ctx context.Context, vacancy feedback.VacancyAssignment) {
	text := fmt.Sprintf("Vacancy closed: %s\nRecruiter: %s\nCan you leave feedback now?",
		vacancy.VacancyTitle, vacancy.RecruiterName)
	for _, managerID := range vacancy.HiringManagerIDs {
		user, err := s.users.Get(ctx, managerID)
		if err == nil && user.Status != feedback.StatusActive {
			continue
		}
		if err != nil && !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Warn("user lookup failed during fan-out", slog.Int64("chat_id", managerID), slog.String("error", err.Error()))
		}
		if err := s.sender.SendMessageWithMarkup(ctx, managerID, text, feedbackKeyboard(vacancy.VacancyID)); err != nil {
			s.logger.Warn("failed to send feedback request",
				slog.Int64("chat_id", managerID),
				slog.String("vacancy_id", vacancy.VacancyID),
				slog.String("error", err.Error()))
		}
	}
}

func (s *Service) notifyAdmin(ctx context.Context, text string) {
	if s.adminChatID == 0 {
		s.logger.Info("admin notification skipped", slog.String("text", text))
		return
	}
	if err := s.sender.SendMessage(ctx, s.adminChatID, text); err != nil {
		s.logger.Error("failed to notify admin", slog.String("error", err.Error()))
	}
}

func feedbackKeyboard(vacancyID string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Provide feedback now", CallbackData: "start_feedback:" + vacancyID}},
			{{Text: "Remind me later", CallbackData: "remind_feedback:" + vacancyID}},
		},
	}
}
