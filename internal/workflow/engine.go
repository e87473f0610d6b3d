package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/ratelimit"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/sink"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/speech"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/store"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/telegram"
)

const (
	startFeedbackPrefix  = "start_feedback:"
	remindFeedbackPrefix = "remind_feedback:"

	manualVacancyID = "manual"
)

// Sender отправляет исходящие сообщения и подтверждает нажатия кнопок.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithMarkup(ctx context.Context, chatID int64, text string, replyMarkup any) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
}

// RecordWriter доставляет завершенный отзыв в таблицу или буфер.
type RecordWriter interface {
	Write(ctx context.Context, record feedback.Record) (sink.Result, error)
}

// BotDeps перечисляет зависимости диалогового движка.
type BotDeps struct {
	Sender       Sender
	Files        telegram.FileDownloader
	Users        store.UserStore
	Vacancies    store.VacancyStore
	Buffer       store.FeedbackBuffer
	Writer       RecordWriter
	Transcriber  speech.Transcriber
	Sessions     *SessionStore
	Limiter      ratelimit.Limiter
	AdminChatID  int64
	AdminContact string
	BufferLimit  int
	Logger       *slog.Logger
}

// Bot ведет диалоги регистрации и сбора отзывов.
type Bot struct {
	sender       Sender
	files        telegram.FileDownloader
	users        store.UserStore
	vacancies    store.VacancyStore
	buffer       store.FeedbackBuffer
	writer       RecordWriter
	transcriber  speech.Transcriber
	sessions     *SessionStore
	limiter      ratelimit.Limiter
	adminChatID  int64
	adminContact string
	bufferLimit  int
	logger       *slog.Logger
	clock        func() time.Time
}

// NewBot создает диалоговый движок.
func NewBot(deps BotDeps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewSessionStore()
	}
	bufferLimit := deps.BufferLimit
	if bufferLimit <= 0 {
		bufferLimit = 20
	}
	return &Bot{
		sender:       deps.Sender,
		files:        deps.Files,
		users:        deps.Users,
		vacancies:    deps.Vacancies,
		buffer:       deps.Buffer,
		writer:       deps.Writer,
		transcriber:  deps.Transcriber,
		sessions:     sessions,
		limiter:      deps.Limiter,
		adminChatID:  deps.AdminChatID,
		adminContact: deps.AdminContact,
		bufferLimit:  bufferLimit,
		logger:       logger,
		clock:        time.Now,
	}
}

// HandleUpdate маршрутизирует одно обновление Telegram. События одного
// пользователя обрабатываются строго по очереди под его блокировкой.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.Chat.ID <= 0 {
		return nil
	}
	if msg.Chat.Type != "" && msg.Chat.Type != "private" {
		return nil
	}
	chatID := msg.Chat.ID
	if b.limiter != nil && !b.limiter.Allow(strconv.FormatInt(chatID, 10)) {
		b.logger.Debug("inbound message rate limited", slog.Int64("chat_id", chatID))
		return nil
	}

	lock := b.sessions.UserLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		command, _ := parseCommand(text)
		switch command {
		case "/start":
			return b.sender.SendMessage(ctx, chatID, msgStart)
		case "/help":
			return b.sender.SendMessage(ctx, chatID, msgHelp)
		case "/register":
			return b.handleRegisterCommand(ctx, chatID)
		case "/feedback":
			return b.handleManualFeedback(ctx, msg)
		case "/buffered":
			return b.handleBufferedCommand(ctx, chatID)
		default:
			return b.sender.SendMessage(ctx, chatID, msgUnknownCommand)
		}
	}

	session, ok := b.sessions.Get(chatID)
	if !ok {
		if text == "" && msg.Voice == nil {
			return nil
		}
		return b.sender.SendMessage(ctx, chatID, msgUnknownCommand)
	}
	return b.handleSessionMessage(ctx, chatID, session, msg)
}

func (b *Bot) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) error {
	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat.ID > 0 {
		chatID = cq.Message.Chat.ID
	}
	if chatID <= 0 {
		return nil
	}

	switch {
	case strings.HasPrefix(cq.Data, startFeedbackPrefix):
		if err := b.sender.AnswerCallbackQuery(ctx, cq.ID, ""); err != nil {
			b.logger.Warn("answer callback failed", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		}
		lock := b.sessions.UserLock(chatID)
		lock.Lock()
		defer lock.Unlock()
		vacancyID := strings.TrimPrefix(cq.Data, startFeedbackPrefix)
		return b.handleStartFeedback(ctx, chatID, vacancyID)
	case strings.HasPrefix(cq.Data, remindFeedbackPrefix):
		// Планирование напоминания пока не реализовано, кнопка только
		// подтверждается.
		return b.sender.AnswerCallbackQuery(ctx, cq.ID, msgRemindLater)
	}
	return nil
}

func (b *Bot) handleStartFeedback(ctx context.Context, chatID int64, vacancyID string) error {
	vacancy, err := b.vacancies.Get(ctx, vacancyID)
	if err != nil {
		if errors.Is(err, store.ErrVacancyNotFound) {
			return b.sender.SendMessage(ctx, chatID, msgVacancyNotFound)
		}
		return fmt.Errorf("get vacancy %s: %w", vacancyID, err)
	}
	user, err := b.users.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return b.sender.SendMessage(ctx, chatID, notRegisteredMessage(b.adminContact))
		}
		return fmt.Errorf("get user %d: %w", chatID, err)
	}
	return b.startFeedback(ctx, chatID, user, vacancy, statePrompt(StateOverallRating))
}

func (b *Bot) handleManualFeedback(ctx context.Context, msg *telegram.Message) error {
	chatID := msg.Chat.ID
	user, err := b.users.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return b.sender.SendMessage(ctx, chatID, notRegisteredMessage(b.adminContact))
		}
		return fmt.Errorf("get user %d: %w", chatID, err)
	}
	vacancy := feedback.VacancyAssignment{
		VacancyID:        manualVacancyID,
		VacancyTitle:     "Manual trigger",
		RecruiterName:    "Unknown",
		HiringManagerIDs: []int64{chatID},
	}
	if err := b.vacancies.Upsert(ctx, vacancy); err != nil {
		return fmt.Errorf("upsert manual vacancy: %w", err)
	}
	return b.startFeedback(ctx, chatID, user, vacancy, msgManualStart)
}

// startFeedback засевает сессию отзыва. Оба пути входа (fan-out и ручной
// запуск) проходят через эту функцию и засевают сессию одинаково.
func (b *Bot) startFeedback(ctx context.Context, chatID int64, user feedback.User, vacancy feedback.VacancyAssignment, prompt string) error {
	session := &Session{
		State:         StateOverallRating,
		VacancyID:     vacancy.VacancyID,
		VacancyTitle:  vacancy.VacancyTitle,
		RecruiterName: vacancy.RecruiterName,
		ReviewerName:  user.FullName,
	}
	b.sessions.Set(chatID, session)
	return b.sender.SendMessage(ctx, chatID, prompt)
}

func (b *Bot) handleRegisterCommand(ctx context.Context, chatID int64) error {
	if _, err := b.users.Get(ctx, chatID); err == nil {
		return b.sender.SendMessage(ctx, chatID, msgAlreadyRegistered)
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return fmt.Errorf("get user %d: %w", chatID, err)
	}
	b.sessions.Set(chatID, &Session{State: StateAwaitingName})
	return b.sender.SendMessage(ctx, chatID, statePrompt(StateAwaitingName))
}

func (b *Bot) handleSessionMessage(ctx context.Context, chatID int64, session *Session, msg *telegram.Message) error {
	text := strings.TrimSpace(msg.Text)

	switch session.State {
	case StateAwaitingName:
		if text == "" {
			return b.sender.SendMessage(ctx, chatID, stateReprompt(session.State))
		}
		session.FullName = text
		session.State = StateAwaitingTitle
		return b.sender.SendMessage(ctx, chatID, statePrompt(StateAwaitingTitle))

	case StateAwaitingTitle:
		if text == "" {
			return b.sender.SendMessage(ctx, chatID, stateReprompt(session.State))
		}
		session.Title = text
		session.State = StateAwaitingContact
		return b.sender.SendMessage(ctx, chatID, statePrompt(StateAwaitingContact))

	case StateAwaitingContact:
		if text == "" {
			return b.sender.SendMessage(ctx, chatID, stateReprompt(session.State))
		}
		return b.finishRegistration(ctx, chatID, session, msg, text)

	case StateOverallRating:
		return b.handleRating(ctx, chatID, text, func(value int) {
			session.OverallRating = value
			session.State = StateRecruiterName
		}, recruiterPrompt(session.RecruiterName))

	case StateRecruiterName:
		if text == "" {
			return b.sender.SendMessage(ctx, chatID, stateReprompt(session.State))
		}
		if !strings.EqualFold(text, "default") {
			session.RecruiterName = text
		}
		session.State = StateCommsRating
		return b.sender.SendMessage(ctx, chatID, statePrompt(StateCommsRating))

	case StateCommsRating:
		return b.handleRating(ctx, chatID, text, func(value int) {
			session.CommsRating = value
			session.State = StateTimelinessRating
		}, statePrompt(StateTimelinessRating))

	case StateTimelinessRating:
		return b.handleRating(ctx, chatID, text, func(value int) {
			session.TimelinessRate = value
			session.State = StateRelevanceRating
		}, statePrompt(StateRelevanceRating))

	case StateRelevanceRating:
		return b.handleRating(ctx, chatID, text, func(value int) {
			session.RelevanceRate = value
			session.State = StateProcessQualityRating
		}, statePrompt(StateProcessQualityRating))

	case StateProcessQualityRating:
		return b.handleRating(ctx, chatID, text, func(value int) {
			session.ProcessQuality = value
			session.State = StateRecommendations
		}, statePrompt(StateRecommendations))

	case StateRecommendations:
		return b.handleRecommendations(ctx, chatID, session, msg, text)

	case StateConfirm:
		return b.handleConfirm(ctx, chatID, session, msg, text)
	}

	b.logger.Warn("message in unknown session state", slog.Int64("chat_id", chatID), slog.String("state", string(session.State)))
	b.sessions.Clear(chatID)
	return b.sender.SendMessage(ctx, chatID, msgUnknownCommand)
}

// handleRating валидирует оценку и либо продвигает сессию и задает
// следующий вопрос, либо повторяет текущий без смены состояния.
func (b *Bot) handleRating(ctx context.Context, chatID int64, text string, apply func(int), nextPrompt string) error {
	value, ok := parseRating(text)
	if !ok {
		return b.sender.SendMessage(ctx, chatID, msgInvalidRating)
	}
	apply(value)
	return b.sender.SendMessage(ctx, chatID, nextPrompt)
}

func (b *Bot) handleRecommendations(ctx context.Context, chatID int64, session *Session, msg *telegram.Message, text string) error {
	if msg.Voice != nil {
		if b.transcriber == nil {
			return b.sender.SendMessage(ctx, chatID, msgSpeechNotConfigured)
		}
		if err := b.sender.SendMessage(ctx, chatID, msgTranscribing); err != nil {
			return err
		}
		audio, err := b.files.DownloadFile(ctx, msg.Voice.FileID)
		if err != nil {
			b.logger.Warn("voice download failed", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
			return b.sender.SendMessage(ctx, chatID, msgTranscribeFailed)
		}
		transcript, err := b.transcriber.Transcribe(ctx, audio)
		if err != nil {
			if !errors.Is(err, speech.ErrNoSpeech) {
				b.logger.Warn("transcription failed", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
			}
			return b.sender.SendMessage(ctx, chatID, msgTranscribeFailed)
		}
		if err := b.sender.SendMessage(ctx, chatID, "Transcript:\n"+transcript); err != nil {
			return err
		}
		text = transcript
	}

	if text == "" {
		return b.sender.SendMessage(ctx, chatID, msgEmptyCollection)
	}

	session.Recommendations = text
	session.FeedbackComment = text
	session.State = StateConfirm
	return b.sender.SendMessage(ctx, chatID, summaryText(session))
}

func (b *Bot) handleConfirm(ctx context.Context, chatID int64, session *Session, msg *telegram.Message, text string) error {
	switch strings.ToLower(text) {
	case "yes", "y":
	case "no", "n":
		b.sessions.Clear(chatID)
		return b.sender.SendMessage(ctx, chatID, msgCanceled)
	default:
		return b.sender.SendMessage(ctx, chatID, msgInvalidConfirm)
	}

	reviewerName := session.ReviewerName
	if reviewerName == "" {
		reviewerName = displayName(msg.From)
	}
	record := feedback.Record{
		VacancyID:            session.VacancyID,
		VacancyTitle:         session.VacancyTitle,
		RecruiterName:        session.RecruiterName,
		HiringManagerName:    reviewerName,
		TelegramUserID:       chatID,
		FeedbackComment:      session.FeedbackComment,
		OverallRating:        session.OverallRating,
		CommsRating:          session.CommsRating,
		TimelinessRating:     session.TimelinessRate,
		RelevanceRating:      session.RelevanceRate,
		ProcessQualityRating: session.ProcessQuality,
		Recommendations:      session.Recommendations,
		SubmittedAt:          b.clock().UTC(),
	}

	result, err := b.writer.Write(ctx, record)
	b.sessions.Clear(chatID)
	if err != nil {
		b.logger.Error("feedback write failed", slog.Int64("chat_id", chatID), slog.String("vacancy_id", record.VacancyID), slog.String("error", err.Error()))
	}
	if notice := deliveryMessage(result); notice != "" {
		if err := b.sender.SendMessage(ctx, chatID, notice); err != nil {
			return err
		}
		b.notifyAdmin(ctx, fmt.Sprintf("Feedback for vacancy %s from %s was buffered locally.", record.VacancyID, reviewerName))
	}
	return b.sender.SendMessage(ctx, chatID, msgThanks)
}

func (b *Bot) finishRegistration(ctx context.Context, chatID int64, session *Session, msg *telegram.Message, contact string) error {
	fullName := session.FullName
	if fullName == "" {
		fullName = displayName(msg.From)
	}
	user := feedback.User{
		TelegramID: chatID,
		FullName:   fullName,
		Title:      session.Title,
		Contact:    contact,
		Role:       feedback.RoleHiringManager,
		Status:     feedback.StatusActive,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("upsert user %d: %w", chatID, err)
	}
	b.sessions.Clear(chatID)
	return b.sender.SendMessage(ctx, chatID, msgRegistrationFinished)
}

func (b *Bot) handleBufferedCommand(ctx context.Context, chatID int64) error {
	user, err := b.users.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return b.sender.SendMessage(ctx, chatID, msgAdminOnly)
		}
		return fmt.Errorf("get user %d: %w", chatID, err)
	}
	if user.Role != feedback.RoleAdmin {
		return b.sender.SendMessage(ctx, chatID, msgAdminOnly)
	}

	records, err := b.buffer.Recent(ctx, b.bufferLimit)
	if err != nil {
		return fmt.Errorf("read feedback buffer: %w", err)
	}
	if len(records) == 0 {
		return b.sender.SendMessage(ctx, chatID, msgBufferEmpty)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Buffered feedback (%d):\n", len(records))
	for i, record := range records {
		fmt.Fprintf(&sb, "%d. [%s] %s by %s, overall %d, %s\n",
			i+1, record.VacancyTitle, record.RecruiterName, record.HiringManagerName,
			record.OverallRating, record.SubmittedAt.Format(time.RFC3339))
	}
	return b.sender.SendMessage(ctx, chatID, sb.String())
}

func (b *Bot) notifyAdmin(ctx context.Context, text string) {
	if b.adminChatID == 0 {
		b.logger.Info("admin notification skipped", slog.String("text", text))
		return
	}
	if err := b.sender.SendMessage(ctx, b.adminChatID, text); err != nil {
		b.logger.Error("failed to notify admin", slog.String("error", err.Error()))
	}
}

func parseCommand(text string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	command := fields[0]
	if idx := strings.Index(command, "@"); idx != -1 {
		command = command[:idx]
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	return command, arg
}

func parseRating(text string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || value < 1 || value > 5 {
		return 0, false
	}
	return value, true
}

func displayName(user telegram.User) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name != "" {
		return name
	}
	return user.Username
}
