package workflow

import (
	"fmt"
	"strings"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/sink"
)

const (
	msgStart = "Hello! Use /register to confirm access or wait for a feedback request."
	msgHelp  = "I collect feedback on closed vacancies. Use /register to sign up, " +
		"/feedback to leave feedback manually, or wait for a feedback request."
	msgUnknownCommand = "I did not understand. Use /start or /help."

	msgAlreadyRegistered    = "Welcome back! You are already registered."
	msgRegistrationFinished = "Welcome! You have been successfully registered."

	msgVacancyNotFound = "Sorry, I cannot find this vacancy. Please contact the administrator."
	msgManualStart     = "Starting manual feedback. Overall performance rating (1-5)?"
	msgRemindLater     = "Okay, I'll remind you later."

	msgInvalidRating   = "Please provide a number between 1 and 5."
	msgInvalidConfirm  = "Please reply 'yes' to save or 'no' to cancel."
	msgCanceled        = "Feedback canceled."
	msgThanks          = "Thank you for your feedback! It is very important to our team."
	msgEmptyCollection = "Please send text or a voice message with your recommendations."

	msgSpeechNotConfigured = "Speech-to-text is not configured. Please send text feedback."
	msgTranscribing        = "Transcribing your voice message..."
	msgTranscribeFailed    = "Sorry, I couldn't transcribe that. Please send text feedback."

	msgAdminOnly   = "This command is only available to administrators."
	msgBufferEmpty = "The buffer is empty."
)

// statePrompt возвращает вопрос, который задается при входе в состояние.
// Приглашения с подстановками (рекрутер, итог) строятся отдельно.
func statePrompt(state State) string {
	switch state {
	case StateAwaitingName:
		return "Please share your full name to finish registration."
	case StateAwaitingTitle:
		return "Your job title?"
	case StateAwaitingContact:
		return "Contact details (email/phone)?"
	case StateOverallRating:
		return "Overall performance rating (1-5)?"
	case StateCommsRating:
		return "How would you rate communication with the recruiter? (1-5)"
	case StateTimelinessRating:
		return "Was the vacancy closed within a comfortable timeframe? (1-5)"
	case StateRelevanceRating:
		return "How relevant were the candidates provided? (1-5)"
	case StateProcessQualityRating:
		return "Rate the quality of the recruitment process (1-5)"
	case StateRecommendations:
		return "What recommendations do you have to improve the recruiter's work? Send text or voice."
	default:
		return ""
	}
}

// stateReprompt возвращает сообщение об ошибке валидации для состояния.
func stateReprompt(state State) string {
	switch state {
	case StateAwaitingName:
		return "Please share your full name to finish registration."
	case StateAwaitingTitle:
		return "Your job title?"
	case StateAwaitingContact:
		return "Contact details (email/phone)?"
	case StateOverallRating, StateCommsRating, StateTimelinessRating,
		StateRelevanceRating, StateProcessQualityRating:
		return msgInvalidRating
	case StateRecruiterName:
		return "Reply with the recruiter's name or type 'default'."
	case StateRecommendations:
		return msgEmptyCollection
	case StateConfirm:
		return msgInvalidConfirm
	default:
		return msgUnknownCommand
	}
}

func recruiterPrompt(defaultName string) string {
	return fmt.Sprintf("Which recruiter did you work with? (default: %s) Reply with the name or type 'default'.", defaultName)
}

func notRegisteredMessage(adminContact string) string {
	return fmt.Sprintf("You are not registered. Please contact the administrator (%s).", adminContact)
}

func summaryText(session *Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Vacancy: %s\n", session.VacancyTitle)
	fmt.Fprintf(&sb, "Recruiter: %s\n", session.RecruiterName)
	fmt.Fprintf(&sb, "Overall: %d\n", session.OverallRating)
	fmt.Fprintf(&sb, "Communication: %d\n", session.CommsRating)
	fmt.Fprintf(&sb, "Timeliness: %d\n", session.TimelinessRate)
	fmt.Fprintf(&sb, "Relevance: %d\n", session.RelevanceRate)
	fmt.Fprintf(&sb, "Process quality: %d\n", session.ProcessQuality)
	fmt.Fprintf(&sb, "Recommendations: %s\n\n", session.Recommendations)
	sb.WriteString("Save this feedback? Reply 'yes' to confirm or 'no' to cancel.")
	return sb.String()
}

// deliveryMessage подбирает текст для пользователя по результату записи.
// Delivered не требует отдельного сообщения: пользователю отправляется
// только благодарность.
func deliveryMessage(result sink.Result) string {
	switch result {
	case sink.Buffered:
		return "Could not save to Google Sheets. The admin has been notified."
	case sink.BufferedNotConfigured:
		return "The feedback sheet is not configured yet. Your feedback was saved locally."
	default:
		return ""
	}
}
