package workflow

import "sync"

// State — текущий шаг диалога пользователя.
type State string

const (
	StateAwaitingName    State = "awaiting_name"
	StateAwaitingTitle   State = "awaiting_title"
	StateAwaitingContact State = "awaiting_contact"

	StateOverallRating        State = "overall_rating"
	StateRecruiterName        State = "recruiter_name"
	StateCommsRating          State = "comms_rating"
	StateTimelinessRating     State = "timeliness_rating"
	StateRelevanceRating      State = "relevance_rating"
	StateProcessQualityRating State = "process_quality_rating"
	StateRecommendations      State = "recommendations"
	StateConfirm              State = "confirm"
)

// Session — накопитель незавершенного диалога одного пользователя.
// Живет только в памяти процесса и теряется при перезапуске.
type Session struct {
	State State

	// Поля регистрации.
	FullName string
	Title    string

	// Поля отзыва. RecruiterName заполняется из назначения вакансии при
	// входе в диалог и перезаписывается на шаге выбора рекрутера, если
	// пользователь не ответил "default".
	VacancyID       string
	VacancyTitle    string
	RecruiterName   string
	ReviewerName    string
	OverallRating   int
	CommsRating     int
	TimelinessRate  int
	RelevanceRate   int
	ProcessQuality  int
	Recommendations string
	FeedbackComment string
}

// SessionStore хранит не более одной активной сессии на пользователя и
// выдает блокировку, сериализующую обработку событий этого пользователя.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

// NewSessionStore создает хранилище сессий в памяти.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// UserLock возвращает мьютекс пользователя. Обработчик удерживает его на
// все время обработки одного входящего события.
func (s *SessionStore) UserLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// Get возвращает активную сессию пользователя. Мутировать результат можно
// только под блокировкой UserLock.
func (s *SessionStore) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	return session, ok
}

// Set заменяет сессию пользователя; прежняя сессия отбрасывается.
func (s *SessionStore) Set(userID int64, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = session
}

// Clear удаляет сессию пользователя.
func (s *SessionStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
