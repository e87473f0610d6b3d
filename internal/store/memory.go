package store

import (
	"context"
	"sync"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
)

// MemoryUserStore хранит пользователей в памяти.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[int64]feedback.User
}

// NewMemoryUserStore создает хранилище пользователей в памяти.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[int64]feedback.User)}
}

func (s *MemoryUserStore) Get(_ context.Context, telegramID int64) (feedback.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[telegramID]
	if !ok {
		return feedback.User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryUserStore) Upsert(_ context.Context, user feedback.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.TelegramID] = user
	return nil
}

// MemoryVacancyStore хранит назначения вакансий в памяти.
type MemoryVacancyStore struct {
	mu        sync.RWMutex
	vacancies map[string]feedback.VacancyAssignment
}

// NewMemoryVacancyStore создает хранилище назначений в памяти.
func NewMemoryVacancyStore() *MemoryVacancyStore {
	return &MemoryVacancyStore{vacancies: make(map[string]feedback.VacancyAssignment)}
}

func (s *MemoryVacancyStore) Get(_ context.Context, vacancyID string) (feedback.VacancyAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vacancy, ok := s.vacancies[vacancyID]
	if !ok {
		return feedback.VacancyAssignment{}, ErrVacancyNotFound
	}
	return vacancy, nil
}

func (s *MemoryVacancyStore) Upsert(_ context.Context, vacancy feedback.VacancyAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vacancies[vacancy.VacancyID] = vacancy
	return nil
}

// MemoryEventDedupStore хранит ID обработанных событий в памяти.
// Набор растет на протяжении жизни процесса и не очищается.
type MemoryEventDedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryEventDedupStore создает хранилище дедупликации в памяти.
func NewMemoryEventDedupStore() *MemoryEventDedupStore {
	return &MemoryEventDedupStore{seen: make(map[string]struct{})}
}

func (s *MemoryEventDedupStore) MarkSeen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; ok {
		return false, nil
	}
	s.seen[eventID] = struct{}{}
	return true, nil
}

// MemoryFeedbackBuffer хранит недоставленные отзывы в памяти.
type MemoryFeedbackBuffer struct {
	mu    sync.Mutex
	items []feedback.Record
}

// NewMemoryFeedbackBuffer создает буфер отзывов в памяти.
func NewMemoryFeedbackBuffer() *MemoryFeedbackBuffer {
	return &MemoryFeedbackBuffer{}
}

func (b *MemoryFeedbackBuffer) Add(_ context.Context, record feedback.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, record)
	return nil
}

func (b *MemoryFeedbackBuffer) Recent(_ context.Context, limit int) ([]feedback.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.items) {
		limit = len(b.items)
	}
	recent := make([]feedback.Record, limit)
	copy(recent, b.items[len(b.items)-limit:])
	return recent, nil
}
