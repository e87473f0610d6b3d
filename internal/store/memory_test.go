package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
)

func TestMemoryUserStore(t *testing.T) {
	users := NewMemoryUserStore()
	ctx := context.Background()

	if _, err := users.Get(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	user := feedback.User{TelegramID: 42, FullName: "Jane Doe", Role: feedback.RoleHiringManager, Status: feedback.StatusActive}
	if err := users.Upsert(ctx, user); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := users.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != user {
		t.Fatalf("expected %+v, got %+v", user, got)
	}

	user.Status = feedback.StatusInactive
	if err := users.Upsert(ctx, user); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, _ = users.Get(ctx, 42)
	if got.Status != feedback.StatusInactive {
		t.Fatalf("expected upsert to overwrite, got %+v", got)
	}
}

func TestMemoryVacancyStore(t *testing.T) {
	vacancies := NewMemoryVacancyStore()
	ctx := context.Background()

	if _, err := vacancies.Get(ctx, "v1"); !errors.Is(err, ErrVacancyNotFound) {
		t.Fatalf("expected vacancy not found, got %v", err)
	}

	vacancy := feedback.VacancyAssignment{
		VacancyID:        "v1",
		VacancyTitle:     "Go Developer",
		RecruiterName:    "Jane",
		HiringManagerIDs: []int64{42, 43},
	}
	if err := vacancies.Upsert(ctx, vacancy); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := vacancies.Get(ctx, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.VacancyTitle != "Go Developer" || len(got.HiringManagerIDs) != 2 {
		t.Fatalf("unexpected vacancy: %+v", got)
	}
}

func TestMemoryEventDedupMarkSeen(t *testing.T) {
	dedup := NewMemoryEventDedupStore()
	ctx := context.Background()

	first, err := dedup.MarkSeen(ctx, "e1")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !first {
		t.Fatalf("expected first delivery to be accepted")
	}
	first, err = dedup.MarkSeen(ctx, "e1")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if first {
		t.Fatalf("expected repeat delivery to be rejected")
	}
	first, _ = dedup.MarkSeen(ctx, "e2")
	if !first {
		t.Fatalf("expected unrelated event to be accepted")
	}
}

func TestMemoryEventDedupConcurrent(t *testing.T) {
	dedup := NewMemoryEventDedupStore()

	const goroutines = 32
	var wg sync.WaitGroup
	var accepted int64
	var mu sync.Mutex
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := dedup.MarkSeen(context.Background(), "e1")
			if err != nil {
				t.Errorf("mark: %v", err)
				return
			}
			if first {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Fatalf("expected exactly one winner, got %d", accepted)
	}
}

func TestMemoryFeedbackBufferRecent(t *testing.T) {
	buffer := NewMemoryFeedbackBuffer()
	ctx := context.Background()

	recent, err := buffer.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent on empty buffer: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected empty buffer, got %d", len(recent))
	}

	for i := 1; i <= 5; i++ {
		record := feedback.Record{VacancyID: fmt.Sprintf("v%d", i), OverallRating: i}
		if err := buffer.Add(ctx, record); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	recent, err = buffer.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	// Последние три, от старых к новым.
	if recent[0].VacancyID != "v3" || recent[2].VacancyID != "v5" {
		t.Fatalf("unexpected order: %+v", recent)
	}

	all, err := buffer.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected full buffer, got %d", len(all))
	}
}
