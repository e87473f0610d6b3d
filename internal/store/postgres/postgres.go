package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedback"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/store"
)

// Config задает параметры пула соединений Postgres.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdle     time.Duration
	ConnMaxLifetime time.Duration
}

// Open открывает пул Postgres и ждет готовности базы.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdle > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	deadline := time.Now().Add(30 * time.Second)
	backoff := 500 * time.Millisecond
	for {
		err := db.PingContext(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}

	return db, nil
}

// UserStore хранит пользователей в Postgres.
type UserStore struct {
	db *sql.DB
}

// NewUserStore создает новый UserStore.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Get(ctx context.Context, telegramID int64) (feedback.User, error) {
	const query = `
		SELECT telegram_id, full_name, title, contact, role, status
		FROM users
		WHERE telegram_id = $1
	`
	var user feedback.User
	var title, contact sql.NullString
	if err := s.db.QueryRowContext(ctx, query, telegramID).Scan(&user.TelegramID, &user.FullName, &title, &contact, &user.Role, &user.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return feedback.User{}, store.ErrUserNotFound
		}
		return feedback.User{}, err
	}
	if title.Valid {
		user.Title = title.String
	}
	if contact.Valid {
		user.Contact = contact.String
	}
	return user, nil
}

func (s *UserStore) Upsert(ctx context.Context, user feedback.User) error {
	const query = `
		INSERT INTO users (telegram_id, full_name, title, contact, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id)
		DO UPDATE SET full_name = EXCLUDED.full_name,
			title = EXCLUDED.title,
			contact = EXCLUDED.contact,
			role = EXCLUDED.role,
			status = EXCLUDED.status
	`
	_, err := s.db.ExecContext(ctx, query, user.TelegramID, user.FullName, nullable(user.Title), nullable(user.Contact), string(user.Role), string(user.Status))
	return err
}

// VacancyStore хранит назначения вакансий в Postgres.
type VacancyStore struct {
	db *sql.DB
}

// NewVacancyStore создает новый VacancyStore.
func NewVacancyStore(db *sql.DB) *VacancyStore {
	return &VacancyStore{db: db}
}

func (s *VacancyStore) Get(ctx context.Context, vacancyID string) (feedback.VacancyAssignment, error) {
	const query = `
		SELECT vacancy_id, vacancy_title, recruiter_name, hiring_manager_ids
		FROM vacancy_assignments
		WHERE vacancy_id = $1
	`
	var vacancy feedback.VacancyAssignment
	var managerIDs pq.Int64Array
	if err := s.db.QueryRowContext(ctx, query, vacancyID).Scan(&vacancy.VacancyID, &vacancy.VacancyTitle, &vacancy.RecruiterName, &managerIDs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return feedback.VacancyAssignment{}, store.ErrVacancyNotFound
		}
		return feedback.VacancyAssignment{}, err
	}
	vacancy.HiringManagerIDs = []int64(managerIDs)
	return vacancy, nil
}

func (s *VacancyStore) Upsert(ctx context.Context, vacancy feedback.VacancyAssignment) error {
	const query = `
		INSERT INTO vacancy_assignments (vacancy_id, vacancy_title, recruiter_name, hiring_manager_ids)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vacancy_id)
		DO UPDATE SET vacancy_title = EXCLUDED.vacancy_title,
			recruiter_name = EXCLUDED.recruiter_name,
			hiring_manager_ids = EXCLUDED.hiring_manager_ids
	`
	_, err := s.db.ExecContext(ctx, query, vacancy.VacancyID, vacancy.VacancyTitle, vacancy.RecruiterName, pq.Int64Array(vacancy.HiringManagerIDs))
	return err
}

// FeedbackBuffer хранит недоставленные отзывы в Postgres.
type FeedbackBuffer struct {
	db *sql.DB
}

// NewFeedbackBuffer создает новый FeedbackBuffer.
func NewFeedbackBuffer(db *sql.DB) *FeedbackBuffer {
	return &FeedbackBuffer{db: db}
}

func (b *FeedbackBuffer) Add(ctx context.Context, record feedback.Record) error {
	const query = `
		INSERT INTO feedback_buffer (
			vacancy_id, vacancy_title, recruiter_name, hiring_manager_name,
			telegram_user_id, feedback_comment, overall_rating, comms_rating,
			timeliness_rating, relevance_rating, process_quality_rating,
			recommendations, submitted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := b.db.ExecContext(ctx, query,
		record.VacancyID, record.VacancyTitle, record.RecruiterName, record.HiringManagerName,
		record.TelegramUserID, record.FeedbackComment, record.OverallRating, record.CommsRating,
		record.TimelinessRating, record.RelevanceRating, record.ProcessQualityRating,
		record.Recommendations, record.SubmittedAt,
	)
	return err
}

func (b *FeedbackBuffer) Recent(ctx context.Context, limit int) ([]feedback.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT vacancy_id, vacancy_title, recruiter_name, hiring_manager_name,
			telegram_user_id, feedback_comment, overall_rating, comms_rating,
			timeliness_rating, relevance_rating, process_quality_rating,
			recommendations, submitted_at
		FROM feedback_buffer
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := b.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []feedback.Record
	for rows.Next() {
		var record feedback.Record
		if err := rows.Scan(
			&record.VacancyID, &record.VacancyTitle, &record.RecruiterName, &record.HiringManagerName,
			&record.TelegramUserID, &record.FeedbackComment, &record.OverallRating, &record.CommsRating,
			&record.TimelinessRating, &record.RelevanceRating, &record.ProcessQualityRating,
			&record.Recommendations, &record.SubmittedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Recent возвращает записи от старых к новым, как и буфер в памяти.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
