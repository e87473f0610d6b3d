package feedback

import "time"

// Role определяет уровень доступа зарегистрированного пользователя.
type Role string

const (
	RoleHiringManager Role = "hiring_manager"
	RoleAdmin         Role = "admin"
	RoleRecruiter     Role = "recruiter"
)

// Status определяет, получает ли пользователь запросы на отзыв.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User — зарегистрированный нанимающий менеджер, администратор или рекрутер.
type User struct {
	TelegramID int64
	FullName   string
	Title      string
	Contact    string
	Role       Role
	Status     Status
}

// VacancyAssignment связывает закрытую вакансию с рекрутером и списком
// нанимающих менеджеров, которых нужно опросить.
type VacancyAssignment struct {
	VacancyID        string
	VacancyTitle     string
	RecruiterName    string
	HiringManagerIDs []int64
}

// Record — завершенный отзыв. Неизменяем после построения.
type Record struct {
	VacancyID            string
	VacancyTitle         string
	RecruiterName        string
	HiringManagerName    string
	TelegramUserID       int64
	FeedbackComment      string
	OverallRating        int
	CommsRating          int
	TimelinessRating     int
	RelevanceRating      int
	ProcessQualityRating int
	Recommendations      string
	SubmittedAt          time.Time
}
