package models

import (
	"time"

	"github.com/google/uuid"
)

// Reason — закрытое перечисление причин жалобы.
type Reason string

const (
	ReasonSpam           Reason = "spam"
	ReasonHarassment     Reason = "harassment"
	ReasonHateSpeech     Reason = "hate_speech"
	ReasonViolence       Reason = "violence"
	ReasonMisinformation Reason = "misinformation"
	ReasonCopyright      Reason = "copyright"
	ReasonInappropriate  Reason = "inappropriate"
	ReasonOther          Reason = "other"
)

// ParseReason возвращает причину и признак её валидности.
func ParseReason(s string) (Reason, bool) {
	switch Reason(s) {
	case ReasonSpam, ReasonHarassment, ReasonHateSpeech, ReasonViolence,
		ReasonMisinformation, ReasonCopyright, ReasonInappropriate, ReasonOther:
		return Reason(s), true
	default:
		return "", false
	}
}

// ReportStatus — статус обработки жалобы.
// resolved и dismissed терминальны: дальнейшие переходы запрещены.
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Terminal сообщает, закрыта ли жалоба окончательно.
func (s ReportStatus) Terminal() bool {
	return s == ReportResolved || s == ReportDismissed
}

// Priority — вычисляемый приоритет жалобы для очереди модерации.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank — числовой ранг приоритета для сортировки и $max на комментарии.
func (p Priority) Rank() int32 {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority возвращает приоритет и признак его валидности.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s), true
	default:
		return "", false
	}
}

// ComputePriority — приоритет жалобы на момент создания.
// Правила (первое совпадение выигрывает):
//  1. violence | hate_speech            -> critical;
//  2. harassment или уже >=3 жалоб      -> high;
//  3. inappropriate | misinformation    -> medium;
//  4. иначе                             -> low.
func ComputePriority(reason Reason, existingReports int32) Priority {
	switch {
	case reason == ReasonViolence || reason == ReasonHateSpeech:
		return PriorityCritical
	case reason == ReasonHarassment || existingReports >= 3:
		return PriorityHigh
	case reason == ReasonInappropriate || reason == ReasonMisinformation:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Resolution — аудит закрытия жалобы.
type Resolution struct {
	ModeratorID uuid.UUID `bson:"moderator_id,omitempty"`
	At          time.Time `bson:"at,omitempty"`
	Note        string    `bson:"note,omitempty"`
}

// Report — одна жалоба одного отправителя на один комментарий.
// Инвариант: не больше одной жалобы на пару (comment_id, fingerprint) —
// дубликаты отклоняются, а не сливаются молча.
type Report struct {
	ID          string       `bson:"_id,omitempty"`
	CommentID   string       `bson:"comment_id"`
	Fingerprint string       `bson:"fingerprint"`
	Reason      Reason       `bson:"reason"`
	Description string       `bson:"description,omitempty"`
	Status      ReportStatus `bson:"status"`
	Priority    Priority     `bson:"priority"`
	Resolution  Resolution   `bson:"resolution,omitempty"`
	CreatedAt   time.Time    `bson:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at"`
}

// ReportPage — результат постраничной выдачи жалоб.
type ReportPage struct {
	Items         []Report
	NextPageToken string
}

// QueueSort — порядок выдачи очереди модерации.
type QueueSort string

const (
	QueueByRecency  QueueSort = "recency"
	QueueByReports  QueueSort = "reports"
	QueueByPriority QueueSort = "priority"
)

// ParseQueueSort нормализует порядок сортировки; пустая строка — recency.
func ParseQueueSort(s string) (QueueSort, bool) {
	switch QueueSort(s) {
	case QueueByRecency, QueueByReports, QueueByPriority:
		return QueueSort(s), true
	case "":
		return QueueByRecency, true
	default:
		return "", false
	}
}

// QueueParams — параметры чтения очереди модерации.
// Очередь — производная выборка: pending-комментарии плюс flagged/обжалованные,
// отдельной хранимой структуры нет.
type QueueParams struct {
	Status    Status   // опциональный фильтр по статусу
	Priority  Priority // опциональный нижний порог приоритета жалоб
	Sort      QueueSort
	PageSize  int32
	PageToken string
}
