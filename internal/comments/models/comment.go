// Package models содержит доменные сущности comments-сервиса.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status — модерационный статус комментария.
// Переходы между статусами выполняет либо Decision Engine (при создании и
// правке), либо явное действие модератора; прямых записей в поле нет.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusFlagged  Status = "flagged"
	StatusHidden   Status = "hidden"
)

// ParseStatus возвращает статус и признак его валидности.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusFlagged, StatusHidden:
		return Status(s), true
	default:
		return "", false
	}
}

// Flags — набор булевых сигналов, выставляемых Risk Scorer'ом.
type Flags struct {
	HasProfanity  bool `bson:"has_profanity" json:"has_profanity"`
	IsSpam        bool `bson:"is_spam" json:"is_spam"`
	IsSuspicious  bool `bson:"is_suspicious" json:"is_suspicious"`
	ContainsLinks bool `bson:"contains_links" json:"contains_links"`
}

// Any сообщает, поднят ли хотя бы один флаг.
func (f Flags) Any() bool {
	return f.HasProfanity || f.IsSpam || f.IsSuspicious || f.ContainsLinks
}

// ModerationInfo — аудит модерационного действия.
type ModerationInfo struct {
	ModeratorID uuid.UUID `bson:"moderator_id,omitempty"`
	At          time.Time `bson:"at,omitempty"`
	Reason      string    `bson:"reason,omitempty"`
}

// Comment — внутренняя доменная модель комментария (MongoDB).
// Важно:
//   - ID — ObjectID MongoDB, наружу/вовнутрь конвертируется в string;
//   - PostID — UUID поста из posts-service;
//   - AuthorID == uuid.Nil для анонимных отправителей;
//   - Fingerprint — производный токен личности (см. internal/identity),
//     используется для дедупликации жалоб и трекинга активности;
//   - Level — глубина ветки (корень = 0), проверяется по cfg.Limits.MaxDepth;
//   - Score — итог Risk Scorer'а на шкале 0–100;
//   - MaxReportPriority — максимальный приоритет жалоб (0 — жалоб нет),
//     поддерживается монотонно ($max) и нужен для сортировки очереди;
//   - EditDeadline — фиксируется при создании; правки позже отклоняются;
//   - IsDeleted — мягкое удаление: комментарий с ответами никогда не
//     удаляется физически, только редактируется контент.
type Comment struct {
	ID           string    `bson:"_id,omitempty"`
	PostID       uuid.UUID `bson:"post_id"`
	ParentID     string    `bson:"parent_id"`
	AuthorID     uuid.UUID `bson:"author_id"`
	AuthorName   string    `bson:"author_name"`
	Fingerprint  string    `bson:"fingerprint"`
	Content      string    `bson:"content"`
	Level        int32     `bson:"level"`
	RepliesCount int32     `bson:"replies_count"`

	Status Status `bson:"status"`
	Flags  Flags  `bson:"flags"`
	Score  int32  `bson:"score"`

	Likes             int32 `bson:"likes"`
	ReportsCount      int32 `bson:"reports_count"`
	MaxReportPriority int32 `bson:"max_report_priority"`

	Moderation ModerationInfo `bson:"moderation,omitempty"`

	Edited       bool      `bson:"edited"`
	EditDeadline time.Time `bson:"edit_deadline"`
	IsDeleted    bool      `bson:"is_deleted"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// RequiresModeration сообщает, ждёт ли комментарий решения человека.
func (c Comment) RequiresModeration() bool {
	return c.Status == StatusPending || c.Status == StatusFlagged
}

// ListParams — базовые параметры постраничной выдачи.
type ListParams struct {
	PageSize  int32
	PageToken string
}

// Page — результат постраничной выдачи комментариев.
type Page struct {
	Items         []Comment
	NextPageToken string
}
