package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrConflict — конфликт уникальности.
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — указан parent_id, но родитель не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — превышена максимально допустимая глубина.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
	// ErrDuplicateReport — повторная жалоба той же личности на тот же комментарий.
	ErrDuplicateReport = errors.New("duplicate report")
	// ErrReportTerminal — жалоба уже закрыта (resolved/dismissed).
	ErrReportTerminal = errors.New("report already terminal")
)

// CommentUpdate — изменяемые при правке поля комментария.
// Статус и флаги пересчитываются пайплайном модерации до записи.
type CommentUpdate struct {
	Content string
	Status  models.Status
	Flags   models.Flags
	Score   int32
}

// Storage описывает операции над комментариями и жалобами.
type Storage interface {
	// CreateComment создаёт корневой комментарий или ответ.
	// Входной Comment должен содержать PostID, AuthorName, Fingerprint,
	// Content, Status, Flags, Score, EditDeadline (обязательные) и ParentID
	// (опционально, если это ответ).
	// Вычисляемые хранилищем поля: ID, Level, RepliesCount, CreatedAt, UpdatedAt.
	// Возможные ошибки: ErrParentNotFound, ErrMaxDepthExceeded, ErrConflict.
	CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error)

	// CommentByID возвращает комментарий по его строковому идентификатору.
	// Если запись не найдена — ErrNotFound.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)

	// UpdateComment применяет правку: контент и пересчитанные модерационные
	// поля, edited=true. Если запись не найдена — ErrNotFound.
	UpdateComment(ctx context.Context, id string, upd CommentUpdate) (*models.Comment, error)

	// SetStatus выставляет модерационный статус вместе с аудитом действия.
	// Если запись не найдена — ErrNotFound.
	SetStatus(ctx context.Context, id string, status models.Status, mod models.ModerationInfo) (*models.Comment, error)

	// LikeComment инкрементирует счётчик лайков и возвращает новое значение.
	// Если запись не найдена — ErrNotFound.
	LikeComment(ctx context.Context, id string) (int32, error)

	// DeleteComment удаляет комментарий:
	//   - с ответами — мягко (is_deleted=true, контент затирается), ветка
	//     остаётся читаемой;
	//   - без ответов — физически, с декрементом replies_count родителя.
	// Если запись не найдена — ErrNotFound.
	DeleteComment(ctx context.Context, id string) error

	// ListByPost возвращает страницу корневых комментариев поста
	// (parent_id == "") в статусах из statuses (пустой срез — без фильтра).
	// Сортировка: сначала новые (created_at DESC).
	// При некорректном page_token — ErrInvalidCursor.
	ListByPost(ctx context.Context, postID uuid.UUID, statuses []models.Status, p models.ListParams) (*models.Page, error)

	// ListReplies возвращает страницу ответов одной ветки (дети parent_id)
	// в статусах из statuses. Сортировка: сначала старые (created_at ASC).
	// При некорректном page_token — ErrInvalidCursor.
	ListReplies(ctx context.Context, parentID string, statuses []models.Status, p models.ListParams) (*models.Page, error)

	// ModerationQueue возвращает страницу комментариев, ожидающих решения
	// (pending/flagged), с сортировкой по q.Sort. Очередь — производная
	// выборка по статусам, отдельной хранимой структуры нет.
	// При некорректном page_token — ErrInvalidCursor.
	ModerationQueue(ctx context.Context, q models.QueueParams) (*models.Page, error)

	// CreateReport регистрирует жалобу на комментарий.
	// Приоритет вычисляется по причине и количеству уже существующих жалоб;
	// на комментарии инкрементируется reports_count и монотонно поднимается
	// max_report_priority. Достижение threshold жалоб переводит approved
	// в flagged (единственный автоматический переход после публикации).
	// Возможные ошибки: ErrNotFound (нет комментария), ErrDuplicateReport.
	CreateReport(ctx context.Context, report models.Report, threshold int32) (*models.Report, error)

	// ReportByID возвращает жалобу по идентификатору.
	// Если запись не найдена — ErrNotFound.
	ReportByID(ctx context.Context, id string) (*models.Report, error)

	// ReportsByComment возвращает страницу жалоб одного комментария,
	// сначала новые. При некорректном page_token — ErrInvalidCursor.
	ReportsByComment(ctx context.Context, commentID string, p models.ListParams) (*models.ReportPage, error)

	// UpdateReportStatus переводит жалобу в новый статус с аудитом.
	// Терминальные жалобы неизменяемы — ErrReportTerminal.
	// Если запись не найдена — ErrNotFound.
	UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, res models.Resolution) (*models.Report, error)

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}
