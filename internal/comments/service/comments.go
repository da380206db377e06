package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/comments/metrics"
	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation"
	"github.com/pribylovaa/go-blog-platform/internal/comments/storage"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/pkg/log"
)

// Входные структуры сервисного слоя.

// SubmitCommentInput — создание корневого комментария или ответа.
// Правила:
//   - если ParentID пуст, создаётся корень и обязателен PostID;
//   - если ParentID не пуст, создаётся ответ; PostID можно не передавать
//     (слой storage унаследует post_id от родителя);
//   - Content обязателен; личность отправителя приходит из контекста.
type SubmitCommentInput struct {
	PostID   uuid.UUID
	ParentID string
	Content  string
}

// ListByPostInput — параметры постраничной выдачи корней по посту.
type ListByPostInput struct {
	PostID    uuid.UUID
	PageSize  int32
	PageToken string
}

// ListRepliesInput — параметры постраничной выдачи ответов по parent_id.
type ListRepliesInput struct {
	ParentID  string
	PageSize  int32
	PageToken string
}

// publicStatuses — статусы, видимые в публичных списках.
// flagged остаётся видимым: комментарий был опубликован и ждёт
// повторной проверки, скрывает его только модератор.
var publicStatuses = []models.Status{models.StatusApproved, models.StatusFlagged}

// contentHash — канонический хэш контента для дедупликации в трекере.
func contentHash(norm string) string {
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// runPipeline прогоняет нормализованный текст через экстрактор, трекер,
// скорер и возвращает вход Decision Engine вместе с итоговым контентом
// (обсценная лексика замаскирована).
//
// Жёсткое нарушение интервала отправки (burst) обрывает пайплайн
// ErrRateLimited — такие отправки не доходят до скоринга.
func (s *Service) runPipeline(norm string, ident identity.Identity) (string, int32, moderation.DecisionInput, error) {
	beh := s.tracker.RecordAndCheck(ident.Fingerprint, contentHash(norm), time.Now())
	if beh.Burst {
		metrics.RateLimited.Inc()
		return "", 0, moderation.DecisionInput{}, ErrRateLimited
	}

	sig := moderation.Extract(norm)
	if sig.Truncated {
		metrics.ExtractTruncated.Inc()
	}

	score, flags := s.scorer.Score(sig, beh, ident.Trust)

	content := norm
	if flags.HasProfanity {
		content, _ = moderation.MaskProfanity(norm)
	}

	in := moderation.DecisionInput{
		Banned: ident.IsBanned,
		Trust:  ident.Trust,
		Flags:  flags,
	}

	return content, score, in, nil
}

// SubmitComment — бизнес-операция создания комментария.
//
// Валидация:
//   - Content нормализуется и не должен быть пустым; сырой вход длиннее
//     cfg.Limits.MaxContentLen отклоняется;
//   - если ParentID пуст (создание корня) — PostID обязателен и должен
//     существовать в posts-service.
//
// Поведение/ошибки:
//   - ErrRateLimited — нарушен минимальный интервал отправки;
//   - ErrPostNotFound — пост не существует (недоступность posts-service
//     не блокирует отправку — проверка деградирует в сторону принятия);
//   - ErrParentNotFound, ErrMaxDepthExceeded, ErrConflict — от стораджа;
//   - ErrInternal — прочие ошибки.
func (s *Service) SubmitComment(ctx context.Context, in SubmitCommentInput) (*models.Comment, error) {
	const op = "service/comments/SubmitComment"

	ident, _ := identity.From(ctx)

	lg := log.From(ctx).With(
		"op", op,
		"post_id", in.PostID.String(),
		"parent_id", in.ParentID,
		"fingerprint", ident.Fingerprint,
	)

	if len(in.Content) > s.cfg.Limits.MaxContentLen {
		lg.Warn("invalid argument: content too long", "len", len(in.Content))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	norm := moderation.Normalize(in.Content)
	if norm == "" {
		lg.Warn("invalid argument: empty content after normalization")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.ParentID = strings.TrimSpace(in.ParentID)

	// Для корня обязательна привязка к посту.
	if in.ParentID == "" {
		if in.PostID == uuid.Nil {
			lg.Warn("invalid argument: empty post_id for root comment")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		exists, err := s.posts.Exists(ctx, in.PostID)
		if err != nil {
			// posts-service недоступен: пропускаем с проверкой на совести
			// модерации, а не теряем комментарии.
			lg.Warn("posts existence check failed, accepting", "err", err)
		} else if !exists {
			lg.Warn("post not found")
			return nil, fmt.Errorf("%s: %w", op, ErrPostNotFound)
		}
	}

	content, score, din, err := s.runPipeline(norm, ident)
	if err != nil {
		lg.Warn("submission rate limited")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := moderation.Decide(din)
	metrics.Decisions.WithLabelValues(string(status)).Inc()

	now := time.Now().UTC()
	comm := models.Comment{
		PostID:       in.PostID,
		ParentID:     in.ParentID,
		AuthorID:     ident.UserID,
		AuthorName:   ident.Username,
		Fingerprint:  ident.Fingerprint,
		Content:      content,
		Status:       status,
		Flags:        din.Flags,
		Score:        score,
		EditDeadline: now.Add(s.cfg.Moderation.EditWindow),
	}

	// Автоматические решения аудируются так же, как модераторские,
	// но без moderator_id.
	if reason := moderation.DecisionReason(din); reason != "" {
		comm.Moderation = models.ModerationInfo{At: now, Reason: reason}
	}

	result, err := s.storage.CreateComment(ctx, comm)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrParentNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case errors.Is(err, storage.ErrMaxDepthExceeded):
			lg.Warn("max depth exceeded")
			return nil, fmt.Errorf("%s: %w", op, ErrMaxDepthExceeded)
		case errors.Is(err, storage.ErrConflict):
			lg.Warn("conflict")
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		default:
			lg.Error("storage error on SubmitComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	lg.Info("comment submitted", "id", result.ID, "status", result.Status, "score", result.Score)

	return result, nil
}

// EditComment — правка собственного комментария.
//
// Валидация:
//   - id обязателен; новый контент проходит те же проверки, что и отправка;
//   - правка доступна автору (по author_id, для анонимных — по fingerprint)
//     до истечения edit_deadline; удалённые комментарии не правятся.
//
// Поведение:
//   - новый контент проходит пайплайн заново; чистая правка сохраняет
//     прежний статус, поднятые флаги возвращают комментарий на модерацию.
//
// Ошибки: ErrNotFound, ErrPermissionDenied, ErrEditWindowExpired,
// ErrRateLimited, ErrInvalidArgument, ErrInternal.
func (s *Service) EditComment(ctx context.Context, id string, newContent string) (*models.Comment, error) {
	const op = "service/comments/EditComment"

	ident, _ := identity.From(ctx)

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id, "fingerprint", ident.Fingerprint)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if len(newContent) > s.cfg.Limits.MaxContentLen {
		lg.Warn("invalid argument: content too long", "len", len(newContent))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	norm := moderation.Normalize(newContent)
	if norm == "" {
		lg.Warn("invalid argument: empty content after normalization")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	curr, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CommentByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if curr.IsDeleted {
		lg.Warn("comment is deleted")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if !s.ownedBy(curr, ident) {
		lg.Warn("edit denied: not the author")
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if time.Now().After(curr.EditDeadline) {
		lg.Warn("edit window expired", "deadline", curr.EditDeadline)
		return nil, fmt.Errorf("%s: %w", op, ErrEditWindowExpired)
	}

	content, score, din, err := s.runPipeline(norm, ident)
	if err != nil {
		lg.Warn("edit rate limited")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := moderation.DecideEdit(curr.Status, din)
	if status != curr.Status {
		metrics.Decisions.WithLabelValues(string(status)).Inc()
	}

	result, err := s.storage.UpdateComment(ctx, id, storage.CommentUpdate{
		Content: content,
		Status:  status,
		Flags:   din.Flags,
		Score:   score,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on UpdateComment", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	lg.Info("comment edited", "status", result.Status, "score", result.Score)

	return result, nil
}

// ownedBy — автор определяется по author_id, анонимный автор — по fingerprint.
func (s *Service) ownedBy(c *models.Comment, ident identity.Identity) bool {
	if c.AuthorID != uuid.Nil {
		return c.AuthorID == ident.UserID
	}

	return c.Fingerprint != "" && c.Fingerprint == ident.Fingerprint
}

// LikeComment инкрементирует счётчик лайков и возвращает новое значение.
//
// Ошибки: ErrNotFound, ErrInvalidArgument, ErrInternal.
func (s *Service) LikeComment(ctx context.Context, id string) (int32, error) {
	const op = "service/comments/LikeComment"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	likes, err := s.storage.LikeComment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on LikeComment", "err", err)
		return 0, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return likes, nil
}

// DeleteComment — удаление комментария автором или модератором.
// Комментарий с ответами удаляется мягко, лист — физически (решает storage).
//
// Ошибки: ErrNotFound, ErrPermissionDenied, ErrInvalidArgument, ErrInternal.
func (s *Service) DeleteComment(ctx context.Context, id string) error {
	const op = "service/comments/DeleteComment"

	ident, _ := identity.From(ctx)

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	curr, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CommentByID", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !ident.IsModerator && !s.ownedBy(curr, ident) {
		lg.Warn("delete denied: not the author")
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if err := s.storage.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on DeleteComment", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	lg.Info("comment deleted")

	return nil
}

// CommentByID — получить комментарий по ID.
//
// Ошибки: ErrNotFound (включая неверный формат идентификатора),
// ErrInvalidArgument, ErrInternal.
func (s *Service) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "service/comments/CommentByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CommentByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return result, nil
}

// ListByPost — страница корневых комментариев поста.
// Публичная выдача: только опубликованные статусы (approved/flagged).
//
// Ошибки: ErrInvalidCursor, ErrInvalidArgument, ErrInternal.
func (s *Service) ListByPost(ctx context.Context, in ListByPostInput) (*models.Page, error) {
	const op = "service/comments/ListByPost"

	lg := log.From(ctx).With("op", op, "post_id", in.PostID.String())

	if in.PostID == uuid.Nil {
		lg.Warn("invalid argument: empty post_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	page, err := s.storage.ListByPost(ctx, in.PostID, publicStatuses, models.ListParams{
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		}

		lg.Error("storage error on ListByPost", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return page, nil
}

// ListReplies — страница ответов в пределах одной ветки по parent_id.
// Публичная выдача: только опубликованные статусы (approved/flagged).
//
// Ошибки: ErrInvalidCursor, ErrInvalidArgument, ErrInternal.
func (s *Service) ListReplies(ctx context.Context, in ListRepliesInput) (*models.Page, error) {
	const op = "service/comments/ListReplies"

	in.ParentID = strings.TrimSpace(in.ParentID)
	lg := log.From(ctx).With("op", op, "parent_id", in.ParentID)

	if in.ParentID == "" {
		lg.Warn("invalid argument: empty parent_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	page, err := s.storage.ListReplies(ctx, in.ParentID, publicStatuses, models.ListParams{
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidCursor):
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on ListReplies", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return page, nil
}
