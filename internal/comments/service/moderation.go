package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/storage"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/pkg/log"
)

// ModerationQueueInput — параметры чтения очереди модерации.
type ModerationQueueInput struct {
	// Status — опциональный фильтр (pending или flagged); пусто — очередь
	// целиком, включая обжалованные, но ещё не снятые с публикации.
	Status string
	// Priority — опциональный нижний порог приоритета жалоб
	// (low|medium|high|critical).
	Priority  string
	Sort      string
	PageSize  int32
	PageToken string
}

// ModerationQueue — страница комментариев, ожидающих решения.
// Доступ модератора обеспечивает транспорт (RequireModerator).
//
// Ошибки: ErrInvalidArgument (неизвестный статус/приоритет/сортировка),
// ErrInvalidCursor, ErrInternal.
func (s *Service) ModerationQueue(ctx context.Context, in ModerationQueueInput) (*models.Page, error) {
	const op = "service/moderation/ModerationQueue"

	lg := log.From(ctx).With("op", op, "status", in.Status, "sort", in.Sort)

	var status models.Status
	if v := strings.TrimSpace(in.Status); v != "" {
		parsed, ok := models.ParseStatus(v)
		if !ok || (parsed != models.StatusPending && parsed != models.StatusFlagged) {
			lg.Warn("invalid argument: bad status filter")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		status = parsed
	}

	var priority models.Priority
	if v := strings.TrimSpace(in.Priority); v != "" {
		parsed, ok := models.ParsePriority(v)
		if !ok {
			lg.Warn("invalid argument: bad priority filter")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		priority = parsed
	}

	sort, ok := models.ParseQueueSort(strings.TrimSpace(in.Sort))
	if !ok {
		lg.Warn("invalid argument: bad sort")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	page, err := s.storage.ModerationQueue(ctx, models.QueueParams{
		Status:    status,
		Priority:  priority,
		Sort:      sort,
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		}

		lg.Error("storage error on ModerationQueue", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return page, nil
}

// ApproveComment — модераторское одобрение.
func (s *Service) ApproveComment(ctx context.Context, id, reason string) (*models.Comment, error) {
	return s.moderate(ctx, "service/moderation/ApproveComment", id, models.StatusApproved, reason)
}

// RejectComment — модераторское отклонение.
func (s *Service) RejectComment(ctx context.Context, id, reason string) (*models.Comment, error) {
	return s.moderate(ctx, "service/moderation/RejectComment", id, models.StatusRejected, reason)
}

// HideComment скрывает ранее опубликованный комментарий.
func (s *Service) HideComment(ctx context.Context, id, reason string) (*models.Comment, error) {
	return s.moderate(ctx, "service/moderation/HideComment", id, models.StatusHidden, reason)
}

// FlagComment вручную помечает комментарий для дальнейшего разбора.
func (s *Service) FlagComment(ctx context.Context, id, reason string) (*models.Comment, error) {
	return s.moderate(ctx, "service/moderation/FlagComment", id, models.StatusFlagged, reason)
}

// moderate — общий переход статуса по решению модератора с аудитом.
//
// Ошибки: ErrNotFound, ErrInvalidArgument, ErrInternal.
func (s *Service) moderate(ctx context.Context, op, id string, status models.Status, reason string) (*models.Comment, error) {
	ident, _ := identity.From(ctx)

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id, "moderator_id", ident.UserID.String())

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	mod := models.ModerationInfo{
		ModeratorID: ident.UserID,
		At:          time.Now().UTC(),
		Reason:      strings.TrimSpace(reason),
	}

	result, err := s.storage.SetStatus(ctx, id, status, mod)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on SetStatus", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	lg.Info("moderation action applied", "status", result.Status)

	return result, nil
}
