package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/go-blog-platform/internal/comments/metrics"
	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/storage"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/pkg/log"
)

// SubmitReportInput — жалоба на комментарий.
type SubmitReportInput struct {
	CommentID   string
	Reason      string
	Description string
}

// maxReportDescriptionLen — предел свободного текста жалобы.
const maxReportDescriptionLen = 1000

// SubmitReport — регистрация жалобы.
//
// Валидация:
//   - CommentID обязателен; Reason — из закрытого перечисления;
//   - Description опционален, обрезается по TrimSpace и ограничен по длине;
//   - жалоба на собственный комментарий отклоняется.
//
// Поведение/ошибки:
//   - приоритет и возможный переход approved -> flagged выполняет storage
//     одним условным обновлением (см. cfg.Moderation.ReportThreshold);
//   - ErrNotFound — нет такого комментария;
//   - ErrDuplicateReport — эта личность уже жаловалась;
//   - ErrInvalidArgument, ErrInternal.
func (s *Service) SubmitReport(ctx context.Context, in SubmitReportInput) (*models.Report, error) {
	const op = "service/reports/SubmitReport"

	ident, _ := identity.From(ctx)

	in.CommentID = strings.TrimSpace(in.CommentID)
	lg := log.From(ctx).With("op", op, "comment_id", in.CommentID, "fingerprint", ident.Fingerprint)

	if in.CommentID == "" {
		lg.Warn("invalid argument: empty comment_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	reason, ok := models.ParseReason(in.Reason)
	if !ok {
		lg.Warn("invalid argument: unknown reason", "reason", in.Reason)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Description = strings.TrimSpace(in.Description)
	if len(in.Description) > maxReportDescriptionLen {
		lg.Warn("invalid argument: description too long")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	curr, err := s.storage.CommentByID(ctx, in.CommentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CommentByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if s.ownedBy(curr, ident) {
		lg.Warn("report denied: own comment")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	rep := models.Report{
		CommentID:   in.CommentID,
		Fingerprint: ident.Fingerprint,
		Reason:      reason,
		Description: in.Description,
	}

	result, err := s.storage.CreateReport(ctx, rep, s.cfg.Moderation.ReportThreshold)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrDuplicateReport):
			lg.Warn("duplicate report")
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateReport)
		default:
			lg.Error("storage error on CreateReport", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	metrics.Reports.WithLabelValues(string(reason)).Inc()
	lg.Info("report submitted", "id", result.ID, "priority", result.Priority)

	return result, nil
}

// ReportsByComment — страница жалоб одного комментария (модераторский доступ
// обеспечивает транспорт).
//
// Ошибки: ErrNotFound, ErrInvalidCursor, ErrInvalidArgument, ErrInternal.
func (s *Service) ReportsByComment(ctx context.Context, commentID string, pageSize int32, pageToken string) (*models.ReportPage, error) {
	const op = "service/reports/ReportsByComment"

	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "comment_id", commentID)

	if commentID == "" {
		lg.Warn("invalid argument: empty comment_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	page, err := s.storage.ReportsByComment(ctx, commentID, models.ListParams{
		PageSize:  pageSize,
		PageToken: pageToken,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidCursor):
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on ReportsByComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return page, nil
}

// ResolveReport закрывает жалобу как обоснованную.
func (s *Service) ResolveReport(ctx context.Context, id, note string) (*models.Report, error) {
	return s.closeReport(ctx, "service/reports/ResolveReport", id, models.ReportResolved, note)
}

// DismissReport закрывает жалобу как необоснованную.
func (s *Service) DismissReport(ctx context.Context, id, note string) (*models.Report, error) {
	return s.closeReport(ctx, "service/reports/DismissReport", id, models.ReportDismissed, note)
}

// closeReport — общий переход жалобы в терминальный статус с аудитом.
//
// Ошибки: ErrNotFound, ErrReportTerminal, ErrInvalidArgument, ErrInternal.
func (s *Service) closeReport(ctx context.Context, op, id string, status models.ReportStatus, note string) (*models.Report, error) {
	ident, _ := identity.From(ctx)

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id, "moderator_id", ident.UserID.String())

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	res := models.Resolution{
		ModeratorID: ident.UserID,
		At:          time.Now().UTC(),
		Note:        strings.TrimSpace(note),
	}

	result, err := s.storage.UpdateReportStatus(ctx, id, status, res)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("report not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrReportTerminal):
			lg.Warn("report already terminal")
			return nil, fmt.Errorf("%s: %w", op, ErrReportTerminal)
		default:
			lg.Error("storage error on UpdateReportStatus", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	lg.Info("report closed", "status", result.Status)

	return result, nil
}
