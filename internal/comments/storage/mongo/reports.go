package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/storage"
)

// CreateReport регистрирует жалобу.
//
// Последовательность:
//  1. комментарий должен существовать (иначе ErrNotFound);
//  2. приоритет вычисляется по причине и текущему количеству жалоб;
//  3. вставка — уникальный индекс (comment_id, fingerprint) отсекает
//     дубликаты на уровне базы (ErrDuplicateReport);
//  4. на комментарии $inc reports_count и $max max_report_priority;
//  5. достижение threshold переводит approved -> flagged условным
//     обновлением одного документа — конкурентные жалобы не дадут
//     двойного перехода.
func (m *Mongo) CreateReport(ctx context.Context, rep models.Report, threshold int32) (*models.Report, error) {
	const op = "storage/mongo/CreateReport"

	commentOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(rep.CommentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	rep.CommentID = commentOID.Hex()

	var comm models.Comment
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: commentOID}}).Decode(&comm); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: find comment: %w", op, err)
	}

	now := toMS(time.Now())
	rep.Status = models.ReportPending
	rep.Priority = models.ComputePriority(rep.Reason, comm.ReportsCount)
	rep.CreatedAt = now
	rep.UpdatedAt = now

	res, err := m.reports.InsertOne(ctx, rep)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrDuplicateReport)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}
	rep.ID = oid.Hex()

	if _, err := m.comments.UpdateByID(ctx, commentOID, bson.D{
		{Key: "$inc", Value: bson.D{{Key: "reports_count", Value: 1}}},
		{Key: "$max", Value: bson.D{{Key: "max_report_priority", Value: rep.Priority.Rank()}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}); err != nil {
		return nil, fmt.Errorf("%s: bump counters: %w", op, err)
	}

	// Порог достигнут — опубликованный комментарий уходит на повторную
	// проверку. Условие в фильтре делает переход идемпотентным.
	if comm.ReportsCount+1 >= threshold {
		_, err := m.comments.UpdateOne(ctx,
			bson.D{
				{Key: "_id", Value: commentOID},
				{Key: "status", Value: models.StatusApproved},
				{Key: "reports_count", Value: bson.D{{Key: "$gte", Value: threshold}}},
			},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "status", Value: models.StatusFlagged},
				{Key: "updated_at", Value: now},
			}}},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: flag comment: %w", op, err)
		}
	}

	return &rep, nil
}

// ReportByID возвращает жалобу по идентификатору.
func (m *Mongo) ReportByID(ctx context.Context, id string) (*models.Report, error) {
	const op = "storage/mongo/ReportByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var out models.Report
	if err := m.reports.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeReportTimes(&out)

	return &out, nil
}

// ReportsByComment возвращает страницу жалоб одного комментария, сначала новые.
func (m *Mongo) ReportsByComment(ctx context.Context, commentID string, param models.ListParams) (*models.ReportPage, error) {
	const op = "storage/mongo/ReportsByComment"

	commentOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(commentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	limit := limitOrDefault(m.cfg, param.PageSize)

	filter := bson.D{{Key: "comment_id", Value: commentOID.Hex()}}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	if strings.TrimSpace(param.PageToken) != "" {
		t, oid, decErr := decodeCursor(param.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: t}}}},
			bson.D{
				{Key: "created_at", Value: t},
				{Key: "_id", Value: bson.D{{Key: "$lt", Value: oid}}},
			},
		}})
	}

	cur, err := m.reports.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Report
	for cur.Next(ctx) {
		var rep models.Report
		if err := cur.Decode(&rep); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		normalizeReportTimes(&rep)
		items = append(items, rep)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	var next string
	if n := len(items); n > 0 {
		last := items[n-1]
		oid, _ := primitive.ObjectIDFromHex(last.ID)
		next = encodeCursor(last.CreatedAt, oid)
	}

	return &models.ReportPage{
		Items:         items,
		NextPageToken: next,
	}, nil
}

// UpdateReportStatus переводит жалобу в новый статус с аудитом закрытия.
// Фильтр исключает терминальные статусы — повторное закрытие невозможно
// даже при конкурентных запросах.
func (m *Mongo) UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, res models.Resolution) (*models.Report, error) {
	const op = "storage/mongo/UpdateReportStatus"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res.At = toMS(res.At)

	after := options.After
	found := m.reports.FindOneAndUpdate(ctx,
		bson.D{
			{Key: "_id", Value: oid},
			{Key: "status", Value: bson.D{{Key: "$nin", Value: bson.A{
				models.ReportResolved, models.ReportDismissed,
			}}}},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: status},
			{Key: "resolution", Value: res},
			{Key: "updated_at", Value: toMS(time.Now())},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	)

	var out models.Report
	if err := found.Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			// Либо жалобы нет, либо она терминальна — различаем отдельным чтением.
			var curr models.Report
			if ferr := m.reports.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&curr); ferr == nil {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrReportTerminal)
			}

			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeReportTimes(&out)

	return &out, nil
}

// normalizeReportTimes приводит временные поля жалобы к UTC после чтения.
func normalizeReportTimes(r *models.Report) {
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	if !r.Resolution.At.IsZero() {
		r.Resolution.At = r.Resolution.At.UTC()
	}
}
