package mongo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/go-blog-platform/internal/comments/config"
	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/storage"
)

// encodeCursor кодирует пару (created_at, _id) в непрозрачный токен для клиента.
func encodeCursor(time time.Time, id primitive.ObjectID) string {
	raw := fmt.Sprintf("%d|%s", time.UTC().UnixNano(), id.Hex())

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor декодирует токен обратно в пару ключей.
func decodeCursor(token string) (time.Time, primitive.ObjectID, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("bad parts")
	}

	nanos, err := parseInt64(parts[0])
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	oid, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	return time.Unix(0, nanos).UTC(), oid, nil
}

// parseInt64 — локальная маленькая обёртка без импорта strconv везде.
func parseInt64(s string) (int64, error) {
	var x int64
	_, err := fmt.Sscan(s, &x)

	return x, err
}

// limitOrDefault приводит запрошенный размер страницы к [Default, Max].
func limitOrDefault(cfg *config.Config, pageSize int32) int64 {
	lim := pageSize
	if lim <= 0 {
		lim = cfg.Limits.Default
	}

	if lim > cfg.Limits.Max {
		lim = cfg.Limits.Max
	}

	return int64(lim)
}

// statusFilter добавляет фильтр по статусам; пустой срез — без фильтра.
func statusFilter(filter bson.D, statuses []models.Status) bson.D {
	switch len(statuses) {
	case 0:
		return filter
	case 1:
		return append(filter, bson.E{Key: "status", Value: statuses[0]})
	default:
		return append(filter, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: statuses}}})
	}
}

// MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// normalizeTimes приводит временные поля к UTC после чтения.
func normalizeTimes(c *models.Comment) {
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.EditDeadline = c.EditDeadline.UTC()
	if !c.Moderation.At.IsZero() {
		c.Moderation.At = c.Moderation.At.UTC()
	}
}

// CreateComment создаёт комментарий (корневой или ответ).
//   - Для корня выставляет Level=0.
//   - Для ответа подтягивает PostID из родителя, Level = parent.Level + 1;
//     глубина проверяется по cfg.Limits.MaxDepth.
//   - На родителе инкрементирует replies_count.
//
// Статус, флаги, скор и дедлайн правки приходят готовыми из пайплайна
// модерации — хранилище их не пересчитывает.
func (m *Mongo) CreateComment(ctx context.Context, comm models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/CreateComment"

	now := toMS(time.Now())

	comm.CreatedAt = now
	comm.UpdatedAt = now
	comm.EditDeadline = toMS(comm.EditDeadline)
	comm.RepliesCount = 0

	var parentOID primitive.ObjectID

	if strings.TrimSpace(comm.ParentID) == "" {
		// Корневой комментарий.
		comm.Level = 0
	} else {
		// Ответ: необходимо найти родителя и перенять часть полей/ограничений.
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(comm.ParentID))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
		}
		parentOID = oid

		var parent models.Comment
		if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: parentOID}}).Decode(&parent); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
			}

			return nil, fmt.Errorf("%s: find parent: %w", op, err)
		}

		// Удалённый родитель остаётся валидной точкой ветвления: его ветка
		// видна, отвечать в неё можно.
		if parent.Level+1 > m.cfg.Limits.MaxDepth {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrMaxDepthExceeded)
		}

		// Если post_id не совпадает — принудительно выставим как у родителя (защита от рассинхрона).
		comm.PostID = parent.PostID
		comm.Level = parent.Level + 1
	}

	// Вставляем документ. Если ID пустой — драйвер сгенерирует новый ObjectID.
	res, err := m.comments.InsertOne(ctx, comm)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	// Инкремент счётчика у родителя — строго по факту успешной вставки:
	// неудачный insert не должен оставлять следов на дереве.
	if !parentOID.IsZero() {
		_, _ = m.comments.UpdateByID(ctx, parentOID, bson.D{
			{Key: "$inc", Value: bson.D{{Key: "replies_count", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: toMS(time.Now())}}},
		})
	}

	comm.ID = oid.Hex()
	return &comm, nil
}

// CommentByID возвращает комментарий по идентификатору.
// Если запись не найдена — storage.ErrNotFound.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var out models.Comment
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeTimes(&out)

	return &out, nil
}

// UpdateComment применяет правку: контент и пересчитанные модерационные поля.
func (m *Mongo) UpdateComment(ctx context.Context, id string, upd storage.CommentUpdate) (*models.Comment, error) {
	const op = "storage/mongo/UpdateComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	after := options.After
	res := m.comments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "content", Value: upd.Content},
			{Key: "status", Value: upd.Status},
			{Key: "flags", Value: upd.Flags},
			{Key: "score", Value: upd.Score},
			{Key: "edited", Value: true},
			{Key: "updated_at", Value: toMS(time.Now())},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	)

	var out models.Comment
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeTimes(&out)

	return &out, nil
}

// SetStatus выставляет статус вместе с аудитом модерационного действия.
func (m *Mongo) SetStatus(ctx context.Context, id string, status models.Status, mod models.ModerationInfo) (*models.Comment, error) {
	const op = "storage/mongo/SetStatus"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	mod.At = toMS(mod.At)

	after := options.After
	res := m.comments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: status},
			{Key: "moderation", Value: mod},
			{Key: "updated_at", Value: toMS(time.Now())},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	)

	var out models.Comment
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeTimes(&out)

	return &out, nil
}

// LikeComment инкрементирует счётчик лайков и возвращает новое значение.
func (m *Mongo) LikeComment(ctx context.Context, id string) (int32, error) {
	const op = "storage/mongo/LikeComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	after := options.After
	res := m.comments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "likes", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(after).
			SetProjection(bson.D{{Key: "likes", Value: 1}}),
	)

	var out struct {
		Likes int32 `bson:"likes"`
	}
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return out.Likes, nil
}

// DeleteComment удаляет комментарий: мягко при наличии ответов, иначе физически.
func (m *Mongo) DeleteComment(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var curr models.Comment
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&curr); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if curr.RepliesCount > 0 {
		// Ветка с ответами: контент затирается, документ остаётся якорем дерева.
		_, err := m.comments.UpdateByID(ctx, oid, bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "is_deleted", Value: true},
				{Key: "content", Value: ""},
				{Key: "updated_at", Value: toMS(time.Now())},
			}},
		})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	}

	if _, err := m.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Жалобы на физически удалённый комментарий больше не имеют предмета.
	_, _ = m.reports.DeleteMany(ctx, bson.D{{Key: "comment_id", Value: oid.Hex()}})

	if curr.ParentID != "" {
		if parentOID, perr := primitive.ObjectIDFromHex(curr.ParentID); perr == nil {
			_, _ = m.comments.UpdateByID(ctx, parentOID, bson.D{
				{Key: "$inc", Value: bson.D{{Key: "replies_count", Value: -1}}},
				{Key: "$set", Value: bson.D{{Key: "updated_at", Value: toMS(time.Now())}}},
			})
		}
	}

	return nil
}

// ListByPost возвращает страницу корневых комментариев поста (parent_id == "").
// Сортировка: created_at DESC, _id DESC.
// При некорректном page_token — storage.ErrInvalidCursor.
func (m *Mongo) ListByPost(ctx context.Context, postID uuid.UUID, statuses []models.Status, param models.ListParams) (*models.Page, error) {
	const op = "storage/mongo/ListByPost"

	limit := limitOrDefault(m.cfg, param.PageSize)

	filter := bson.D{
		{Key: "post_id", Value: postID},
		{Key: "parent_id", Value: ""},
	}
	filter = statusFilter(filter, statuses)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	// Курсор "меньше" для DESC сортировки.
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

	return m.findPage(ctx, op, filter, findOpts)
}

// ListReplies возвращает страницу ответов для одной ветки (дети одного parent_id).
// Сортировка: created_at ASC, _id ASC — удобно для постепенной подзагрузки.
// При некорректном page_token — storage.ErrInvalidCursor.
func (m *Mongo) ListReplies(ctx context.Context, parentID string, statuses []models.Status, param models.ListParams) (*models.Page, error) {
	const op = "storage/mongo/ListReplies"

	parentOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(parentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	limit := limitOrDefault(m.cfg, param.PageSize)

	filter := bson.D{
		{Key: "parent_id", Value: parentOID.Hex()},
	}
	filter = statusFilter(filter, statuses)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	// Курсор "больше" для ASC сортировки.
	if strings.TrimSpace(param.PageToken) != "" {
		t, oid, decErr := decodeCursor(param.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$gt", Value: t}}}},
			bson.D{
				{Key: "created_at", Value: t},
				{Key: "_id", Value: bson.D{{Key: "$gt", Value: oid}}},
			},
		}})
	}

	return m.findPage(ctx, op, filter, findOpts)
}

// ModerationQueue возвращает страницу комментариев, ожидающих решения.
// Сортировки по жалобам/приоритету используют числовой вторичный ключ,
// поэтому курсор остаётся парой (created_at, _id): страницы стабильны,
// пока счётчики не меняются, что для очереди модерации приемлемо.
func (m *Mongo) ModerationQueue(ctx context.Context, q models.QueueParams) (*models.Page, error) {
	const op = "storage/mongo/ModerationQueue"

	limit := limitOrDefault(m.cfg, q.PageSize)

	filter := bson.D{}
	if q.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: q.Status})
	} else {
		// Очередь по умолчанию: pending/flagged плюс обжалованные
		// комментарии, ещё не дошедшие до порога авто-флага.
		// Обёртка $and не конфликтует с $or-условием курсора ниже.
		filter = append(filter, bson.E{Key: "$and", Value: bson.A{
			bson.D{{Key: "$or", Value: bson.A{
				bson.D{{Key: "status", Value: bson.D{{Key: "$in", Value: []models.Status{models.StatusPending, models.StatusFlagged}}}}},
				bson.D{{Key: "reports_count", Value: bson.D{{Key: "$gt", Value: 0}}}},
			}}},
		}})
	}

	if q.Priority != "" {
		filter = append(filter, bson.E{Key: "max_report_priority", Value: bson.D{{Key: "$gte", Value: q.Priority.Rank()}}})
	}

	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	switch q.Sort {
	case models.QueueByReports:
		sort = bson.D{{Key: "reports_count", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case models.QueueByPriority:
		sort = bson.D{{Key: "max_report_priority", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}

	findOpts := options.Find().SetSort(sort).SetLimit(limit)

	if strings.TrimSpace(q.PageToken) != "" {
		t, oid, decErr := decodeCursor(q.PageToken)
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

	return m.findPage(ctx, op, filter, findOpts)
}

// findPage — общий хвост листинговых запросов: выборка, декодирование,
// нормализация времён и сборка курсора следующей страницы.
func (m *Mongo) findPage(ctx context.Context, op string, filter bson.D, findOpts *options.FindOptions) (*models.Page, error) {
	cur, err := m.comments.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Comment
	for cur.Next(ctx) {
		var comm models.Comment
		if err := cur.Decode(&comm); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		normalizeTimes(&comm)
		items = append(items, comm)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	var next string
	if n := len(items); n > 0 {
		last := items[n-1]
		// created_at и id всегда проставлены — соберём курсор.
		oid, _ := primitive.ObjectIDFromHex(last.ID)
		next = encodeCursor(last.CreatedAt, oid)
	}

	return &models.Page{
		Items:         items,
		NextPageToken: next,
	}, nil
}
