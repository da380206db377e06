// mongo — реализация storage.Storage поверх MongoDB.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pribylovaa/go-blog-platform/internal/comments/config"
)

const (
	commentsCollection = "comments"
	reportsCollection  = "reports"
	defaultDBName      = "comments"
)

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg      *config.Config
	client   *mongodriver.Client
	db       *mongodriver.Database
	comments *mongodriver.Collection
	reports  *mongodriver.Collection
}

// New подключается к MongoDB, проверяет его, подготавливает коллекции и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(cfg.DB.URL)
	db := cli.Database(dbName)

	m := &Mongo{
		cfg:      cfg,
		client:   cli,
		db:       db,
		comments: db.Collection(commentsCollection),
		reports:  db.Collection(reportsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создает индексы, необходимые сервису комментариев.
//   - Список корневых комментариев: post_id + parent_id + status + created_at(desc).
//   - Ответы в ветке: parent_id + status + created_at(asc).
//   - Очередь модерации: status + created_at(desc); сортировки по жалобам
//     и приоритету обслуживаются status + reports_count / max_report_priority.
//   - Жалобы: уникальность пары (comment_id, fingerprint) — инвариант
//     «одна жалоба одной личности на один комментарий» держит база,
//     а не гонящиеся между собой запросы.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	commentIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("post_parent_status_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("parent_status_created_asc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "reports_count", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_reports_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "max_report_priority", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_priority_desc"),
		},
	}

	if _, err := m.comments.Indexes().CreateMany(ctx, commentIdx); err != nil {
		return fmt.Errorf("mongo ensure comment indexes: %w", err)
	}

	reportIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "comment_id", Value: 1}, {Key: "fingerprint", Value: 1}},
			Options: options.Index().SetName("uniq_comment_fingerprint").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "comment_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("comment_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("report_status_created_desc"),
		},
	}

	if _, err := m.reports.Indexes().CreateMany(ctx, reportIdx); err != nil {
		return fmt.Errorf("mongo ensure report indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает разумное значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
