// tracker — поведенческий анти-спам трекер: скользящее окно недавних
// отправок на личность (fingerprint) для детекции всплесков, дубликатов
// и общей скорости.
//
// Модель данных: сегментированная по fingerprint карта с мьютексом на
// сегмент — отправки одной личности взаимно исключаются (два конкурентных
// запроса не проскочат проверку интервала), разные личности почти не
// конкурируют между собой.
//
// Состояние принципиально эфемерно: никогда не персистится, после
// рестарта отстраивается заново с деградацией точности. Память ограничена
// с двух сторон: окном на личность (WindowSize) и периодической выгрузкой
// простаивающих личностей (IdleTTL, janitor).
package tracker

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	logctx "github.com/pribylovaa/go-blog-platform/pkg/log"
)

// Config — параметры окон и выгрузки.
type Config struct {
	// WindowSize — сколько последних отправок помнить на личность.
	WindowSize int `yaml:"window_size" env:"TRACKER_WINDOW_SIZE" env-default:"10"`
	// MinSpacing — минимальный интервал между отправками одной личности;
	// нарушение — burst.
	MinSpacing time.Duration `yaml:"min_spacing" env:"TRACKER_MIN_SPACING" env-default:"10s"`
	// DuplicateWindow — окно поиска дубликата по хэшу контента.
	DuplicateWindow time.Duration `yaml:"duplicate_window" env:"TRACKER_DUPLICATE_WINDOW" env-default:"5m"`
	// IdleTTL — личность без активности дольше TTL выгружается целиком.
	IdleTTL time.Duration `yaml:"idle_ttl" env:"TRACKER_IDLE_TTL" env-default:"1h"`
	// SweepInterval — период фоновой выгрузки.
	SweepInterval time.Duration `yaml:"sweep_interval" env:"TRACKER_SWEEP_INTERVAL" env-default:"5m"`
}

// DefaultConfig — значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		WindowSize:      10,
		MinSpacing:      10 * time.Second,
		DuplicateWindow: 5 * time.Minute,
		IdleTTL:         time.Hour,
		SweepInterval:   5 * time.Minute,
	}
}

// normalize страхует от нулевых значений из частично заполненного конфига.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.WindowSize <= 0 {
		c.WindowSize = d.WindowSize
	}
	if c.MinSpacing <= 0 {
		c.MinSpacing = d.MinSpacing
	}
	if c.DuplicateWindow <= 0 {
		c.DuplicateWindow = d.DuplicateWindow
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = d.IdleTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	return c
}

// Result — ответ трекера на одну отправку.
// Чисто консультативный: решение принимают скорер и Decision Engine.
type Result struct {
	// FirstSeen — первая отправка личности на памяти трекера.
	FirstSeen bool
	// Burst — предыдущая отправка была ближе MinSpacing.
	Burst bool
	// DuplicateRecent — тот же хэш контента уже отправлялся в DuplicateWindow.
	DuplicateRecent bool
	// Violations — накопленные нарушения интервала (включая текущее).
	Violations int32
}

// Suspicious — производный признак для внешних потребителей.
func (r Result) Suspicious() bool {
	return r.Burst || r.DuplicateRecent || r.Violations > 0
}

type submission struct {
	at   time.Time
	hash string
}

type record struct {
	subs       []submission
	violations int32
	lastSeen   time.Time
}

const shardCount = 64

type shard struct {
	mu sync.Mutex
	m  map[string]*record
}

// Tracker — конкурентно-безопасный трекер активности личностей.
type Tracker struct {
	cfg    Config
	shards [shardCount]shard

	// onEvict уведомляет о количестве выгруженных личностей (метрики).
	onEvict func(int)
}

// Option настраивает Tracker при создании.
type Option func(*Tracker)

// WithEvictHook подписывает колбэк на выгрузку простаивающих личностей.
func WithEvictHook(f func(evicted int)) Option {
	return func(t *Tracker) { t.onEvict = f }
}

// New создаёт трекер.
func New(cfg Config, opts ...Option) *Tracker {
	t := &Tracker{cfg: cfg.normalize()}
	for i := range t.shards {
		t.shards[i].m = make(map[string]*record)
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// shardFor выбирает сегмент по FNV-хэшу fingerprint.
func (t *Tracker) shardFor(fp string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fp))
	return &t.shards[h.Sum32()%shardCount]
}

// RecordAndCheck атомарно (в пределах личности) регистрирует отправку
// и возвращает поведенческие признаки. now передаётся явно — трекер
// не зависит от системных часов и детерминирован в тестах.
func (t *Tracker) RecordAndCheck(fingerprint, contentHash string, now time.Time) Result {
	sh := t.shardFor(fingerprint)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.m[fingerprint]
	if !ok {
		rec = &record{}
		sh.m[fingerprint] = rec
	}

	res := Result{FirstSeen: !ok}

	if n := len(rec.subs); n > 0 {
		last := rec.subs[n-1]
		if now.Sub(last.at) < t.cfg.MinSpacing {
			res.Burst = true
			rec.violations++
		}

		for i := n - 1; i >= 0; i-- {
			sub := rec.subs[i]
			if now.Sub(sub.at) > t.cfg.DuplicateWindow {
				break
			}
			if sub.hash == contentHash {
				res.DuplicateRecent = true
				break
			}
		}
	}

	rec.subs = append(rec.subs, submission{at: now, hash: contentHash})
	if len(rec.subs) > t.cfg.WindowSize {
		rec.subs = rec.subs[len(rec.subs)-t.cfg.WindowSize:]
	}
	rec.lastSeen = now

	res.Violations = rec.violations
	return res
}

// Sweep выгружает личности, простаивающие дольше IdleTTL.
// Возвращает количество выгруженных записей. Сегменты обходятся по одному,
// обработка отправок не блокируется более чем на один сегмент.
func (t *Tracker) Sweep(now time.Time) int {
	evicted := 0

	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for fp, rec := range sh.m {
			if now.Sub(rec.lastSeen) > t.cfg.IdleTTL {
				delete(sh.m, fp)
				evicted++
			}
		}
		sh.mu.Unlock()
	}

	if evicted > 0 && t.onEvict != nil {
		t.onEvict(evicted)
	}

	return evicted
}

// Len — текущее количество отслеживаемых личностей (для метрик/тестов).
func (t *Tracker) Len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.m)
		sh.mu.Unlock()
	}
	return n
}

// Run запускает периодическую выгрузку до отмены контекста.
// Блокирует вызывающую горутину; запускать как go tr.Run(ctx).
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()

	lg := logctx.From(ctx).With("op", "tracker/Run")

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := t.Sweep(now); n > 0 {
				lg.Debug("tracker_sweep", "evicted", n, "tracked", t.Len())
			}
		}
	}
}
