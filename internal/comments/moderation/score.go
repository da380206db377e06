package moderation

import (
	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation/tracker"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
)

// Скоринг работает на единой ограниченной шкале 0..MaxScore.
// Историческое замечание: спам-детекция и приоритеты жалоб в прошлом жили
// на разных шкалах; здесь шкала одна, приоритеты жалоб — отдельное закрытое
// перечисление (models.Priority) и со скором не смешиваются.
const MaxScore = 100

// Weights — веса вклада сигналов в итоговый скор.
// Таблица данных, а не зашитые условия: веса настраиваются конфигом
// и тестируются изолированно.
type Weights struct {
	URL            int32 `yaml:"url" env-default:"7"`
	Email          int32 `yaml:"email" env-default:"4"`
	Phone          int32 `yaml:"phone" env-default:"4"`
	RepeatedChars  int32 `yaml:"repeated_chars" env-default:"5"`
	RepeatedPhrase int32 `yaml:"repeated_phrase" env-default:"6"`
	Keyword        int32 `yaml:"keyword" env-default:"3"`
	Profanity      int32 `yaml:"profanity" env-default:"6"`
	ExcessCaps     int32 `yaml:"excess_caps" env-default:"3"`
	LengthOutlier  int32 `yaml:"length_outlier" env-default:"2"`

	// Поведенческие и идентификационные надбавки.
	DuplicateContent int32 `yaml:"duplicate_content" env-default:"8"`
	Violation        int32 `yaml:"violation" env-default:"4"`
	NewIdentity      int32 `yaml:"new_identity" env-default:"5"`
	LowTrust         int32 `yaml:"low_trust" env-default:"5"`

	// Truncated — вход не удалось просканировать в бюджет: максимально
	// подозрителен, но решение остаётся за Decision Engine.
	Truncated int32 `yaml:"truncated" env-default:"20"`
}

// DefaultWeights — веса по умолчанию. Порядок значимости: URL выше всего,
// затем повторы фраз/символов, затем ключевые слова, затем выбросы длины.
func DefaultWeights() Weights {
	return Weights{
		URL:              7,
		Email:            4,
		Phone:            4,
		RepeatedChars:    5,
		RepeatedPhrase:   6,
		Keyword:          3,
		Profanity:        6,
		ExcessCaps:       3,
		LengthOutlier:    2,
		DuplicateContent: 8,
		Violation:        4,
		NewIdentity:      5,
		LowTrust:         5,
		Truncated:        20,
	}
}

// ScoreConfig — пороги и веса скоринга.
type ScoreConfig struct {
	Weights Weights `yaml:"weights"`
	// SpamThreshold — скор, с которого выставляется isSpam.
	SpamThreshold int32 `yaml:"spam_threshold" env:"SPAM_THRESHOLD" env-default:"15"`
	// SuspiciousThreshold — скор, с которого выставляется isSuspicious.
	SuspiciousThreshold int32 `yaml:"suspicious_threshold" env:"SUSPICIOUS_THRESHOLD" env-default:"8"`
}

// DefaultScoreConfig — конфигурация по умолчанию.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Weights:             DefaultWeights(),
		SpamThreshold:       15,
		SuspiciousThreshold: 8,
	}
}

// runThreshold — серия одинаковых символов от этой длины считается сигналом.
const runThreshold = 5

// maxViolationCharge — вклад нарушений трекера ограничен, чтобы одна
// и та же личность не выжигала шкалу целиком.
const maxViolationCharge = 3

// Scorer комбинирует сигналы, поведение и уровень доверия в скор и флаги.
type Scorer struct {
	cfg ScoreConfig
}

// NewScorer создаёт скорер с данной конфигурацией.
func NewScorer(cfg ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score возвращает скор 0..MaxScore и производный набор флагов.
//
// Детерминизм: одинаковые (sig, beh, trust) всегда дают одинаковый
// результат — случайности нет нигде.
func (s *Scorer) Score(sig Signals, beh tracker.Result, trust identity.TrustLevel) (int32, models.Flags) {
	w := s.cfg.Weights

	var score int32

	score += int32(sig.URLCount) * w.URL
	score += int32(sig.EmailCount) * w.Email
	score += int32(sig.PhoneCount) * w.Phone
	score += int32(sig.KeywordHits) * w.Keyword
	score += int32(sig.ProfanityHits) * w.Profanity

	if sig.LongestRun >= runThreshold {
		score += w.RepeatedChars
	}
	if sig.RepeatedPhrase {
		score += w.RepeatedPhrase
	}
	if sig.ExcessCaps {
		score += w.ExcessCaps
	}
	if sig.TooShort || sig.TooLong {
		score += w.LengthOutlier
	}
	if sig.Truncated {
		score += w.Truncated
	}

	if beh.DuplicateRecent {
		score += w.DuplicateContent
	}
	if v := beh.Violations; v > 0 {
		if v > maxViolationCharge {
			v = maxViolationCharge
		}
		score += v * w.Violation
	}
	if beh.FirstSeen {
		score += w.NewIdentity
	}
	if trust == identity.TrustLow {
		score += w.LowTrust
	}

	if score > MaxScore {
		score = MaxScore
	}

	flags := models.Flags{
		ContainsLinks: sig.URLCount > 0,
		HasProfanity:  sig.ProfanityHits > 0,
		IsSpam:        score >= s.cfg.SpamThreshold,
		IsSuspicious: score >= s.cfg.SuspiciousThreshold ||
			beh.DuplicateRecent || beh.Violations > 0 || sig.Truncated,
	}

	return score, flags
}
