package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation/tracker"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
)

// TestScorer_Deterministic: одинаковый вход — одинаковый результат.
func TestScorer_Deterministic(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Extract("check https://a.example and buy now")
	beh := tracker.Result{FirstSeen: true}

	score1, flags1 := s.Score(sig, beh, identity.TrustNormal)
	score2, flags2 := s.Score(sig, beh, identity.TrustNormal)

	require.Equal(t, score1, score2)
	require.Equal(t, flags1, flags2)
}

// TestScorer_CleanText: чистый текст известной личности — нулевой скор
// и ни одного флага.
func TestScorer_CleanText(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Extract("A thoughtful comment about the article content.")

	score, flags := s.Score(sig, tracker.Result{}, identity.TrustNormal)

	require.Zero(t, score)
	require.False(t, flags.Any())
	require.False(t, flags.ContainsLinks)
}

// TestScorer_SpamThreshold: три ссылки перешагивают спам-порог.
func TestScorer_SpamThreshold(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Extract("https://a.example https://b.example https://c.example")

	score, flags := s.Score(sig, tracker.Result{}, identity.TrustNormal)

	// 3 URL * 7 = 21.
	require.GreaterOrEqual(t, score, int32(15))
	require.True(t, flags.IsSpam)
	require.True(t, flags.IsSuspicious)
	require.True(t, flags.ContainsLinks)
}

// TestScorer_SuspiciousThreshold: новая личность с одним коммерческим
// маркером — на границе подозрительности, но ещё не спам.
func TestScorer_SuspiciousThreshold(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Signals{KeywordHits: 1, WordCount: 12, SentenceCount: 1}
	beh := tracker.Result{FirstSeen: true}

	score, flags := s.Score(sig, beh, identity.TrustNormal)

	// keyword 3 + new identity 5 = 8.
	require.EqualValues(t, 8, score)
	require.True(t, flags.IsSuspicious)
	require.False(t, flags.IsSpam)
}

// TestScorer_BehaviorCharges: дубликат и нарушения интервала поднимают
// скор и подозрительность независимо от порога.
func TestScorer_BehaviorCharges(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Signals{WordCount: 10, SentenceCount: 1}

	_, flags := s.Score(sig, tracker.Result{DuplicateRecent: true}, identity.TrustNormal)
	require.True(t, flags.IsSuspicious)

	score, flags := s.Score(sig, tracker.Result{Violations: 1}, identity.TrustNormal)
	require.True(t, flags.IsSuspicious)
	require.EqualValues(t, 4, score)
}

// TestScorer_ViolationChargeCapped: вклад нарушений ограничен сверху.
func TestScorer_ViolationChargeCapped(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Signals{WordCount: 10, SentenceCount: 1}

	capped, _ := s.Score(sig, tracker.Result{Violations: maxViolationCharge}, identity.TrustNormal)
	over, _ := s.Score(sig, tracker.Result{Violations: 100}, identity.TrustNormal)

	require.Equal(t, capped, over)
}

// TestScorer_Truncated: обрезанный вход максимально подозрителен.
func TestScorer_Truncated(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Signals{Truncated: true, WordCount: 10, SentenceCount: 1}

	score, flags := s.Score(sig, tracker.Result{}, identity.TrustNormal)

	require.GreaterOrEqual(t, score, int32(15))
	require.True(t, flags.IsSpam)
	require.True(t, flags.IsSuspicious)
}

// TestScorer_ScoreCapped: шкала ограничена сверху MaxScore.
func TestScorer_ScoreCapped(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Signals{URLCount: 50, KeywordHits: 20, ProfanityHits: 10, Truncated: true}

	score, _ := s.Score(sig, tracker.Result{DuplicateRecent: true, Violations: 5}, identity.TrustLow)

	require.EqualValues(t, MaxScore, score)
}

// TestScorer_LowTrustCharge: низкое доверие добавляет надбавку, высокое — нет.
func TestScorer_LowTrustCharge(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultScoreConfig())
	sig := Signals{KeywordHits: 1, WordCount: 10, SentenceCount: 1}

	low, _ := s.Score(sig, tracker.Result{}, identity.TrustLow)
	normal, _ := s.Score(sig, tracker.Result{}, identity.TrustNormal)

	require.EqualValues(t, 5, low-normal)
}
