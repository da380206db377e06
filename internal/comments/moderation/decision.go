package moderation

import (
	"github.com/pribylovaa/go-blog-platform/internal/comments/models"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
)

// DecisionInput — вход Decision Engine: флаги скоринга плюс контекст личности.
type DecisionInput struct {
	Banned bool
	Trust  identity.TrustLevel
	Flags  models.Flags
	// Burst — у личности есть свежие нарушения интервала отправки
	// (жёсткое нарушение отклоняется раньше, ещё до пайплайна;
	// сюда приходит остаточный признак из трекера).
	Burst bool
}

// Decide — конечный автомат модерационного решения.
// Правила применяются по порядку, выигрывает первое совпадение:
//  1. личность забанена                                  -> rejected;
//  2. isSpam && hasProfanity                             -> rejected;
//  3. trust=trusted и ни одного флага                    -> approved;
//  4. любой из {profanity, spam, suspicious, burst}      -> pending;
//  5. иначе                                              -> approved.
//
// contains_links в правиле 4 не участвует: ссылка сама по себе решения
// не меняет, флаг остаётся информационным (и учтён в скоринге).
func Decide(in DecisionInput) models.Status {
	switch {
	case in.Banned:
		return models.StatusRejected
	case in.Flags.IsSpam && in.Flags.HasProfanity:
		return models.StatusRejected
	case in.Trust == identity.TrustTrusted && !in.Flags.Any():
		return models.StatusApproved
	case needsReview(in):
		return models.StatusPending
	default:
		return models.StatusApproved
	}
}

// needsReview — флаги, отправляющие комментарий на ручную проверку.
func needsReview(in DecisionInput) bool {
	return in.Flags.HasProfanity || in.Flags.IsSpam || in.Flags.IsSuspicious || in.Burst
}

// DecideEdit — решение для правки существующего комментария.
// Если новый контент поднял флаги (или личность забанена) — правка входит
// в автомат с правила 2; чистая правка сохраняет прежний статус.
// Проверка дедлайна правки — зона ответственности сервисного слоя.
func DecideEdit(prior models.Status, in DecisionInput) models.Status {
	if in.Banned || needsReview(in) {
		return Decide(in)
	}

	return prior
}

// DecisionReason — машиночитаемое обоснование автоматического решения;
// пишется в аудит комментария при rejected/pending.
func DecisionReason(in DecisionInput) string {
	switch {
	case in.Banned:
		return "author banned"
	case in.Flags.IsSpam && in.Flags.HasProfanity:
		return "spam with profanity"
	case in.Flags.IsSpam:
		return "spam score"
	case in.Flags.HasProfanity:
		return "profanity"
	case in.Flags.IsSuspicious:
		return "suspicious activity"
	case in.Burst:
		return "submission burst"
	default:
		return ""
	}
}
