package moderation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Signals — структурный набор признаков, извлечённых из канонического текста.
// Все поля детерминированы относительно входа.
type Signals struct {
	URLCount   int
	EmailCount int
	PhoneCount int

	// LongestRun — длина максимальной серии одинаковых символов.
	LongestRun int
	// RepeatedPhrase — какая-то фраза из трёх слов повторяется >= 3 раз.
	RepeatedPhrase bool
	ExcessCaps     bool

	KeywordHits   int
	ProfanityHits int

	WordCount     int
	SentenceCount int
	TooShort      bool
	TooLong       bool

	// Truncated — вход превысил лимит сканирования или бюджет времени;
	// такой текст трактуется как максимально подозрительный.
	Truncated bool
}

// Лимиты извлечения. Движок регулярных выражений Go (RE2) линеен по
// построению — катастрофический backtracking невозможен; лимиты ниже
// дополнительно ограничивают объём работы на враждебном входе.
const (
	// MinContentLen/MaxContentLen — границы «нормальной» длины текста;
	// выход за них — сигнал, а не ошибка валидации.
	MinContentLen = 10
	MaxContentLen = 800

	// maxScanLen — жёсткий предел сканирования; хвост длиннее не
	// анализируется, а вход помечается Truncated.
	maxScanLen = 16 * 1024

	// extractBudget — бюджет стенных часов на весь проход экстрактора.
	extractBudget = 50 * time.Millisecond
)

// Шаблоны-детекторы. Квантификаторы ограничены сверху — даже при смене
// движка шаблоны останутся безопасными. RE2 допускает счётчик повтора
// не больше 1000; более длинный хвост URL в счёт не идёт.
var (
	reURL   = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']{1,1000}`)
	reEmail = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]{1,64}@[a-z0-9.\-]{1,255}\.[a-z]{2,24}\b`)
	rePhone = regexp.MustCompile(`\+?\d[\d\s()\-]{7,18}\d`)
)

// commercialKeywords — таблица коммерческих/манипулятивных маркеров.
// Сопоставление регистронезависимое, по подстроке канонического текста.
var commercialKeywords = []string{
	"buy now",
	"click here",
	"free money",
	"limited offer",
	"act now",
	"order today",
	"100% free",
	"earn cash",
	"work from home",
	"no risk",
	"guarantee",
	"subscribe",
	"promo code",
	"discount",
	"casino",
	"jackpot",
}

// profanityWords — базовый словарь обсценной лексики.
// Слова сопоставляются целиком (по границам слов), регистронезависимо.
var profanityWords = []string{
	"fuck",
	"shit",
	"bitch",
	"asshole",
	"bastard",
	"dick",
	"cunt",
	"motherfucker",
}

var reProfanity = compileWordList(profanityWords)

// compileWordList собирает один альтернативный шаблон по границам слов.
func compileWordList(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Extract извлекает сигналы из канонического (нормализованного) текста.
//
// Гарантии:
//   - время работы линейно по длине входа (RE2 + ручные проходы);
//   - вход длиннее maxScanLen или проход дольше extractBudget не вешает
//     пайплайн: экстрактор возвращает частичный набор с Truncated=true.
func Extract(text string) Signals {
	start := time.Now()

	var sig Signals

	if len(text) > maxScanLen {
		text = text[:maxScanLen]
		sig.Truncated = true
	}

	sig.TooShort = len(text) < MinContentLen
	sig.TooLong = len(text) > MaxContentLen

	sig.URLCount = len(reURL.FindAllStringIndex(text, -1))
	sig.EmailCount = len(reEmail.FindAllStringIndex(text, -1))
	sig.PhoneCount = len(rePhone.FindAllStringIndex(text, -1))

	lower := strings.ToLower(text)
	for _, kw := range commercialKeywords {
		sig.KeywordHits += strings.Count(lower, kw)
	}
	sig.ProfanityHits = len(reProfanity.FindAllStringIndex(text, -1))

	sig.LongestRun = longestRun(text)
	sig.ExcessCaps = excessCaps(text)
	sig.WordCount, sig.RepeatedPhrase = wordStats(text)
	sig.SentenceCount = sentenceCount(text)

	// Контроль бюджета: при превышении не доверяем частичному результату.
	if time.Since(start) > extractBudget {
		sig.Truncated = true
	}

	return sig
}

// longestRun — максимальная серия подряд идущих одинаковых рун.
func longestRun(s string) int {
	var prev rune
	run, best := 0, 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// excessCaps — капс считается избыточным, когда букв не меньше 15
// и более 60% из них в верхнем регистре.
func excessCaps(s string) bool {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= 15 && upper*10 > letters*6
}

// wordStats возвращает количество слов и признак повторяющейся фразы:
// какая-то триграмма слов (в нижнем регистре) встречается >= 3 раз.
func wordStats(s string) (int, bool) {
	words := strings.Fields(strings.ToLower(s))

	if len(words) < 3 {
		return len(words), false
	}

	grams := make(map[string]int, len(words))
	repeated := false
	for i := 0; i+3 <= len(words); i++ {
		key := words[i] + " " + words[i+1] + " " + words[i+2]
		grams[key]++
		if grams[key] >= 3 {
			repeated = true
		}
	}

	return len(words), repeated
}

// sentenceCount — количество предложений по терминальной пунктуации;
// минимум 1 для непустого текста.
func sentenceCount(s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}

	n := 0
	inTerm := false
	for _, r := range s {
		switch r {
		case '.', '!', '?':
			if !inTerm {
				n++
				inTerm = true
			}
		default:
			inTerm = false
		}
	}

	if n == 0 {
		return 1
	}
	return n
}

// MaskProfanity заменяет обсценные слова на звёздочки той же длины.
// Применяется к сохраняемому контенту, когда скоринг поднял hasProfanity;
// операция идемпотентна — маскированные слова словарём уже не находятся.
func MaskProfanity(text string) (string, int) {
	n := 0
	masked := reProfanity.ReplaceAllStringFunc(text, func(m string) string {
		n++
		return strings.Repeat("*", len(m))
	})
	return masked, n
}
