package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExtract_URLs: детекция ссылок по схемам и www-префиксу.
func TestExtract_URLs(t *testing.T) {
	t.Parallel()

	sig := Extract("see https://a.example and http://b.example plus www.c.example here")
	require.Equal(t, 3, sig.URLCount)

	sig = Extract("no links in this text at all")
	require.Zero(t, sig.URLCount)
}

// TestExtract_EmailPhone: контакты считаются независимо от ссылок.
func TestExtract_EmailPhone(t *testing.T) {
	t.Parallel()

	sig := Extract("write to sales@example.com or call +7 (900) 123-45-67 today")
	require.Equal(t, 1, sig.EmailCount)
	require.Equal(t, 1, sig.PhoneCount)
}

// TestExtract_Keywords: коммерческие маркеры регистронезависимы.
func TestExtract_Keywords(t *testing.T) {
	t.Parallel()

	sig := Extract("BUY NOW!!! Click Here for the limited offer")
	require.Equal(t, 3, sig.KeywordHits)
}

// TestExtract_Profanity: словарь сопоставляется по границам слов —
// «Scunthorpe problem» не срабатывает.
func TestExtract_Profanity(t *testing.T) {
	t.Parallel()

	sig := Extract("what the fuck is this shit")
	require.Equal(t, 2, sig.ProfanityHits)

	// Подстрока внутри слова — не совпадение.
	sig = Extract("the shittake mushroom class")
	require.Zero(t, sig.ProfanityHits)
}

// TestExtract_Runs: серии одинаковых символов.
func TestExtract_Runs(t *testing.T) {
	t.Parallel()

	sig := Extract("wooooow that is a lot")
	require.Equal(t, 5, sig.LongestRun)

	sig = Extract("normal text")
	require.LessOrEqual(t, sig.LongestRun, 2)
}

// TestExtract_RepeatedPhrase: триграмма слов трижды — повтор фразы.
func TestExtract_RepeatedPhrase(t *testing.T) {
	t.Parallel()

	sig := Extract(strings.TrimSpace(strings.Repeat("buy my stuff ", 3)))
	require.True(t, sig.RepeatedPhrase)

	sig = Extract("this phrase appears only a single time here")
	require.False(t, sig.RepeatedPhrase)
}

// TestExtract_ExcessCaps: капс считается от 15 букв и >60% верхнего регистра.
func TestExtract_ExcessCaps(t *testing.T) {
	t.Parallel()

	require.True(t, Extract("THIS IS VERY IMPORTANT NEWS").ExcessCaps)
	require.False(t, Extract("OK").ExcessCaps)
	require.False(t, Extract("Normal sentence with Some Caps inside it").ExcessCaps)
}

// TestExtract_Length: выбросы длины — сигнал, не ошибка.
func TestExtract_Length(t *testing.T) {
	t.Parallel()

	sig := Extract("short")
	require.True(t, sig.TooShort)
	require.False(t, sig.TooLong)

	sig = Extract(strings.Repeat("long enough text ", 60))
	require.False(t, sig.TooShort)
	require.True(t, sig.TooLong)
}

// TestExtract_Truncated: вход за пределом сканирования помечается, хвост
// не анализируется.
func TestExtract_Truncated(t *testing.T) {
	t.Parallel()

	head := strings.Repeat("a ", maxScanLen/2)
	sig := Extract(head + " https://tail.example")

	require.True(t, sig.Truncated)
	require.Zero(t, sig.URLCount)
}

// TestExtract_OverlongURL: ссылка длиннее верхней границы квантификатора
// не ломает детектор и считается один раз.
func TestExtract_OverlongURL(t *testing.T) {
	t.Parallel()

	sig := Extract("spam https://example.com/" + strings.Repeat("a", 3000) + " end")
	require.Equal(t, 1, sig.URLCount)
}

// TestExtract_SpamSample: типичный спам-комментарий даёт насыщенный
// набор сигналов.
func TestExtract_SpamSample(t *testing.T) {
	t.Parallel()

	sig := Extract("BUY NOW!!! https://spam.example https://spam2.example https://spam3.example free money guarantee")

	require.Equal(t, 3, sig.URLCount)
	require.GreaterOrEqual(t, sig.KeywordHits, 3)
	require.Equal(t, 3, sig.LongestRun)
}

// TestExtract_Sentences: подсчёт предложений по терминальной пунктуации.
func TestExtract_Sentences(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3, Extract("One. Two! Three?").SentenceCount)
	require.Equal(t, 1, Extract("no punctuation here at all").SentenceCount)
	require.Equal(t, 1, Extract("Multiple marks!!! still one sentence").SentenceCount)
	require.Zero(t, Extract("").SentenceCount)
}

// TestMaskProfanity: маскирование сохраняет длину и идемпотентно.
func TestMaskProfanity(t *testing.T) {
	t.Parallel()

	masked, n := MaskProfanity("what the fuck")
	require.Equal(t, "what the ****", masked)
	require.Equal(t, 1, n)

	again, n2 := MaskProfanity(masked)
	require.Equal(t, masked, again)
	require.Zero(t, n2)

	clean, n3 := MaskProfanity("perfectly fine text")
	require.Equal(t, "perfectly fine text", clean)
	require.Zero(t, n3)
}
