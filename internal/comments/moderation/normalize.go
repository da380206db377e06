// moderation — пайплайн проверки пользовательского контента:
// нормализация текста, извлечение сигналов, скоринг риска и решение
// о статусе (approved/pending/rejected). Все стадии детерминированы
// и не ходят в сеть; единственное разделяемое состояние живёт в
// подпакете tracker.
package moderation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy вырезает любую разметку целиком: канонический текст
// комментария — это plain text без HTML/скриптов.
var strictPolicy = bluemonday.StrictPolicy()

// maxStripPasses ограничивает цикл до неподвижной точки: экранированная
// разметка ("&lt;script&gt;") после unescape снова становится разметкой,
// поэтому одного прохода sanitize недостаточно для идемпотентности.
const maxStripPasses = 4

// Normalize приводит сырой пользовательский текст к канонической форме:
//   - вся HTML/скриптовая разметка вырезана (включая экранированную);
//   - управляющие символы удалены;
//   - все пробельные последовательности схлопнуты в один пробел;
//   - невалидные байтовые последовательности отброшены best-effort.
//
// Функция чистая и идемпотентна: Normalize(Normalize(s)) == Normalize(s).
// На некорректном входе не паникует и не возвращает ошибок — деградирует
// до вырезания непонятных участков.
func Normalize(raw string) string {
	s := strings.ToValidUTF8(raw, "")

	// До неподвижной точки: sanitize экранирует спецсимволы, unescape
	// возвращает их в текст; повторяем, пока текст не стабилизируется.
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}

	return collapseSpace(stripControl(s))
}

// stripControl удаляет управляющие символы, сохраняя пробельные —
// их схлопнет collapseSpace.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// collapseSpace схлопывает любые пробельные последовательности в один
// пробел и обрезает края.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
