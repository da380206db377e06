package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHTML_Basics — базовая разметка рендерится.
func TestHTML_Basics(t *testing.T) {
	out, err := HTML("# Title\n\nSome **bold** text.")
	require.NoError(t, err)
	require.Contains(t, out, "<h1")
	require.Contains(t, out, "<strong>bold</strong>")
}

// TestHTML_GFM — таблицы и зачёркивание из GFM.
func TestHTML_GFM(t *testing.T) {
	out, err := HTML("| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~")
	require.NoError(t, err)
	require.Contains(t, out, "<table>")
	require.Contains(t, out, "<del>gone</del>")
}

// TestHTML_SanitizesScript — сырой HTML и javascript-ссылки вычищаются.
func TestHTML_SanitizesScript(t *testing.T) {
	out, err := HTML("hello <script>alert(1)</script> world")
	require.NoError(t, err)
	require.NotContains(t, out, "<script")
	require.NotContains(t, out, "alert(1)")

	out, err = HTML(`[click](javascript:alert(1))`)
	require.NoError(t, err)
	require.NotContains(t, out, "javascript:")
}

// TestHTML_ExternalLinks — внешние ссылки получают target=_blank и rel.
func TestHTML_ExternalLinks(t *testing.T) {
	out, err := HTML("[site](https://example.org)")
	require.NoError(t, err)
	require.Contains(t, out, `target="_blank"`)
	require.Contains(t, out, "noreferrer")
}

// TestHTML_Images — изображения разрешены политикой.
func TestHTML_Images(t *testing.T) {
	out, err := HTML("![alt](https://example.org/pic.png)")
	require.NoError(t, err)
	require.Contains(t, out, "<img")
	require.Contains(t, out, `src="https://example.org/pic.png"`)
}
