package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	t.Run("lowercases and strips punctuation", func(t *testing.T) {
		assert.Equal(t, "hello world", CleanText("Hello, World!"))
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "a b c", CleanText("  a \t b \n  c  "))
	})

	t.Run("keeps letters and digits", func(t *testing.T) {
		assert.Equal(t, "version 2 du rapport", CleanText("Version 2 (du rapport)"))
	})

	t.Run("keeps unicode letters", func(t *testing.T) {
		assert.Equal(t, "résumé complet", CleanText("Résumé complet."))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", CleanText("  ,;: "))
	})
}

func TestSplitSentences(t *testing.T) {
	t.Run("splits on terminators", func(t *testing.T) {
		got := SplitSentences("First sentence. Second one! Third?")
		assert.Equal(t, []string{"first sentence", "second one", "third"}, got)
	})

	t.Run("splits on newlines", func(t *testing.T) {
		got := SplitSentences("line one\nline two")
		assert.Equal(t, []string{"line one", "line two"}, got)
	})

	t.Run("splits on fullwidth terminators", func(t *testing.T) {
		got := SplitSentences("第一句。第二句！")
		assert.Equal(t, []string{"第一句", "第二句"}, got)
	})

	t.Run("drops empty fragments", func(t *testing.T) {
		got := SplitSentences("One... \n\n ...Two.")
		assert.Equal(t, []string{"one", "two"}, got)
	})

	t.Run("blank input yields nil", func(t *testing.T) {
		assert.Nil(t, SplitSentences("   \n  "))
		assert.Nil(t, SplitSentences(""))
	})

	t.Run("preserves order", func(t *testing.T) {
		got := SplitSentences("a. b. c. d.")
		assert.Equal(t, []string{"a", "b", "c", "d"}, got)
	})
}
