package service

import (
	"context"
	"errors"
	"testing"

	"plagia-detect-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	response string
	err      error
}

func (s stubLLM) Complete(context.Context, []llm.Message) (string, error) {
	return s.response, s.err
}

func TestReformulate(t *testing.T) {
	t.Run("plain JSON array", func(t *testing.T) {
		svc := NewReformulateService(stubLLM{response: `["one", "two", "three"]`})
		out, err := svc.Reformulate(context.Background(), "original sentence")
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, out)
	})

	t.Run("markdown fenced array", func(t *testing.T) {
		svc := NewReformulateService(stubLLM{response: "```json\n[\"one\", \"two\"]\n```"})
		out, err := svc.Reformulate(context.Background(), "original sentence")
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, out)
	})

	t.Run("empty sentence is rejected", func(t *testing.T) {
		svc := NewReformulateService(stubLLM{response: `["one"]`})
		_, err := svc.Reformulate(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptySentence)
	})

	t.Run("model error propagates", func(t *testing.T) {
		svc := NewReformulateService(stubLLM{err: errors.New("model down")})
		_, err := svc.Reformulate(context.Background(), "sentence")
		assert.Error(t, err)
	})

	t.Run("non-JSON output is an error", func(t *testing.T) {
		svc := NewReformulateService(stubLLM{response: "Sure! Here are three options:"})
		_, err := svc.Reformulate(context.Background(), "sentence")
		assert.Error(t, err)
	})

	t.Run("blank variants are dropped", func(t *testing.T) {
		svc := NewReformulateService(stubLLM{response: `["one", "  ", ""]`})
		out, err := svc.Reformulate(context.Background(), "sentence")
		require.NoError(t, err)
		assert.Equal(t, []string{"one"}, out)
	})
}
