package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+DefaultModel+":generateContent"), r.URL.Path)

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		gen := raw["generationConfig"].(map[string]any)
		assert.Equal(t, 0.0, gen["temperature"])
		assert.Equal(t, 700.0, gen["maxOutputTokens"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "The Carrera uses a 3.0 litre flat-six. "}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	svc, err := NewLLMService(context.Background(), Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "prompt", driven.GenerateOptions{MaxTokens: 700})
	require.NoError(t, err)
	assert.Equal(t, "The Carrera uses a 3.0 litre flat-six.", out)
	assert.Equal(t, DefaultModel, svc.ModelName())
}
