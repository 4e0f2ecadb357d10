package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newChatServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestGeneratorClient_GenerateProduct(t *testing.T) {
	reply := "```json\n{\"title\":\"Trail Mug\",\"description\":\"Enamel mug\",\"category\":\"Outdoor\",\"price_suggestion\":18.5,\"sku_suggestion\":\"TM-001\"}\n```"
	srv, got := newChatServer(t, http.StatusOK, reply)
	c := NewGeneratorClient(srv.URL, "test-key", "meta/llama-3.1-8b-instruct", 5*time.Second, zap.NewNop())

	d, err := c.GenerateProduct(context.Background(), "an enamel camping mug for hikers")
	require.NoError(t, err)
	assert.Equal(t, "Trail Mug", d.Title)
	assert.Equal(t, 18.5, d.PriceSuggestion)
	assert.Equal(t, "TM-001", d.SKUSuggestion)
	assert.Equal(t, "meta/llama-3.1-8b-instruct", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "enamel camping mug")
}

func TestGeneratorClient_ShortPrompt(t *testing.T) {
	c := NewGeneratorClient("http://127.0.0.1:1", "", "m", time.Second, zap.NewNop())
	_, err := c.GenerateProduct(context.Background(), "mug")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = c.GenerateBlogPost(context.Background(), "   short   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGeneratorClient_APIError(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusTooManyRequests, "")
	c := NewGeneratorClient(srv.URL, "test-key", "m", 5*time.Second, zap.NewNop())

	_, err := c.GenerateBlogPost(context.Background(), "autumn trail running checklist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "429")
}

func TestParseProductDraft(t *testing.T) {
	_, err := ParseProductDraft(`{"title":"a","description":"b","category":"c","sku_suggestion":"d"}`)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "price_suggestion")

	_, err = ParseProductDraft(`{"title":"a","description":"b","category":"c","price_suggestion":"cheap","sku_suggestion":"d"}`)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "must be a number")

	_, err = ParseProductDraft("not json")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseBlogPostDraft(t *testing.T) {
	d, err := ParseBlogPostDraft("```\n{\"title\":\"T\",\"content\":\"# Hi\",\"meta_description\":\"m\",\"tags\":[\"a\",\"b\"],\"category\":\"News\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, d.Tags)
	assert.Equal(t, "m", d.MetaDescription)

	_, err = ParseBlogPostDraft(`{"title":"T","content":"c","meta_description":"m","category":"x"}`)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
