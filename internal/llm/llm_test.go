package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestChat_ReturnsAssistantContent(t *testing.T) {
	srv := chatServer(t, "hello back")
	defer srv.Close()

	c := New(srv.URL, "key", "test-model")
	out, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hello"}}, false)
	require.NoError(t, err)
	assert.Equal(t, "hello back", out)
}

func TestChat_Non200IsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "test-model")
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hello"}}, false)
	assert.Error(t, err)
}

func TestChatJSON_ParsesBareJSON(t *testing.T) {
	srv := chatServer(t, `{"name": "Widget", "price": 9.99}`)
	defer srv.Close()

	c := New(srv.URL, "key", "test-model")
	out, err := c.ChatJSON(context.Background(), []Message{{Role: "user", Content: "extract"}})
	require.NoError(t, err)
	assert.Equal(t, "Widget", out["name"])
}

func TestChatJSON_ExtractsFencedJSON(t *testing.T) {
	srv := chatServer(t, "Here you go:\n```json\n{\"name\": \"Widget\"}\n```\nAnything else?")
	defer srv.Close()

	c := New(srv.URL, "key", "test-model")
	out, err := c.ChatJSON(context.Background(), []Message{{Role: "user", Content: "extract"}})
	require.NoError(t, err)
	assert.Equal(t, "Widget", out["name"])
}

func TestChatJSON_ExtractsUnfencedJSONWithProse(t *testing.T) {
	srv := chatServer(t, `Sure! The data is {"count": 3} as requested.`)
	defer srv.Close()

	c := New(srv.URL, "key", "test-model")
	out, err := c.ChatJSON(context.Background(), []Message{{Role: "user", Content: "extract"}})
	require.NoError(t, err)
	assert.Equal(t, float64(3), out["count"])
}

func TestChatJSON_NonJSONIsError(t *testing.T) {
	srv := chatServer(t, "I could not produce any structured output, sorry.")
	defer srv.Close()

	c := New(srv.URL, "key", "test-model")
	_, err := c.ChatJSON(context.Background(), []Message{{Role: "user", Content: "extract"}})
	assert.Error(t, err)
}
