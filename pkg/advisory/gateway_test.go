package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartguard-api/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func candidatePayload(text string) string {
	body := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
			},
		},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *int64) {
	t.Helper()

	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewGenerativeClient(domain.AdvisoryConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash",
		Timeout: 2 * time.Second,
	})

	return NewGateway(client, NewMemoryCache(16, time.Minute), testLogger()), &calls
}

func TestAskParsesTipArray(t *testing.T) {
	tips := "```json\n[{\"title\":\"Walk daily\",\"detail\":\"30 minutes of walking lowers blood pressure.\"}]\n```"
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(candidatePayload(tips)))
	})

	resp := gw.Ask(context.Background(), "how do I lower my blood pressure?")
	require.Equal(t, "json", resp.Type)
	require.Len(t, resp.Tips, 1)
	assert.Equal(t, "Walk daily", resp.Tips[0].Title)
	assert.NotContains(t, resp.Response, "```")
}

func TestAskUnparseableReplyReturnsFixedError(t *testing.T) {
	gw, calls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidatePayload("Sorry, I cannot answer that in JSON today.")))
	})

	resp := gw.Ask(context.Background(), "diet advice")
	assert.Equal(t, ErrorResponse, resp.Response)
	assert.Equal(t, "text", resp.Type)
	assert.Empty(t, resp.Tips)

	// Fallbacks are not cached, so the next ask tries upstream again.
	gw.Ask(context.Background(), "diet advice")
	assert.Equal(t, int64(2), atomic.LoadInt64(calls))
}

func TestAskEmptyTipArrayReturnsFixedError(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidatePayload("[]")))
	})

	resp := gw.Ask(context.Background(), "diet advice")
	assert.Equal(t, ErrorResponse, resp.Response)
	assert.Equal(t, "text", resp.Type)
	assert.Empty(t, resp.Tips)
}

func TestAskOfflineWithoutAPIKey(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer server.Close()

	client := NewGenerativeClient(domain.AdvisoryConfig{
		BaseURL: server.URL,
		Model:   "gemini-1.5-flash",
		Timeout: time.Second,
	})
	gw := NewGateway(client, nil, testLogger())

	resp := gw.Ask(context.Background(), "am I healthy?")
	assert.Equal(t, OfflineResponse, resp.Response)
	assert.Equal(t, "text", resp.Type)
	assert.Zero(t, atomic.LoadInt64(&calls), "offline gateway must not call upstream")
}

func TestAskUpstreamFailureReturnsFallback(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	resp := gw.Ask(context.Background(), "anything")
	assert.Equal(t, ErrorResponse, resp.Response)
	assert.Equal(t, "text", resp.Type)
}

func TestAskCachesRepeatQueries(t *testing.T) {
	gw, calls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidatePayload("Sleep more.")))
	})

	first := gw.Ask(context.Background(), "Sleep advice")
	second := gw.Ask(context.Background(), "sleep advice")

	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, int64(1), atomic.LoadInt64(calls), "second ask should hit the cache")
}

func TestAskEmptyQuery(t *testing.T) {
	gw, calls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidatePayload("unused")))
	})

	resp := gw.Ask(context.Background(), "   ")
	assert.Equal(t, "text", resp.Type)
	assert.Zero(t, atomic.LoadInt64(calls))
	assert.NotEmpty(t, resp.Response)
}
