package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDataURI(t *testing.T) {
	assert.Equal(t, "AAAA", StripDataURI("data:image/png;base64,AAAA"))
	assert.Equal(t, "AAAA", StripDataURI("data:image/jpeg;base64,AAAA"))
	assert.Equal(t, "AAAA", StripDataURI("AAAA"))
	assert.Equal(t, "", StripDataURI(""))
}

func TestVisionClient_Recognize(t *testing.T) {
	var got annotateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responses":[{"fullTextAnnotation":{"text":"Oat Crunch\nIngredients: oats"}}]}`))
	}))
	defer ts.Close()

	c := NewVisionClient("test-key", ts.URL, 0, time.Millisecond)
	text, err := c.Recognize(context.Background(), "data:image/png;base64,iVBORw0K")
	require.NoError(t, err)
	assert.Equal(t, "Oat Crunch\nIngredients: oats", text)

	require.Len(t, got.Requests, 1)
	assert.Equal(t, "iVBORw0K", got.Requests[0].Image.Content)
	require.Len(t, got.Requests[0].Features, 1)
	assert.Equal(t, "TEXT_DETECTION", got.Requests[0].Features[0].Type)
}

func TestVisionClient_NoText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responses":[{}]}`))
	}))
	defer ts.Close()

	text, err := NewVisionClient("k", ts.URL, 0, 0).Recognize(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestVisionClient_ResponseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responses":[{"error":{"code":3,"message":"Bad image data.","status":"INVALID_ARGUMENT"}}]}`))
	}))
	defer ts.Close()

	_, err := NewVisionClient("k", ts.URL, 0, 0).Recognize(context.Background(), "AAAA")
	assert.ErrorContains(t, err, "Bad image data.")
}

func TestVisionClient_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid.","status":"PERMISSION_DENIED"}}`))
	}))
	defer ts.Close()

	_, err := NewVisionClient("k", ts.URL, 2, time.Millisecond).Recognize(context.Background(), "AAAA")
	assert.ErrorContains(t, err, "API key not valid.")
}

func TestVisionClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responses":[{"fullTextAnnotation":{"text":"ok"}}]}`))
	}))
	defer ts.Close()

	text, err := NewVisionClient("k", ts.URL, 2, time.Millisecond).Recognize(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestVisionClient_UndecodableBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"html from a proxy", "text/html; charset=utf-8", "<html><body>Bad Gateway</body></html>"},
		{"no content type", "", "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if tt.contentType == "" {
					w.Header()["Content-Type"] = nil
				} else {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			text, err := NewVisionClient("k", ts.URL, 2, time.Millisecond).Recognize(context.Background(), "AAAA")
			assert.Error(t, err)
			assert.Empty(t, text)
			assert.Equal(t, int32(1), calls.Load(), "a 200 response must not be retried")
		})
	}
}

func TestVisionClient_MissingKey(t *testing.T) {
	_, err := NewVisionClient("", "", 0, 0).Recognize(context.Background(), "AAAA")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
