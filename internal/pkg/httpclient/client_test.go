package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestPostJSON_Success(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(payload{Name: "ok", Value: 2})
	}))
	defer ts.Close()

	var out payload
	err := New(time.Second).PostJSON(context.Background(), ts.URL+"/cb", payload{Name: "in", Value: 1}, &out)
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"name":"in","value":1}`, string(gotBody))
	assert.Equal(t, payload{Name: "ok", Value: 2}, out)
}

func TestPostJSON_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer ts.Close()

	err := New(time.Second).PostJSON(context.Background(), ts.URL, payload{}, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestPostJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	err := New(50*time.Millisecond).PostJSON(context.Background(), ts.URL, payload{}, nil)
	require.Error(t, err)
}

func TestPostJSON_Unreachable(t *testing.T) {
	err := New(time.Second).PostJSON(context.Background(), "http://127.0.0.1:1/cb", payload{}, nil)
	require.Error(t, err)
}
