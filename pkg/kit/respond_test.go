package kit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ProductAPI/pkg/kit"
)

type payload struct {
	Name string `json:"name"`
}

func decode(t *testing.T, body string, limit int64) (payload, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var p payload
	err := kit.DecodeJSON(httptest.NewRecorder(), req, &p, limit)
	return p, err
}

func TestDecodeJSON(t *testing.T) {
	p, err := decode(t, `{"name":"laptop"}`, 1<<10)
	require.NoError(t, err)
	assert.Equal(t, "laptop", p.Name)

	_, err = decode(t, ``, 1<<10)
	assert.ErrorIs(t, err, kit.ErrEmptyBody)

	_, err = decode(t, `{"name":"a"} {"name":"b"}`, 1<<10)
	assert.ErrorIs(t, err, kit.ErrTrailing)

	_, err = decode(t, `{"name":`, 1<<10)
	assert.Error(t, err)

	_, err = decode(t, `{"name":"`+strings.Repeat("x", 64)+`"}`, 16)
	var tooBig *http.MaxBytesError
	assert.ErrorAs(t, err, &tooBig)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/9", nil)

	kit.WriteError(rec, req, http.StatusNotFound, "product with id 9 not found", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"product with id 9 not found"}`, rec.Body.String())
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	open := kit.MetricsAuth("")(ok)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	guarded := kit.MetricsAuth("token")(ok)
	for header, want := range map[string]int{
		"":             http.StatusForbidden,
		"Bearer nope":  http.StatusForbidden,
		"token":        http.StatusForbidden,
		"Bearer token": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "Authorization=%q", header)
	}
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	for status, want := range map[int]zapcore.Level{
		http.StatusOK:                  zapcore.InfoLevel,
		http.StatusNotFound:            zapcore.WarnLevel,
		http.StatusInternalServerError: zapcore.ErrorLevel,
	} {
		h := kit.Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, want, entries[0].Level)
		assert.Equal(t, int64(status), entries[0].ContextMap()["status"])
	}
}
