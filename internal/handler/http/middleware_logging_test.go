package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWithLogging(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		status       int
		body         string
		wantContains []string
	}{
		{
			name:   "GET 200",
			method: http.MethodGet,
			path:   "/api/v1/users/me",
			status: http.StatusOK,
			body:   "OK",
			wantContains: []string{
				`"method":"GET"`,
				`"uri":"/api/v1/users/me"`,
				`"status":200`,
				`"size":2`,
				`"ip":"10.0.0.7"`,
				`"duration":`,
			},
		},
		{
			name:   "POST 429 no body",
			method: http.MethodPost,
			path:   "/api/v1/auth/login",
			status: http.StatusTooManyRequests,
			wantContains: []string{
				`"method":"POST"`,
				`"status":429`,
				`"size":0`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &Handler{}

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			l := zerolog.New(&buf)
			ctx := l.WithContext(req.Context())
			req = req.WithContext(utils.WithClientIP(ctx, "10.0.0.7"))

			rec := httptest.NewRecorder()
			h.withLogging(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			for _, want := range tt.wantContains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestResponseWriter_WriteHeaderOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusInternalServerError)
	n, err := w.Write([]byte("hello"))

	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, w.status)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 5, w.size)
}

func TestResponseWriter_ImplicitOK(t *testing.T) {
	w := &responseWriter{ResponseWriter: httptest.NewRecorder()}

	w.Write([]byte("x"))

	assert.Equal(t, http.StatusOK, w.status)
}
