package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d rejected, want allowed", i)
		}
	}
	ok, wait := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("third request allowed, want rejected")
	}
	if wait != time.Minute {
		t.Errorf("wait = %v, want 1m", wait)
	}
	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Error("other IP rejected, want its own bucket")
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Error("request after refill rejected")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, last.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 429]", codes)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func sessionRouter(tokens *service.TokenService) *gin.Engine {
	r := gin.New()
	r.GET("/sessions/:id", RequireSessionToken(tokens), RequireSessionOwner(), func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c).String())
	})
	return r
}

func TestSessionTokenMiddleware(t *testing.T) {
	tokens := service.NewTokenService(&config.Config{TokenSecret: "secret", TokenExpiry: time.Hour})
	own := uuid.New()
	token, err := tokens.Issue(model.Session{ID: own, Mode: model.ModeQuiz})
	if err != nil {
		t.Fatal(err)
	}
	r := sessionRouter(tokens)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"bearer header", "/sessions/" + own.String(), "Bearer " + token, http.StatusOK},
		{"query token", "/sessions/" + own.String() + "?token=" + token, "", http.StatusOK},
		{"missing token", "/sessions/" + own.String(), "", http.StatusUnauthorized},
		{"bad token", "/sessions/" + own.String(), "Bearer nope", http.StatusUnauthorized},
		{"other session", "/sessions/" + uuid.NewString(), "Bearer " + token, http.StatusForbidden},
		{"bad id", "/sessions/xyz", "Bearer " + token, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK && w.Body.String() != own.String() {
				t.Errorf("SessionID = %s, want %s", w.Body.String(), own)
			}
		})
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("quiz ", 1000)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, body) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("Content-Encoding = %q, want br", w.Header().Get("Content-Encoding"))
	}
	decoded, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != body {
		t.Error("decoded body differs from original")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Errorf("small body: encoding %q, body %q", w.Header().Get("Content-Encoding"), w.Body.String())
	}
}
