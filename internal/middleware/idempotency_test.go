package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newIdempRouter(t *testing.T) (*gin.Engine, *int) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	gin.SetMode(gin.TestMode)
	router := gin.New()

	calls := 0
	group := router.Group("", Idempotency(rdb, time.Hour))
	group.POST("/api/returns", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})
	group.GET("/api/returns", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, &calls
}

type idempReq struct {
	reqID string
	reqAt string
	body  string
	auth  string
}

func post(router *gin.Engine, r idempReq) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/returns", bytes.NewBufferString(r.body))
	req.Header.Set("Content-Type", "application/json")
	if r.auth != "" {
		req.Header.Set("Authorization", r.auth)
	}
	if r.reqID != "" {
		req.Header.Set("X-Request-Id", r.reqID)
	}
	if r.reqAt != "" {
		req.Header.Set("X-Request-At", r.reqAt)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func nowEpoch() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}

func TestIdempotency(t *testing.T) {
	t.Run("reads pass through untouched", func(t *testing.T) {
		router, _ := newIdempRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/api/returns", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET status = %d, want 200", w.Code)
		}
	})

	t.Run("missing request id", func(t *testing.T) {
		router, _ := newIdempRouter(t)

		w := post(router, idempReq{reqAt: nowEpoch(), body: `{}`, auth: "Bearer tok"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed request id", func(t *testing.T) {
		router, _ := newIdempRouter(t)

		w := post(router, idempReq{reqID: "not-a-uuid", reqAt: nowEpoch(), body: `{}`, auth: "Bearer tok"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("skewed timestamp", func(t *testing.T) {
		router, _ := newIdempRouter(t)

		stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
		w := post(router, idempReq{reqID: uuid.NewString(), reqAt: stale, body: `{}`, auth: "Bearer tok"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("no credential", func(t *testing.T) {
		router, _ := newIdempRouter(t)

		w := post(router, idempReq{reqID: uuid.NewString(), reqAt: nowEpoch(), body: `{}`})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("replay returns the cached response", func(t *testing.T) {
		router, calls := newIdempRouter(t)
		r := idempReq{reqID: uuid.NewString(), reqAt: nowEpoch(), body: `{"a":1}`, auth: "Bearer tok"}

		first := post(router, r)
		if first.Code != http.StatusCreated {
			t.Fatalf("first status = %d, want 201", first.Code)
		}
		if *calls != 1 {
			t.Fatalf("handler ran %d times, want 1", *calls)
		}

		second := post(router, r)
		if second.Code != http.StatusCreated {
			t.Errorf("replay status = %d, want 201", second.Code)
		}
		if *calls != 1 {
			t.Errorf("handler ran %d times after replay, want 1", *calls)
		}
		if second.Body.String() != first.Body.String() {
			t.Errorf("replay body = %s, want %s", second.Body.String(), first.Body.String())
		}
	})

	t.Run("same id with different body conflicts", func(t *testing.T) {
		router, calls := newIdempRouter(t)
		id := uuid.NewString()

		first := post(router, idempReq{reqID: id, reqAt: nowEpoch(), body: `{"a":1}`, auth: "Bearer tok"})
		if first.Code != http.StatusCreated {
			t.Fatalf("first status = %d, want 201", first.Code)
		}

		second := post(router, idempReq{reqID: id, reqAt: nowEpoch(), body: `{"a":2}`, auth: "Bearer tok"})
		if second.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", second.Code)
		}
		if *calls != 1 {
			t.Errorf("handler ran %d times, want 1", *calls)
		}
	})

	t.Run("different users never collide", func(t *testing.T) {
		router, calls := newIdempRouter(t)
		id := uuid.NewString()

		first := post(router, idempReq{reqID: id, reqAt: nowEpoch(), body: `{"a":1}`, auth: "Bearer alice"})
		second := post(router, idempReq{reqID: id, reqAt: nowEpoch(), body: `{"a":1}`, auth: "Bearer bob"})
		if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
			t.Errorf("statuses = %d, %d, want 201 for both", first.Code, second.Code)
		}
		if *calls != 2 {
			t.Errorf("handler ran %d times, want 2", *calls)
		}
	})
}

func TestParseRequestAt(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"epoch seconds", "1756450800", false},
		{"epoch milliseconds", "1756450800000", false},
		{"rfc3339 with zone", "2026-08-29T10:00:00+04:00", false},
		{"rfc3339 zulu", "2026-08-29T06:00:00Z", false},
		{"naive local time", "2026-08-29T10:00:00", true},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRequestAt(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseRequestAt(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}
