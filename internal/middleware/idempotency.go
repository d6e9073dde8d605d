package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// How long the "in-progress" lock is held before the handler must have finished.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for X-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency dedupes mutating requests by method + route + user + request id.
// X-Request-At must be epoch (seconds or ms) or RFC3339/RFC3339Nano with timezone.
// Must run after RequireRole so the user id is already in the context.
func Idempotency(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only enforce on mutating methods
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		reqID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if reqID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "missing X-Request-Id"))
			return
		}
		if !validReqID(reqID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid X-Request-Id format"))
			return
		}

		reqAt, err := parseRequestAt(c.GetHeader("X-Request-At"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		now := time.Now().UTC()
		if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "X-Request-At too skewed"))
			return
		}

		// This can run before the auth gate, so fall back to hashing the
		// presented credential when the user id is not in the context yet.
		scope := c.GetString("userID")
		if scope == "" {
			cred := c.GetHeader("Authorization")
			if cookie, cookieErr := c.Cookie("access_token"); cookieErr == nil && cookie != "" {
				cred = cookie
			}
			if cred == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "user identity missing"))
				return
			}
			scope = bodyHash([]byte(cred))
		}

		// Buffer & hash body
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		bhash := bodyHash(body)

		key := buildIdempKey(c.Request.Method, c.FullPath(), scope, reqID)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		entry := idempEntry{
			InProgress:  true,
			BodySHA256:  bhash,
			RequestID:   reqID,
			RequestAtMS: reqAt.UnixMilli(),
			CreatedAt:   now,
		}
		ok, err := provisionalSet(ctx, rdb, key, entry)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "idempotency store unavailable"))
			return
		}
		if !ok {
			// Key exists: body must match, and we may be able to replay
			cur, loadErr := loadEntry(ctx, rdb, key)
			if loadErr != nil {
				log.Printf("failed to load idempotency entry %s: %v", key, loadErr)
			}

			if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
				c.AbortWithStatusJSON(http.StatusConflict, response.Error(http.StatusConflict, "X-Request-Id reused with different body"))
				return
			}
			if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
				c.Data(cur.Code, "application/json", cur.Body)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusConflict, response.Error(http.StatusConflict, "request is already in progress"))
			return
		}

		// Call next and record final response
		rec := &bodyRecorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = rec
		c.Next()

		final := idempEntry{
			InProgress:  false,
			Code:        rec.Status(),
			Body:        rec.buf.Bytes(),
			BodySHA256:  bhash,
			RequestID:   reqID,
			RequestAtMS: reqAt.UnixMilli(),
			CreatedAt:   time.Now().UTC(),
		}
		_ = saveFinal(context.Background(), rdb, key, final, ttl)
	}
}

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func buildIdempKey(method, path, userID, requestID string) string {
	return "idemp:" + strings.ToLower(method) + ":" + path + ":" + userID + ":" + requestID
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

func validReqID(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

// parseRequestAt accepts:
//   - epoch seconds (e.g., "1736123456")
//   - epoch milliseconds (e.g., "1736123456789")
//   - RFC3339 / RFC3339Nano **with timezone** (e.g., "2026-08-29T10:00:00+04:00" or "...Z")
//
// Naive local timestamps **without** timezone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing X-Request-At")
	}
	// Epoch?
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 { // ms
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil // seconds
	}
	// RFC3339 / RFC3339Nano (requires zone or 'Z')
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("X-Request-At must be epoch (s/ms) or RFC3339 with timezone")
}

// ---- Redis helpers ----

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	payload, _ := json.Marshal(entry)
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	_ = json.Unmarshal(v, &e)
	return e, nil
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	payload, _ := json.Marshal(entry)
	return rdb.Set(ctx, key, payload, ttl).Err()
}
