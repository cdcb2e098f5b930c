// Package flash implements one-time notification messages shown on the next
// rendered page ("Successfully made a new campground!", "Cannot find that
// campground"). Messages are queued in Redis under a random browser cookie so
// they survive the redirect between the mutating request and the follow-up
// GET, and work for anonymous visitors as well as signed-in users.
package flash

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// cookieName identifies the browser's flash queue in Redis.
const cookieName = "waypost_flash"

// keyPrefix is the Redis key prefix for flash queues.
const keyPrefix = "flash:"

// queueTTL is how long an unread flash queue survives. Flashes are meant to
// be read on the very next page load; anything older is stale.
const queueTTL = 15 * time.Minute

// Kind classifies a flash message for styling (success banner vs error banner).
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is a single one-time notification.
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Store queues and pops flash messages in Redis.
type Store struct {
	rdb *redis.Client
}

// NewStore creates a flash store backed by the given Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Success queues a success message for the next rendered page.
func (s *Store) Success(c echo.Context, text string) {
	s.add(c, Message{Kind: KindSuccess, Text: text})
}

// Error queues an error message for the next rendered page.
func (s *Store) Error(c echo.Context, text string) {
	s.add(c, Message{Kind: KindError, Text: text})
}

// add appends a message to the browser's queue, creating the identifying
// cookie if this is the browser's first flash. Failures are logged and
// swallowed: a lost notification must never fail the request that queued it.
func (s *Store) add(c echo.Context, m Message) {
	id := s.queueID(c, true)
	if id == "" {
		return
	}

	data, err := json.Marshal(m)
	if err != nil {
		slog.Warn("marshaling flash message", slog.Any("error", err))
		return
	}

	ctx := c.Request().Context()
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, keyPrefix+id, data)
	pipe.Expire(ctx, keyPrefix+id, queueTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("queueing flash message", slog.Any("error", err))
	}
}

// Pop drains and returns all queued messages for the current browser, oldest
// first. Returns nil when there is nothing to show. Called once per page
// render by the layout injector.
func (s *Store) Pop(c echo.Context) []Message {
	id := s.queueID(c, false)
	if id == "" {
		return nil
	}

	ctx := c.Request().Context()
	key := keyPrefix + id

	pipe := s.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		slog.Warn("reading flash messages", slog.Any("error", err))
		return nil
	}

	raw := rangeCmd.Val()
	if len(raw) == 0 {
		return nil
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	return messages
}

// contextKeyQueueID caches a freshly generated queue ID on the Echo context
// so two flashes queued in one request share the same queue.
const contextKeyQueueID = "flash_queue_id"

// queueID returns the browser's flash queue ID from its cookie. When create
// is true and no cookie exists, a new ID is generated and set.
func (s *Store) queueID(c echo.Context, create bool) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if id, ok := c.Get(contextKeyQueueID).(string); ok && id != "" {
		return id
	}
	if !create {
		return ""
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Warn("generating flash queue id", slog.Any("error", err))
		return ""
	}
	id := hex.EncodeToString(b)
	c.Set(contextKeyQueueID, id)

	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
