package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// newTestStore spins up an in-process Redis and returns a Store against it.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb)
}

// newContext builds an Echo context for a request carrying the given cookies.
func newContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAdd_SetsQueueCookie(t *testing.T) {
	store := newTestStore(t)
	c, rec := newContext()

	store.Success(c, "Successfully made a new campground!")

	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieName {
			found = ck
		}
	}
	if found == nil {
		t.Fatal("expected flash cookie to be set")
	}
	if found.Value == "" {
		t.Error("expected flash cookie to carry a queue id")
	}
	if !found.HttpOnly {
		t.Error("expected flash cookie to be HttpOnly")
	}
}

func TestPop_ReturnsQueuedMessagesInOrder(t *testing.T) {
	store := newTestStore(t)
	cookie := &http.Cookie{Name: cookieName, Value: "queue-1"}

	c1, _ := newContext(cookie)
	store.Error(c1, "Cannot find that campground")
	store.Success(c1, "Review added")

	c2, _ := newContext(cookie)
	messages := store.Pop(c2)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Kind != KindError || messages[0].Text != "Cannot find that campground" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Kind != KindSuccess || messages[1].Text != "Review added" {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
}

func TestPop_DrainsTheQueue(t *testing.T) {
	store := newTestStore(t)
	cookie := &http.Cookie{Name: cookieName, Value: "queue-2"}

	c1, _ := newContext(cookie)
	store.Success(c1, "Welcome back!")

	c2, _ := newContext(cookie)
	if got := store.Pop(c2); len(got) != 1 {
		t.Fatalf("expected 1 message on first pop, got %d", len(got))
	}

	c3, _ := newContext(cookie)
	if got := store.Pop(c3); got != nil {
		t.Errorf("expected nil on second pop, got %v", got)
	}
}

func TestPop_NoCookieReturnsNil(t *testing.T) {
	store := newTestStore(t)
	c, _ := newContext()

	if got := store.Pop(c); got != nil {
		t.Errorf("expected nil for a browser with no flash cookie, got %v", got)
	}
}

func TestAdd_SameRequestSharesOneQueue(t *testing.T) {
	store := newTestStore(t)
	c, rec := newContext()

	store.Success(c, "first")
	store.Error(c, "second")

	var queueCookies int
	var id string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieName {
			queueCookies++
			id = ck.Value
		}
	}
	if queueCookies != 1 {
		t.Fatalf("expected a single queue cookie, got %d", queueCookies)
	}

	c2, _ := newContext(&http.Cookie{Name: cookieName, Value: id})
	if got := store.Pop(c2); len(got) != 2 {
		t.Errorf("expected both messages in one queue, got %d", len(got))
	}
}
