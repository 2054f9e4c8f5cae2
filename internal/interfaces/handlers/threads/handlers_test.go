package threads

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homesocial-backend/internal/application/messaging"
	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupThreadsTest(t *testing.T) (*fiber.App, *gorm.DB, *messaging.Service) {
	return newThreadsApp(t, &messaging.Hub{})
}

func newThreadsApp(t *testing.T, hub *messaging.Hub) (*fiber.App, *gorm.DB, *messaging.Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &messaging.Service{DB: db, Hub: hub, Now: func() time.Time { return clock }}
	h := &Handlers{Service: svc}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("user", map[string]interface{}{"user_id": id})
		}
		return c.Next()
	})
	app.Post("/listings/:id/threads", h.Start)
	app.Get("/threads", h.List)
	app.Get("/threads/:id/messages", h.Messages)
	app.Post("/threads/:id/messages", h.Send)
	app.Get("/threads/:id/stream", h.Stream)
	return app, db, svc
}

func seedListing(t *testing.T, db *gorm.DB, owner uuid.UUID) domain.Listing {
	l := domain.Listing{
		ID: uuid.New(), OwnerID: owner, Title: "Lake House", Price: 450000, Beds: 3, Baths: 2,
		Address: "1 Shore Rd", City: "Austin", State: "TX", Zip: "78701", Status: domain.StatusActive,
	}
	require.NoError(t, db.Create(&l).Error)
	return l
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, user uuid.UUID) (int, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-Test-User", user.String())
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func startThread(t *testing.T, app *fiber.App, listingID, buyer uuid.UUID) string {
	t.Helper()
	status, out := call(t, app, "POST", "/listings/"+listingID.String()+"/threads", nil, buyer)
	require.Equal(t, fiber.StatusCreated, status, out)
	return out["data"].(map[string]interface{})["thread_id"].(string)
}

func TestStart_CreatesThenReuses(t *testing.T) {
	app, db, _ := setupThreadsTest(t)
	owner, buyer := uuid.New(), uuid.New()
	l := seedListing(t, db, owner)

	id := startThread(t, app, l.ID, buyer)
	status, out := call(t, app, "POST", "/listings/"+l.ID.String()+"/threads", nil, buyer)
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, id, data["thread_id"])
	assert.Equal(t, false, data["created"])
	assert.Equal(t, "/messages/"+id, data["redirect"])

	var members int64
	require.NoError(t, db.Model(&domain.ThreadMember{}).Count(&members).Error)
	assert.Equal(t, int64(2), members)
}

func TestStart_Errors(t *testing.T) {
	app, db, _ := setupThreadsTest(t)
	owner := uuid.New()
	l := seedListing(t, db, owner)

	status, _ := call(t, app, "POST", "/listings/"+l.ID.String()+"/threads", nil, owner)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "POST", "/listings/"+uuid.NewString()+"/threads", nil, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = call(t, app, "POST", "/listings/nope/threads", nil, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSend_OrdersAndValidates(t *testing.T) {
	app, db, _ := setupThreadsTest(t)
	owner, buyer := uuid.New(), uuid.New()
	l := seedListing(t, db, owner)
	id := startThread(t, app, l.ID, buyer)
	path := "/threads/" + id + "/messages"

	status, out := call(t, app, "POST", path, map[string]string{"body": "   "}, buyer)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "body", out["error"].(map[string]interface{})["details"].(map[string]interface{})["field"])

	// Same frozen clock for every send: timestamps must still move forward.
	for _, who := range []uuid.UUID{buyer, owner, buyer} {
		status, _ = call(t, app, "POST", path, map[string]string{"body": "hi"}, who)
		require.Equal(t, fiber.StatusCreated, status)
	}
	status, out = call(t, app, "GET", path, nil, owner)
	require.Equal(t, fiber.StatusOK, status)
	raw, _ := json.Marshal(out["data"])
	var msgs []domain.Message
	require.NoError(t, json.Unmarshal(raw, &msgs))
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].CreatedAt.After(msgs[0].CreatedAt))
	assert.True(t, msgs[2].CreatedAt.After(msgs[1].CreatedAt))
}

func TestNonMemberIsForbidden(t *testing.T) {
	app, db, _ := setupThreadsTest(t)
	owner, buyer, stranger := uuid.New(), uuid.New(), uuid.New()
	l := seedListing(t, db, owner)
	id := startThread(t, app, l.ID, buyer)

	status, _ := call(t, app, "GET", "/threads/"+id+"/messages", nil, stranger)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = call(t, app, "POST", "/threads/"+id+"/messages", map[string]string{"body": "hi"}, stranger)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = call(t, app, "GET", "/threads/"+id+"/stream", nil, stranger)
	assert.Equal(t, fiber.StatusForbidden, status)

	var n int64
	require.NoError(t, db.Model(&domain.Message{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestStream_WithoutRealtimeBackend(t *testing.T) {
	app, db, _ := setupThreadsTest(t)
	owner, buyer := uuid.New(), uuid.New()
	l := seedListing(t, db, owner)
	id := startThread(t, app, l.ID, buyer)

	status, _ := call(t, app, "GET", "/threads/"+id+"/stream", nil, buyer)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

// readEvent returns the next SSE event name and data, skipping comments.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStream_DeliversMessagesAndEndsOnShutdown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app, db, svc := newThreadsApp(t, &messaging.Hub{Rdb: rdb})
	owner, buyer := uuid.New(), uuid.New()
	l := seedListing(t, db, owner)
	id := startThread(t, app, l.ID, buyer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()

	req, err := http.NewRequest("GET", "http://"+ln.Addr().String()+"/threads/"+id+"/stream", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test-User", buyer.String())
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	event, _ := readEvent(t, r)
	require.Equal(t, "ready", event)

	_, err = svc.Send(context.Background(), uuid.MustParse(id), owner, "Still available?")
	require.NoError(t, err)

	event, data := readEvent(t, r)
	require.Equal(t, "message", event)
	var m domain.Message
	require.NoError(t, json.Unmarshal([]byte(data), &m))
	assert.Equal(t, "Still available?", m.Body)
	assert.Equal(t, owner, m.SenderID)

	done := make(chan error, 1)
	go func() { done <- app.ShutdownWithTimeout(5 * time.Second) }()

	// The open stream must not hold the server up.
	_, err = io.ReadAll(r)
	assert.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(8 * time.Second):
		t.Fatal("shutdown blocked by open stream")
	}
}

func TestList_OnlyMemberThreads(t *testing.T) {
	app, db, _ := setupThreadsTest(t)
	owner, buyer := uuid.New(), uuid.New()
	l := seedListing(t, db, owner)
	startThread(t, app, l.ID, buyer)

	status, out := call(t, app, "GET", "/threads", nil, owner)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"].([]interface{}), 1)

	status, out = call(t, app, "GET", "/threads", nil, uuid.New())
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, out["data"])
}
