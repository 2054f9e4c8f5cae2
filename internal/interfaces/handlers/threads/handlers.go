package threads

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homesocial-backend/internal/application/messaging"
	"homesocial-backend/internal/middleware"
	"homesocial-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// keepAliveInterval bounds how long a dropped client holds its subscription:
// the disconnect surfaces on the next failed flush.
const keepAliveInterval = 5 * time.Second

type Handlers struct {
	Service *messaging.Service
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, messaging.ErrOwnThread):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, messaging.ErrEmptyBody), errors.Is(err, messaging.ErrBodyTooLong):
		return response.FieldError(c, "body", err.Error())
	case errors.Is(err, messaging.ErrNotMember):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, messaging.ErrListingNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, messaging.ErrRealtimeUnavailable):
		return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("threads: request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

func param(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// Start POST /api/v1/listings/:id/threads ("Message seller").
func (h *Handlers) Start(c *fiber.Ctx) error {
	listingID, err := param(c, "id")
	if err != nil {
		return fail(c, messaging.ErrListingNotFound)
	}
	userID, _ := middleware.CurrentUserID(c)
	thread, created, err := h.Service.StartThread(c.Context(), listingID, userID)
	if err != nil {
		return fail(c, err)
	}
	data := fiber.Map{
		"thread_id": thread.ID,
		"created":   created,
		"redirect":  "/messages/" + thread.ID.String(),
	}
	if created {
		return response.SuccessCreated(c, "Conversation started", data, nil)
	}
	return response.Success(c, "Conversation found", data, nil)
}

// List GET /api/v1/threads
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	list, err := h.Service.ListThreads(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Conversations fetched", list, fiber.Map{"count": len(list)})
}

// Messages GET /api/v1/threads/:id/messages
func (h *Handlers) Messages(c *fiber.Ctx) error {
	threadID, err := param(c, "id")
	if err != nil {
		return fail(c, messaging.ErrNotMember)
	}
	userID, _ := middleware.CurrentUserID(c)
	msgs, err := h.Service.Messages(c.Context(), threadID, userID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Messages fetched", msgs, fiber.Map{"count": len(msgs)})
}

type sendRequest struct {
	Body string `json:"body"`
}

// Send POST /api/v1/threads/:id/messages
func (h *Handlers) Send(c *fiber.Ctx) error {
	threadID, err := param(c, "id")
	if err != nil {
		return fail(c, messaging.ErrNotMember)
	}
	userID, _ := middleware.CurrentUserID(c)
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, messaging.ErrEmptyBody)
	}
	msgs, err := h.Service.Send(c.Context(), threadID, userID, req.Body)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Message sent", msgs, fiber.Map{"count": len(msgs)})
}

// Stream GET /api/v1/threads/:id/stream pushes new messages as Server-Sent
// Events. The subscription ends when the client goes away or the server shuts down.
func (h *Handlers) Stream(c *fiber.Ctx) error {
	threadID, err := param(c, "id")
	if err != nil {
		return fail(c, messaging.ErrNotMember)
	}
	userID, _ := middleware.CurrentUserID(c)
	ok, err := h.Service.IsMember(c.Context(), threadID, userID)
	if err != nil {
		return fail(c, err)
	}
	if !ok {
		return fail(c, messaging.ErrNotMember)
	}

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := h.Service.Hub.Subscribe(ctx, threadID)
	if err != nil {
		cancel()
		return fail(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// Closed when the server starts shutting down.
	shutdown := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		fmt.Fprint(w, "event: ready\ndata: {}\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case m, ok := <-msgs:
				if !ok {
					return
				}
				b, _ := json.Marshal(m)
				fmt.Fprintf(w, "event: message\ndata: %s\n\n", b)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			case <-shutdown:
				return
			}
			if err := w.Flush(); err != nil {
				log.Debug().Str("thread_id", threadID.String()).Msg("threads: stream closed")
				return
			}
		}
	})
	return nil
}
