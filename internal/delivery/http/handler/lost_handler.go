package handler

import (
	"context"
	"mime"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/usecase"
)

// LoSTHandler serves the single protocol endpoint. Every failure,
// including a malformed request, is a 200 with an <errors> body; HTTP
// status codes other than 200 never carry protocol information.
type LoSTHandler struct {
	engine  *usecase.Engine
	timeout time.Duration
	logger  *zap.Logger
}

func NewLoSTHandler(engine *usecase.Engine, timeout time.Duration, logger *zap.Logger) *LoSTHandler {
	return &LoSTHandler{
		engine:  engine,
		timeout: timeout,
		logger:  logger,
	}
}

func (h *LoSTHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	resp := h.respond(ctx, c)

	body, err := resp.Render()
	if err != nil {
		h.logger.Error("Failed to serialize response", zap.Error(err))
		body, _ = h.errorResponse(errors.InternalError("failed to serialize response")).Render()
	}

	c.Set(fiber.HeaderContentType, lostxml.MIMEType)
	return c.Status(fiber.StatusOK).Send(body)
}

func (h *LoSTHandler) respond(ctx context.Context, c *fiber.Ctx) lostxml.Response {
	ctype, _, _ := mime.ParseMediaType(c.Get(fiber.HeaderContentType))
	if ctype != lostxml.MIMEType {
		return h.errorResponse(errors.BadRequest("unsupported content type %q", ctype))
	}

	req, lerr := lostxml.ParseRequest(c.Body())
	if lerr != nil {
		return h.errorResponse(lerr)
	}

	resp, lerr := h.engine.Dispatch(ctx, req)
	if lerr != nil {
		return h.errorResponse(lerr)
	}
	return resp
}

func (h *LoSTHandler) errorResponse(lerr *errors.LoSTError) *lostxml.ErrorsResponse {
	return &lostxml.ErrorsResponse{
		Kind:    lerr.Kind,
		Message: lerr.Message,
		Source:  h.engine.ServerID(),
	}
}
