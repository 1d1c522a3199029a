package controller

import (
	"fmt"
	"strconv"

	"fusion-agent-be/internal/dto"
	"fusion-agent-be/internal/pkg/serverutils"
	"fusion-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Ask(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	Streams(ctx *fiber.Ctx) error
}

type agentController struct {
	service service.IAgentService
}

func NewAgentController(service service.IAgentService) IAgentController {
	return &agentController{service: service}
}

func (c *agentController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/agent/v1")

	// Download links are plain Markdown links opened by a browser, so they
	// carry no bearer token.
	h.Get("/attachments/:id", c.Download)

	h.Get("/streams", guarded(middleware, c.Streams)...)
	h.Post("/:stream/query", guarded(middleware, c.Ask)...)
	h.Get("/:stream/threads/:threadId/messages", guarded(middleware, c.History)...)
}

func guarded(middleware []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	return append(handlers, handler)
}

func (c *agentController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), ctx.Params("stream"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success run agent turn", res))
}

func (c *agentController) History(ctx *fiber.Ctx) error {
	res, err := c.service.History(ctx.UserContext(), ctx.Params("stream"), ctx.Params("threadId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get thread history", res))
}

func (c *agentController) Download(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid attachment id")
	}

	file, err := c.service.DownloadAttachment(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, file.MimeType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return ctx.Send(file.Content)
}

func (c *agentController) Streams(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get streams", c.service.Streams(ctx.UserContext())))
}
