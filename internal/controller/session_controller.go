package controller

import (
	"strconv"

	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	GetNote(ctx *fiber.Ctx) error
	GetTranscript(ctx *fiber.Ctx) error
	GetNotifications(ctx *fiber.Ctx) error
	GetMetrics(ctx *fiber.Ctx) error
	StopSession(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/scribe/v1/session")
	h.Get(":id/note", c.GetNote)
	h.Get(":id/transcript", c.GetTranscript)
	h.Get(":id/notifications", c.GetNotifications)
	h.Get(":id/metrics", c.GetMetrics)
	h.Post(":id/stop", c.StopSession)
}

func (c *sessionController) GetNote(ctx *fiber.Ctx) error {
	res, err := c.sessionService.GetNote(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get note", res))
}

func (c *sessionController) GetTranscript(ctx *fiber.Ctx) error {
	res, err := c.sessionService.GetTranscript(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get transcript", res))
}

func (c *sessionController) GetNotifications(ctx *fiber.Ctx) error {
	var chunkIndex *int
	if raw := ctx.Query("chunk_index"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 {
			return serverutils.NewHttpError(fiber.StatusBadRequest, "chunk_index must be a non-negative integer")
		}
		chunkIndex = &idx
	}

	res, err := c.sessionService.GetNotifications(ctx.Context(), ctx.Params("id"), chunkIndex)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get notifications", res))
}

func (c *sessionController) GetMetrics(ctx *fiber.Ctx) error {
	res, err := c.sessionService.GetMetrics(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get metrics", res))
}

func (c *sessionController) StopSession(ctx *fiber.Ctx) error {
	res, err := c.sessionService.StopSession(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Session finalizing", res))
}
