package controller

import (
	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	IngestChunk(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{
		ingestService: ingestService,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/scribe/v1")
	h.Post("ingest", c.IngestChunk)
}

func (c *ingestController) IngestChunk(ctx *fiber.Ctx) error {
	var req dto.IngestChunkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewHttpError(fiber.StatusBadRequest, "invalid form data")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewHttpError(fiber.StatusBadRequest, "audio file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return serverutils.NewHttpError(fiber.StatusBadRequest, "cannot read audio file")
	}
	defer file.Close()

	res, err := c.ingestService.IngestChunk(ctx.Context(), &req, file, fileHeader.Filename)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Chunk queued", res))
}
