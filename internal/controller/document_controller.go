package controller

import (
	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	GenerateDocument(ctx *fiber.Ctx) error
	GetDocument(ctx *fiber.Ctx) error
}

type documentController struct {
	draftService service.IDraftService
}

func NewDocumentController(draftService service.IDraftService) IDocumentController {
	return &documentController{
		draftService: draftService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/scribe/v1/session")
	h.Post(":id/document", c.GenerateDocument)
	h.Get(":id/document", c.GetDocument)
}

func (c *documentController) GenerateDocument(ctx *fiber.Ctx) error {
	var req dto.GenerateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewHttpError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.draftService.GenerateDocument(ctx.Context(), ctx.Params("id"), req.DocumentType)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document generated", res))
}

func (c *documentController) GetDocument(ctx *fiber.Ctx) error {
	docType := ctx.Query("type")
	if docType == "" {
		return serverutils.NewHttpError(fiber.StatusBadRequest, "type query parameter is required")
	}

	res, err := c.draftService.GetDocument(ctx.Context(), ctx.Params("id"), docType)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document", res))
}
