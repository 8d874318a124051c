package controller

import (
	"birthday-notes-be/internal/dto"
	"birthday-notes-be/internal/pkg/serverutils"
	"birthday-notes-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	DownloadArchive(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type noteController struct {
	service        service.INoteService
	archiveService service.IArchiveService
}

func NewNoteController(service service.INoteService, archiveService service.IArchiveService) INoteController {
	return &noteController{
		service:        service,
		archiveService: archiveService,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notes")
	h.Get("/", c.GetAll)
	h.Get("/download", c.Download)
	h.Get("/download/archive", c.DownloadArchive)
	h.Post("/", c.Create)
	h.Get("/:id", c.Show)
	h.Put("/:id", c.Update)
	h.Delete("/:id", c.Delete)
}

func (c *noteController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetAll(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Download(ctx *fiber.Ctx) error {
	res, err := c.service.Download(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) DownloadArchive(ctx *fiber.Ctx) error {
	res, err := c.archiveService.Link(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateNoteRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.Id = id

	res, err := c.service.Update(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	err = c.service.Delete(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.MessageResponse(serverutils.MessageNoteDeleted))
}

// parseBody leaves out untouched on an empty body so the service reports
// the missing fields.
func parseBody(ctx *fiber.Ctx, out any) error {
	if len(ctx.Body()) == 0 {
		return nil
	}
	if err := ctx.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, serverutils.MessageInvalidBody)
	}
	return nil
}

// A malformed id cannot name a stored note.
func parseId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, serverutils.ErrNotFound
	}
	return id, nil
}
