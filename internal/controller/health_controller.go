package controller

import (
	"birthday-notes-be/internal/dto"
	"context"

	"github.com/gofiber/fiber/v2"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	store Pinger
}

func NewHealthController(store Pinger) IHealthController {
	return &healthController{store: store}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/healthz", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	if err := c.store.Ping(ctx.Context()); err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "unavailable"})
	}

	return ctx.JSON(dto.HealthResponse{Status: "ok"})
}
