package controller

import (
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISummaryController interface {
	RegisterRoutes(r fiber.Router)
	End(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
}

type summaryController struct {
	service service.ISummaryService
}

func NewSummaryController(service service.ISummaryService) ISummaryController {
	return &summaryController{service: service}
}

func (c *summaryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post(":id/end", c.End)
	h.Get(":id/summary", c.Show)
	h.Delete(":id/summary", c.Delete)
	h.Post(":id/summary/regenerate", c.Regenerate)
}

func (c *summaryController) End(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.End(ctx.UserContext(), actor, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success end session", res))
}

func (c *summaryController) Show(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.UserContext(), actor, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get summary", res))
}

func (c *summaryController) Delete(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), actor, sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete summary", nil))
}

func (c *summaryController) Regenerate(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Regenerate(ctx.UserContext(), actor, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success regenerate summary", res))
}
