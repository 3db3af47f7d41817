package controller

import (
	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPrivateController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
}

type privateController struct {
	service service.IPrivateService
}

func NewPrivateController(service service.IPrivateService) IPrivateController {
	return &privateController{service: service}
}

func (c *privateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id/private", c.List)
	h.Post(":id/private", c.Send)
}

func (c *privateController) List(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), actor, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get private thread", res))
}

func (c *privateController) Send(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	var req dto.SendPrivateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.service.Send(ctx.UserContext(), actor, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send private message", res))
}
