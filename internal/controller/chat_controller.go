package controller

import (
	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Post(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id/messages", c.List)
	h.Post(":id/messages", c.Post)
}

func (c *chatController) List(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), actor, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

// Post stores the message. A persona that fails to answer is reported as a warning
// next to the stored message instead of failing the request.
func (c *chatController) Post(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	var req dto.PostMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.service.Post(ctx.UserContext(), actor, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success post message", res))
}
