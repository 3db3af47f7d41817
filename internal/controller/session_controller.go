package controller

import (
	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Join(ctx *fiber.Ctx) error
	Participants(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get(":slug", c.Join)
	h.Get(":id/participants", c.Participants)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

// Join opens a session by its share slug and records the caller as a participant.
// Ids are accepted too so members can reload a session they already belong to.
func (c *sessionController) Join(ctx *fiber.Ctx) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}

	key := ctx.Params("slug")
	var res *dto.SessionResponse
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		res, err = c.service.Show(ctx.UserContext(), actor, id)
	} else {
		res, err = c.service.Join(ctx.UserContext(), actor, key)
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success join session", res))
}

func (c *sessionController) Participants(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Participants(ctx.UserContext(), actor, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get participants", res))
}
