package controller

import (
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func actorOf(ctx *fiber.Ctx) (service.Actor, error) {
	userId, name, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserId: userId, DisplayName: name}, nil
}

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// sessionRequest resolves the caller and the :id session of a request.
func sessionRequest(ctx *fiber.Ctx) (service.Actor, uuid.UUID, error) {
	actor, err := actorOf(ctx)
	if err != nil {
		return actor, uuid.Nil, err
	}
	sessionId, err := uuidParam(ctx, "id")
	return actor, sessionId, err
}
