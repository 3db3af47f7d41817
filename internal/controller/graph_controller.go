package controller

import (
	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGraphController interface {
	RegisterRoutes(r fiber.Router)
	Graph(ctx *fiber.Ctx) error
	CreateNode(ctx *fiber.Ctx) error
	UpdateNode(ctx *fiber.Ctx) error
	DeleteNode(ctx *fiber.Ctx) error
	CreateEdge(ctx *fiber.Ctx) error
	DeleteEdge(ctx *fiber.Ctx) error
}

type graphController struct {
	service service.IConceptService
}

func NewGraphController(service service.IConceptService) IGraphController {
	return &graphController{service: service}
}

func (c *graphController) RegisterRoutes(r fiber.Router) {
	s := r.Group("/sessions/v1")
	s.Use(serverutils.JwtMiddleware)
	s.Get(":id/graph", c.Graph)
	s.Post(":id/nodes", c.CreateNode)
	s.Post(":id/edges", c.CreateEdge)

	n := r.Group("/nodes/v1")
	n.Use(serverutils.JwtMiddleware)
	n.Patch(":id", c.UpdateNode)
	n.Delete(":id", c.DeleteNode)

	e := r.Group("/edges/v1")
	e.Use(serverutils.JwtMiddleware)
	e.Delete(":id", c.DeleteEdge)
}

func (c *graphController) Graph(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Graph(ctx.UserContext(), actor, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get graph", res))
}

func (c *graphController) CreateNode(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateNodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.service.CreateNode(ctx.UserContext(), actor, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create node", res))
}

func (c *graphController) UpdateNode(ctx *fiber.Ctx) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateNodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.service.UpdateNode(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update node", res))
}

func (c *graphController) DeleteNode(ctx *fiber.Ctx) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.DeleteNode(ctx.UserContext(), actor, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete node", nil))
}

func (c *graphController) CreateEdge(ctx *fiber.Ctx) error {
	actor, sessionId, err := sessionRequest(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateEdgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.service.CreateEdge(ctx.UserContext(), actor, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create edge", res))
}

func (c *graphController) DeleteEdge(ctx *fiber.Ctx) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.DeleteEdge(ctx.UserContext(), actor, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete edge", nil))
}
