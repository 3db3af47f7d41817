package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/conceptmap"
	"mindstorm-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConceptService interface {
	Graph(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.GraphResponse, error)
	CreateNode(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.CreateNodeRequest) (*dto.NodeResponse, error)
	UpdateNode(ctx context.Context, actor Actor, req *dto.UpdateNodeRequest) (*dto.NodeResponse, error)
	DeleteNode(ctx context.Context, actor Actor, id uuid.UUID) error
	CreateEdge(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.CreateEdgeRequest) (*dto.EdgeResponse, error)
	DeleteEdge(ctx context.Context, actor Actor, id uuid.UUID) error
}

type conceptService struct {
	uowFactory unitofwork.RepositoryFactory
	notifier   INotifier
	logger     logger.ILogger
}

func NewConceptService(uowFactory unitofwork.RepositoryFactory, notifier INotifier, log logger.ILogger) IConceptService {
	return &conceptService{
		uowFactory: uowFactory,
		notifier:   notifier,
		logger:     log,
	}
}

func (s *conceptService) Graph(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.GraphResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := memberSession(ctx, uow, sessionId, actor.UserId); err != nil {
		return nil, err
	}

	nodes, edges, err := loadGraph(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}

	res := &dto.GraphResponse{
		Nodes: make([]*dto.NodeResponse, 0, len(nodes)),
		Edges: make([]*dto.EdgeResponse, 0, len(edges)),
	}
	for _, n := range nodes {
		res.Nodes = append(res.Nodes, toNodeResponse(n))
	}
	for _, e := range edges {
		res.Edges = append(res.Edges, toEdgeResponse(e))
	}
	return res, nil
}

func (s *conceptService) CreateNode(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.CreateNodeRequest) (*dto.NodeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := activeMember(ctx, uow, sessionId, actor.UserId); err != nil {
		return nil, err
	}

	node := &entity.ConceptNode{
		Id:        uuid.New(),
		SessionId: sessionId,
		Label:     strings.TrimSpace(req.Label),
		X:         req.X,
		Y:         req.Y,
		Highlight: req.Highlight,
		CreatedAt: time.Now(),
	}
	if err := uow.ConceptNodeRepository().Create(ctx, node); err != nil {
		return nil, err
	}

	res := toNodeResponse(node)
	s.notifier.Notify(ctx, sessionId, events.KindNodeCreated, res)
	return res, nil
}

// UpdateNode applies the present fields. Concurrent edits are last-write-wins.
func (s *conceptService) UpdateNode(ctx context.Context, actor Actor, req *dto.UpdateNodeRequest) (*dto.NodeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	node, err := uow.ConceptNodeRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNodeNotFound
	}
	if err := activeMember(ctx, uow, node.SessionId, actor.UserId); err != nil {
		return nil, err
	}

	if req.Label != nil {
		node.Label = strings.TrimSpace(*req.Label)
	}
	if req.X != nil {
		node.X = *req.X
	}
	if req.Y != nil {
		node.Y = *req.Y
	}
	if req.IsCancelled != nil {
		node.IsCancelled = *req.IsCancelled
	}
	if req.Highlight != nil {
		if *req.Highlight == "" {
			node.Highlight = nil
		} else {
			node.Highlight = req.Highlight
		}
	}
	now := time.Now()
	node.UpdatedAt = &now

	if err := uow.ConceptNodeRepository().Update(ctx, node); err != nil {
		return nil, err
	}

	res := toNodeResponse(node)
	s.notifier.Notify(ctx, node.SessionId, events.KindNodeUpdated, res)
	return res, nil
}

// DeleteNode removes the node; its edges go with it through the foreign key cascade.
func (s *conceptService) DeleteNode(ctx context.Context, actor Actor, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	node, err := uow.ConceptNodeRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if node == nil {
		return ErrNodeNotFound
	}
	if err := activeMember(ctx, uow, node.SessionId, actor.UserId); err != nil {
		return err
	}

	if err := uow.ConceptNodeRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.notifier.Notify(ctx, node.SessionId, events.KindNodeDeleted, map[string]uuid.UUID{"id": id})
	return nil
}

func (s *conceptService) CreateEdge(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.CreateEdgeRequest) (*dto.EdgeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := activeMember(ctx, uow, sessionId, actor.UserId); err != nil {
		return nil, err
	}

	endpoints, err := uow.ConceptNodeRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByIDs{IDs: []uuid.UUID{req.SourceId, req.TargetId}},
	)
	if err != nil {
		return nil, err
	}
	if len(endpoints) != 2 {
		return nil, ErrInvalidEdge
	}

	edge := &entity.ConceptEdge{
		Id:        uuid.New(),
		SessionId: sessionId,
		SourceId:  req.SourceId,
		TargetId:  req.TargetId,
		CreatedAt: time.Now(),
	}
	if err := uow.ConceptEdgeRepository().Create(ctx, edge); err != nil {
		return nil, err
	}

	res := toEdgeResponse(edge)
	s.notifier.Notify(ctx, sessionId, events.KindEdgeCreated, res)
	return res, nil
}

func (s *conceptService) DeleteEdge(ctx context.Context, actor Actor, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	edge, err := uow.ConceptEdgeRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if edge == nil {
		return ErrEdgeNotFound
	}
	if err := activeMember(ctx, uow, edge.SessionId, actor.UserId); err != nil {
		return err
	}

	if err := uow.ConceptEdgeRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.notifier.Notify(ctx, edge.SessionId, events.KindEdgeDeleted, map[string]uuid.UUID{"id": id})
	return nil
}

// activeMember allows graph edits only by participants of a session that has not ended.
func activeMember(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId uuid.UUID) error {
	session, err := memberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return err
	}
	if !session.IsActive() {
		return ErrSessionEnded
	}
	return nil
}

func loadGraph(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]*entity.ConceptNode, []*entity.ConceptEdge, error) {
	nodes, err := uow.ConceptNodeRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, nil, err
	}
	edges, err := uow.ConceptEdgeRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func toNodeResponse(n *entity.ConceptNode) *dto.NodeResponse {
	return &dto.NodeResponse{
		Id:              n.Id,
		SessionId:       n.SessionId,
		Label:           n.Label,
		X:               n.X,
		Y:               n.Y,
		Persona:         n.Persona,
		SourceMessageId: n.SourceMessageId,
		IsCancelled:     n.IsCancelled,
		Highlight:       n.Highlight,
		CreatedAt:       n.CreatedAt,
	}
}

func toEdgeResponse(e *entity.ConceptEdge) *dto.EdgeResponse {
	return &dto.EdgeResponse{
		Id:        e.Id,
		SessionId: e.SessionId,
		SourceId:  e.SourceId,
		TargetId:  e.TargetId,
	}
}

// GraphStore is the concept graph as the extractor bridge writes it.
type GraphStore struct {
	uowFactory unitofwork.RepositoryFactory
	notifier   INotifier
}

func NewGraphStore(uowFactory unitofwork.RepositoryFactory, notifier INotifier) *GraphStore {
	return &GraphStore{uowFactory: uowFactory, notifier: notifier}
}

func (g *GraphStore) Nodes(ctx context.Context, sessionId uuid.UUID) ([]conceptmap.Node, error) {
	list, err := g.uowFactory.NewUnitOfWork(ctx).ConceptNodeRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	nodes := make([]conceptmap.Node, 0, len(list))
	for _, n := range list {
		nodes = append(nodes, conceptmap.Node{ID: n.Id, Label: n.Label, X: n.X, Y: n.Y})
	}
	return nodes, nil
}

func (g *GraphStore) CreateNode(ctx context.Context, n conceptmap.NewNode) (*conceptmap.Node, error) {
	node := &entity.ConceptNode{
		Id:              uuid.New(),
		SessionId:       n.SessionID,
		Label:           n.Label,
		X:               n.X,
		Y:               n.Y,
		SourceMessageId: n.SourceMessageID,
		CreatedAt:       time.Now(),
	}
	if n.Persona != nil {
		p := string(*n.Persona)
		node.Persona = &p
	}
	if err := g.uowFactory.NewUnitOfWork(ctx).ConceptNodeRepository().Create(ctx, node); err != nil {
		return nil, err
	}
	g.notifier.Notify(ctx, n.SessionID, events.KindNodeCreated, toNodeResponse(node))
	return &conceptmap.Node{ID: node.Id, Label: node.Label, X: node.X, Y: node.Y}, nil
}

func (g *GraphStore) CreateEdge(ctx context.Context, sessionId, sourceId, targetId uuid.UUID) error {
	edge := &entity.ConceptEdge{
		Id:        uuid.New(),
		SessionId: sessionId,
		SourceId:  sourceId,
		TargetId:  targetId,
		CreatedAt: time.Now(),
	}
	if err := g.uowFactory.NewUnitOfWork(ctx).ConceptEdgeRepository().Create(ctx, edge); err != nil {
		return err
	}
	g.notifier.Notify(ctx, sessionId, events.KindEdgeCreated, toEdgeResponse(edge))
	return nil
}

// ExtractionPublisher puts extraction tasks on the in-process queue.
type ExtractionPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewExtractionPublisher(publisher message.Publisher, topic string) *ExtractionPublisher {
	return &ExtractionPublisher{publisher: publisher, topic: topic}
}

func (p *ExtractionPublisher) Enqueue(ctx context.Context, src conceptmap.Source) error {
	return p.publish(dto.ExtractConceptsMessage{
		SessionId: src.SessionID,
		MessageId: src.MessageID,
		Speaker:   string(src.Speaker),
		Content:   src.Content,
		Attempt:   1,
	})
}

func (p *ExtractionPublisher) publish(task dto.ExtractConceptsMessage) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal extraction task: %w", err)
	}
	return p.publisher.Publish(p.topic, message.NewMessage(watermill.NewUUID(), payload))
}
