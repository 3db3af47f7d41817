package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/memory"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/events"
	"mindstorm-be/pkg/snapshot"
	"mindstorm-be/pkg/summary"

	"github.com/google/uuid"
)

const summaryModule = "SummaryService"

type ISummarizer interface {
	Summarize(ctx context.Context, in summary.Input) *summary.Result
}

type ISummaryService interface {
	// End closes the session once and produces its summary. Only the creator may end it.
	End(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.EndSessionResponse, error)
	Get(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.SummaryResponse, error)
	Delete(ctx context.Context, actor Actor, sessionId uuid.UUID) error
	// Regenerate reruns the summary of an ended session that has none.
	Regenerate(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.SummaryResponse, error)
}

type summaryService struct {
	uowFactory unitofwork.RepositoryFactory
	summarizer ISummarizer
	notifier   INotifier
	watcher    ISessionWatcher
	cache      *memory.SessionCache
	logger     logger.ILogger
}

func NewSummaryService(
	uowFactory unitofwork.RepositoryFactory,
	summarizer ISummarizer,
	notifier INotifier,
	watcher ISessionWatcher,
	cache *memory.SessionCache,
	log logger.ILogger,
) ISummaryService {
	return &summaryService{
		uowFactory: uowFactory,
		summarizer: summarizer,
		notifier:   notifier,
		watcher:    watcher,
		cache:      cache,
		logger:     log,
	}
}

func (s *summaryService) End(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.EndSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := findSession(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}
	if session.CreatorId != actor.UserId {
		return nil, ErrForbidden
	}
	if !session.IsActive() {
		return nil, ErrSessionEnded
	}

	endedAt := time.Now()
	ended, err := uow.SessionRepository().MarkEnded(ctx, sessionId, endedAt)
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	if !ended {
		return nil, ErrSessionEnded
	}
	session.Status = entity.SessionStatusEnded
	session.EndedAt = &endedAt

	s.watcher.Unwatch(sessionId)
	s.cache.Delete(session.Slug)

	res := &dto.EndSessionResponse{Session: *toSessionResponse(session, actor)}
	s.notifier.Notify(ctx, sessionId, events.KindSessionEnded, res.Session)

	saved, warnings := s.generate(ctx, session)
	if saved != nil {
		res.Summary = toSummaryResponse(saved)
	}
	if len(warnings) > 0 {
		w := strings.Join(warnings, "; ")
		res.Warning = &w
	}

	s.logger.Info(summaryModule, "Session ended", map[string]interface{}{"session_id": sessionId, "warnings": warnings})
	return res, nil
}

// generate runs the summarizer and stores the result. Nothing here fails the caller.
func (s *summaryService) generate(ctx context.Context, session *entity.Session) (*entity.SessionSummary, []string) {
	in, err := s.input(ctx, session)
	if err != nil {
		s.logger.Error(summaryModule, "Failed to load session for summary", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		return nil, []string{summary.WarningSummary}
	}

	result := s.summarizer.Summarize(ctx, *in)
	warnings := result.Warnings
	if result.Structured == nil {
		return nil, warnings
	}

	saved := &entity.SessionSummary{
		Id:              uuid.New(),
		SessionId:       session.Id,
		Summary:         result.Structured.Summary,
		Insights:        result.Structured.Insights,
		Ideas:           result.Structured.Ideas,
		ActionItems:     result.Structured.ActionItems,
		SnapshotURL:     result.SnapshotURL,
		IllustrationURL: result.IllustrationURL,
		CreatedAt:       time.Now(),
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).SessionSummaryRepository().Create(ctx, saved); err != nil {
		s.logger.Error(summaryModule, "Failed to store summary", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		return nil, append(warnings, summary.WarningSummary)
	}

	s.notifier.Notify(ctx, session.Id, events.KindSummaryCreated, toSummaryResponse(saved))
	return saved, warnings
}

func (s *summaryService) input(ctx context.Context, session *entity.Session) (*summary.Input, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "seq"},
	)
	if err != nil {
		return nil, err
	}
	nodes, edges, err := loadGraph(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	in := &summary.Input{
		SessionID:  session.Id,
		Title:      session.Title,
		Goal:       session.GoalText(),
		Transcript: make([]summary.Line, 0, len(messages)),
		Graph:      snapshot.Graph{Title: session.Title},
	}
	for _, m := range messages {
		line := summary.Line{Speaker: m.Speaker, Anonymous: m.IsAnonymous, Content: m.Content}
		if m.AuthorName != nil {
			line.AuthorName = *m.AuthorName
		}
		in.Transcript = append(in.Transcript, line)
	}
	for _, n := range nodes {
		node := snapshot.Node{ID: n.Id, Label: n.Label, X: n.X, Y: n.Y, Cancelled: n.IsCancelled}
		if n.Persona != nil {
			node.Persona = *n.Persona
		}
		if n.Highlight != nil {
			node.Highlight = *n.Highlight
		}
		in.Graph.Nodes = append(in.Graph.Nodes, node)
	}
	for _, e := range edges {
		in.Graph.Edges = append(in.Graph.Edges, snapshot.Edge{SourceID: e.SourceId, TargetID: e.TargetId})
	}
	return in, nil
}

func (s *summaryService) Get(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.SummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := memberSession(ctx, uow, sessionId, actor.UserId); err != nil {
		return nil, err
	}

	saved, err := uow.SessionSummaryRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrSummaryNotFound
	}
	return toSummaryResponse(saved), nil
}

func (s *summaryService) Delete(ctx context.Context, actor Actor, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := findSession(ctx, uow, sessionId)
	if err != nil {
		return err
	}
	if session.CreatorId != actor.UserId {
		return ErrForbidden
	}

	saved, err := uow.SessionSummaryRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return err
	}
	if saved == nil {
		return ErrSummaryNotFound
	}
	return uow.SessionSummaryRepository().DeleteBySessionId(ctx, sessionId)
}

func (s *summaryService) Regenerate(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.SummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := findSession(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}
	if session.CreatorId != actor.UserId {
		return nil, ErrForbidden
	}
	if session.IsActive() {
		return nil, ErrSessionActive
	}

	existing, err := uow.SessionSummaryRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSummaryExists
	}

	saved, warnings := s.generate(ctx, session)
	if saved == nil {
		return nil, fmt.Errorf("%w: %s", ErrPersonaUnavailable, strings.Join(warnings, "; "))
	}
	return toSummaryResponse(saved), nil
}

func toSummaryResponse(s *entity.SessionSummary) *dto.SummaryResponse {
	return &dto.SummaryResponse{
		Id:              s.Id,
		SessionId:       s.SessionId,
		Summary:         s.Summary,
		Insights:        s.Insights,
		Ideas:           s.Ideas,
		ActionItems:     s.ActionItems,
		SnapshotURL:     s.SnapshotURL,
		IllustrationURL: s.IllustrationURL,
		CreatedAt:       s.CreatedAt,
	}
}
