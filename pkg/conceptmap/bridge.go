package conceptmap

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
)

// Canvas bounds for nodes without a parent, and the offset range around a parent.
const (
	MinX = 100.0
	MaxX = 700.0
	MinY = 100.0
	MaxY = 500.0

	minOffset = 50.0
	maxOffset = 150.0
)

type Node struct {
	ID    uuid.UUID
	Label string
	X     float64
	Y     float64
}

type NewNode struct {
	SessionID       uuid.UUID
	Label           string
	X               float64
	Y               float64
	Persona         *persona.Speaker
	SourceMessageID *uuid.UUID
}

// Source is the appended message the bridge mines.
type Source struct {
	SessionID uuid.UUID
	MessageID uuid.UUID
	Speaker   persona.Speaker
	Content   string
}

// Graph is the write side of the concept graph store.
type Graph interface {
	Nodes(ctx context.Context, sessionID uuid.UUID) ([]Node, error)
	CreateNode(ctx context.Context, node NewNode) (*Node, error)
	CreateEdge(ctx context.Context, sessionID, sourceID, targetID uuid.UUID) error
}

type Result struct {
	Nodes []Node
	Edges int
}

// Written reports whether the graph was mutated at all.
func (r *Result) Written() bool {
	return r != nil && (len(r.Nodes) > 0 || r.Edges > 0)
}

type Bridge struct {
	graph     Graph
	extractor Extractor

	mu  sync.Mutex
	rnd *rand.Rand
}

type BridgeOption func(*Bridge)

func WithRand(r *rand.Rand) BridgeOption {
	return func(b *Bridge) { b.rnd = r }
}

func NewBridge(graph Graph, extractor Extractor, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		graph:     graph,
		extractor: extractor,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Extract mines src and materializes the proposed concepts. Labels are not deduplicated here.
// A failing node or edge write does not stop the rest of the batch; the returned error joins
// every write failure and Result holds what was written.
func (b *Bridge) Extract(ctx context.Context, src Source) (*Result, error) {
	existing, err := b.graph.Nodes(ctx, src.SessionID)
	if err != nil {
		return nil, fmt.Errorf("list concept nodes: %w", err)
	}

	labels := make([]string, 0, len(existing))
	byLabel := make(map[string]Node, len(existing))
	for _, n := range existing {
		labels = append(labels, n.Label)
		key := normalize(n.Label)
		if _, ok := byLabel[key]; !ok {
			byLabel[key] = n
		}
	}

	extraction, err := b.extractor.Extract(ctx, src.Content, labels)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var errs []error
	for _, c := range extraction.Concepts {
		label := strings.TrimSpace(c.Label)
		if label == "" {
			continue
		}

		var parents []Node
		for _, target := range c.ConnectsTo {
			if parent, ok := byLabel[normalize(target)]; ok {
				parents = append(parents, parent)
			}
		}

		x, y := b.position(parents)
		speaker := src.Speaker
		messageID := src.MessageID
		node, err := b.graph.CreateNode(ctx, NewNode{
			SessionID:       src.SessionID,
			Label:           label,
			X:               x,
			Y:               y,
			Persona:         &speaker,
			SourceMessageID: &messageID,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("create node %q: %w", label, err))
			continue
		}
		result.Nodes = append(result.Nodes, *node)
		if key := normalize(node.Label); byLabel[key].ID == uuid.Nil {
			byLabel[key] = *node
		}

		for _, parent := range parents {
			if err := b.graph.CreateEdge(ctx, src.SessionID, parent.ID, node.ID); err != nil {
				errs = append(errs, fmt.Errorf("create edge %q -> %q: %w", parent.Label, label, err))
				continue
			}
			result.Edges++
		}
	}

	return result, errors.Join(errs...)
}

// position places a node at random on the canvas, or near its first parent.
func (b *Bridge) position(parents []Node) (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(parents) == 0 {
		return MinX + b.rnd.Float64()*(MaxX-MinX), MinY + b.rnd.Float64()*(MaxY-MinY)
	}
	first := parents[0]
	return first.X + b.offset(), first.Y + b.offset()
}

func (b *Bridge) offset() float64 {
	d := minOffset + b.rnd.Float64()*(maxOffset-minOffset)
	if b.rnd.Intn(2) == 0 {
		return -d
	}
	return d
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
