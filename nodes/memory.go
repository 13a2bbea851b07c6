package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/agentflow/graph"
	"github.com/dshills/agentflow/model"
	"github.com/dshills/agentflow/storage"
)

const (
	TypeMemoryRead  graph.NodeType = "memory_read"
	TypeMemoryWrite graph.NodeType = "memory_write"
)

const defaultRecentLimit = 10

// MemoryRead loads a user's recent interactions, plus the most recent
// "summary" activity logs (up to 30, not filtered by user), out of the
// container's storage.Store and shapes them into the context dict an
// Inference node expects ("messages" + "memories").
type MemoryRead struct {
	graph.BaseNode
}

func newMemoryRead(spec graph.NodeSpec) (graph.Node, error) {
	return &MemoryRead{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *MemoryRead) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	c, err := fromContext(gctx.Container)
	if err != nil {
		return nil, err
	}

	in := n.Inputs()
	userID := userIDFor(in, n.ID)
	query, _ := in["query"].(string)
	recentLimit := int(toFloat(in["k"], defaultRecentLimit))

	interactions, err := c.Store.ListInteractions(ctx, userID, recentLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(interactions)*2)
	for i := len(interactions) - 1; i >= 0; i-- {
		rec := interactions[i]
		messages = append(messages,
			model.Message{Role: model.RoleUser, Content: rec.Query},
			model.Message{Role: model.RoleAssistant, Content: rec.Response},
		)
	}

	logs, err := c.Store.ListActivityLogs(ctx, "summary", defaultRecentLimit*3)
	if err != nil {
		return nil, err
	}
	memories := summarize(logs)

	return graph.Outputs{
		"query": query,
		"context": map[string]any{
			"messages": messages,
			"memories": memories,
		},
		"user_id": userID,
	}, nil
}

func summarize(logs []storage.ActivityLog) string {
	if len(logs) == 0 {
		return ""
	}
	out := ""
	for _, l := range logs {
		out += l.Message + "\n"
	}
	return out
}

// MemoryWrite saves a query/response interaction to the container's
// storage.Store. Summarization, reward scoring, and evolution-cycle
// bookkeeping from the original node are dropped; this package only
// carries the interaction/activity-log shape scoped for this system.
type MemoryWrite struct {
	graph.BaseNode
}

func newMemoryWrite(spec graph.NodeSpec) (graph.Node, error) {
	return &MemoryWrite{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *MemoryWrite) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	c, err := fromContext(gctx.Container)
	if err != nil {
		return nil, err
	}

	in := n.Inputs()
	userID := userIDFor(in, n.ID)
	query, _ := in["query"].(string)
	response, _ := in["response"].(string)

	err = c.Store.SaveInteraction(ctx, storage.Interaction{
		ID:        fmt.Sprintf("%s-%d", n.ID, time.Now().UnixNano()),
		UserID:    userID,
		Query:     query,
		Response:  response,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return graph.Outputs{"saved": true}, nil
}

func userIDFor(in map[string]any, nodeID string) string {
	if v, ok := in["user_id"].(string); ok && v != "" {
		return v
	}
	return "adapter_" + nodeID
}

func init() {
	graph.DefaultRegistry.Register(TypeMemoryRead, newMemoryRead)
	graph.DefaultRegistry.Register(TypeMemoryWrite, newMemoryWrite)
}
