package nodes

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/agentflow/graph"
	"github.com/dshills/agentflow/model"
)

const TypeInference graph.NodeType = "inference"

const defaultSubmitTimeout = 30 * time.Second

var errMissingQuery = errors.New("nodes: inference node requires a non-empty query input")

// Inference submits a generation request through the container's
// inference.Queue and surfaces the response text plus usage metadata.
type Inference struct {
	graph.BaseNode
}

func newInference(spec graph.NodeSpec) (graph.Node, error) {
	return &Inference{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *Inference) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	c, err := fromContext(gctx.Container)
	if err != nil {
		return nil, err
	}

	in := n.Inputs()
	query, _ := in["query"].(string)
	if query == "" {
		return nil, errMissingQuery
	}
	systemPrompt, _ := in["system_prompt"].(string)

	history := conversationHistory(in["conversation_history"])
	if ctxVal, ok := in["context"].(map[string]any); ok {
		if memories, ok := ctxVal["memories"].(string); ok && memories != "" {
			if systemPrompt != "" {
				systemPrompt = systemPrompt + "\n\n" + memories
			} else {
				systemPrompt = memories
			}
		}
		if len(history) == 0 {
			history = conversationHistory(ctxVal["messages"])
		}
	}

	req := model.Request{
		Query:               query,
		SystemPrompt:        systemPrompt,
		ConversationHistory: history,
		EnableThinking:      toBool(in["enable_thinking"], true),
		MaxTokens:           int(toFloat(in["max_length"], 1024)),
	}

	timeout := defaultSubmitTimeout
	if d, ok := n.Metadata["submit_timeout_seconds"]; ok {
		timeout = time.Duration(toFloat(d, timeout.Seconds())) * time.Second
	}

	resp, err := c.Inference.Submit(ctx, req, timeout)
	if err != nil {
		return nil, err
	}

	return graph.Outputs{
		"query":    query,
		"response": resp.Response,
		"result":   resp,
	}, nil
}

func conversationHistory(v any) []model.Message {
	if msgs, ok := v.([]model.Message); ok {
		return msgs
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.Message, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		out = append(out, model.Message{Role: role, Content: content})
	}
	return out
}

func init() {
	graph.DefaultRegistry.Register(TypeInference, newInference)
}
