package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CallerNode is the caller-facing node shape (§6): "position" is a
// free-form layout hint, "metadata" opaque configuration.
type CallerNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position map[string]any `json:"position,omitempty"`
	Inputs   map[string]any `json:"inputs,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CallerConnection is the caller-facing edge shape: from/to rather than
// the engine's source_node/target_node.
type CallerConnection struct {
	From       string `json:"from"`
	FromOutput string `json:"from_output"`
	To         string `json:"to"`
	ToInput    string `json:"to_input"`
}

// CallerDocument is the caller-facing workflow JSON document (§6).
type CallerDocument struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Nodes       []CallerNode       `json:"nodes"`
	Connections []CallerConnection `json:"connections"`
}

// FromCallerDocument translates the caller-facing document shape into the
// engine-facing Graph, synthesizing a stable connection id for each edge
// (the caller shape carries none).
func FromCallerDocument(doc CallerDocument) *Graph {
	g := &Graph{ID: doc.ID, Name: doc.Name}
	for _, n := range doc.Nodes {
		g.Nodes = append(g.Nodes, NodeSpec{
			ID:       n.ID,
			Type:     NodeType(n.Type),
			Inputs:   n.Inputs,
			Metadata: n.Metadata,
			Position: n.Position,
		})
	}
	for _, c := range doc.Connections {
		g.Connections = append(g.Connections, Connection{
			ID:           uuid.NewString(),
			SourceNode:   c.From,
			SourceOutput: c.FromOutput,
			TargetNode:   c.To,
			TargetInput:  c.ToInput,
		})
	}
	return g
}

// ToCallerDocument is the inverse translation, for a component that needs
// to hand a Graph back out across the boundary. Connection ids are not
// carried over, since the caller-facing shape has none. (The job queue
// does not use it: it persists the submitted document map as received.)
func (g *Graph) ToCallerDocument() CallerDocument {
	doc := CallerDocument{ID: g.ID, Name: g.Name}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, CallerNode{
			ID: n.ID, Type: string(n.Type), Position: n.Position, Inputs: n.Inputs, Metadata: n.Metadata,
		})
	}
	for _, c := range g.Connections {
		doc.Connections = append(doc.Connections, CallerConnection{
			From: c.SourceNode, FromOutput: c.SourceOutput, To: c.TargetNode, ToInput: c.TargetInput,
		})
	}
	return doc
}

// ParseCallerDocument parses a workflow JSON document per §6.
func ParseCallerDocument(data []byte) (CallerDocument, error) {
	var doc CallerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return CallerDocument{}, fmt.Errorf("parsing workflow document: %w", err)
	}
	return doc, nil
}
