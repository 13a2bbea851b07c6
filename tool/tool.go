// Package tool defines the contract HTTP/RNG-calling nodes use internally
// to expose their side effects uniformly.
package tool

import "context"

// Tool is an executable side effect a node can invoke.
type Tool interface {
	// Name is the tool's unique identifier.
	Name() string

	// Call executes the tool against input, returning structured output.
	Call(ctx context.Context, input map[string]any) (map[string]any, error)
}
