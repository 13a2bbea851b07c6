package tool

import (
	"context"
	"testing"
)

func TestMockTool_SequenceAndReset(t *testing.T) {
	m := &MockTool{ToolName: "t", Responses: []map[string]any{{"n": 1}, {"n": 2}}}
	ctx := context.Background()

	out1, _ := m.Call(ctx, nil)
	if out1["n"] != 1 {
		t.Fatalf("unexpected first response: %+v", out1)
	}
	out2, _ := m.Call(ctx, nil)
	if out2["n"] != 2 {
		t.Fatalf("unexpected second response: %+v", out2)
	}
	out3, _ := m.Call(ctx, nil)
	if out3["n"] != 2 {
		t.Fatalf("expected repeat of last response, got %+v", out3)
	}
	if m.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", m.CallCount())
	}

	m.Reset()
	if m.CallCount() != 0 {
		t.Fatalf("expected reset to clear call count")
	}
}
