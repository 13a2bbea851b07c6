package emit

import "context"

// NullEmitter discards every event. Used when callers don't wire an
// Emitter explicitly, so the engine never has to nil-check.
type NullEmitter struct{}

// NewNullEmitter returns an Emitter that discards all events.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

// Emit is a no-op.
func (*NullEmitter) Emit(Event) {}

// Flush is a no-op.
func (*NullEmitter) Flush(context.Context) error { return nil }
