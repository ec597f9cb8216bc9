package kernel

import "github.com/tailored-agentic-units/insight/observability"

// Kernel event types emitted during a turn.
const (
	EventTurnStart    observability.EventType = "kernel.turn.start"
	EventPhase        observability.EventType = "kernel.phase"
	EventToolCall     observability.EventType = "kernel.tool.call"
	EventToolComplete observability.EventType = "kernel.tool.complete"
	EventFallback     observability.EventType = "kernel.fallback"
	EventResponse     observability.EventType = "kernel.response"
	EventError        observability.EventType = "kernel.error"
	EventUpload       observability.EventType = "kernel.upload"
)
