package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/insight/agent"
	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/core/response"
	"github.com/tailored-agentic-units/insight/observability"
	"github.com/tailored-agentic-units/insight/tools"
)

// Phase names a state of the tool dispatch loop.
type Phase string

const (
	PhaseDraft          Phase = "draft"
	PhaseAwaitingModel  Phase = "awaiting_model"
	PhaseDirectAnswer   Phase = "direct_answer"
	PhaseFallbackStream Phase = "fallback_stream"
	PhaseToolRequested  Phase = "tool_requested"
	PhaseToolExecuted   Phase = "tool_executed"
	PhaseAwaitingFinal  Phase = "awaiting_final"
	PhaseDone           Phase = "done"
)

// Texts returned when the first model request fails.
const (
	UnavailableText   = "I'm having trouble connecting right now. Please try again."
	ThinkingErrorText = "I encountered an error while thinking about your request."
	EmptyResponseText = "The AI returned an empty response."
)

const functionCallFailure = "Failed to call a function"

// stateFn is one phase of a turn. It returns the next phase, or nil when the
// turn's Reply is ready.
type stateFn func(t *turn) stateFn

// turn carries the data of one request/response cycle for a session.
type turn struct {
	k         *Kernel
	ctx       context.Context
	sessionID string

	phase      Phase
	system     protocol.Message
	transcript []protocol.Message
	choice     response.ChoiceMessage
	call       protocol.ToolCall
	result     tools.Result
	records    []ToolCallRecord
	reply      *Reply
}

func (t *turn) run() *Reply {
	observability.Emit(t.ctx, t.k.observer, EventTurnStart, observability.LevelInfo, "kernel.turn", map[string]any{
		"session": t.sessionID,
	})

	for state := stateFn((*turn).draft); state != nil; {
		state = state(t)
	}

	t.reply.records = t.records
	if t.reply.finish == nil && !t.reply.done {
		t.reply.finish = t.k.recordAnswer(t.ctx, t.sessionID)
	}
	return t.reply
}

func (t *turn) enter(p Phase) {
	t.phase = p
	observability.Emit(t.ctx, t.k.observer, EventPhase, observability.LevelVerbose, "kernel.turn", map[string]any{
		"session": t.sessionID,
		"phase":   string(p),
	})
}

func (t *turn) draft() stateFn {
	t.enter(PhaseDraft)

	sess, err := t.k.store.Get(t.sessionID)
	if err != nil {
		t.reply = failedReply(err)
		return nil
	}
	t.transcript = sess.Messages()

	docContext := ""
	if question := lastUserContent(t.transcript); question != "" {
		docContext, err = t.k.indexer.Query(t.ctx, sess.Index(), question, 0)
		if err != nil {
			t.warn("document query failed", err)
			docContext = ""
		}
	}

	t.system = protocol.NewSystemMessage(SystemPrompt(t.k.now(), docContext))
	return (*turn).awaitingModel
}

func (t *turn) awaitingModel() stateFn {
	t.enter(PhaseAwaitingModel)

	resp, err := t.k.agent.Tools(t.ctx, t.messages(), t.k.tools.List())
	if err != nil {
		var se *agent.StatusError
		if errors.As(err, &se) {
			if se.StatusCode == 400 || strings.Contains(se.Message, functionCallFailure) {
				observability.Emit(t.ctx, t.k.observer, EventFallback, observability.LevelInfo, "kernel.turn", map[string]any{
					"session": t.sessionID,
					"status":  se.StatusCode,
					"reason":  se.Message,
				})
				return (*turn).fallbackStream
			}
			t.warn("model request rejected", err)
			return t.answer(UnavailableText)
		}
		t.warn("model request failed", err)
		return t.answer(ThinkingErrorText)
	}

	choice, ok := resp.First()
	if !ok {
		return t.answer(EmptyResponseText)
	}
	t.choice = choice

	if len(choice.ToolCalls) > 0 {
		t.call = choice.ToolCalls[0]
		return (*turn).toolRequested
	}
	return (*turn).directAnswer
}

func (t *turn) directAnswer() stateFn {
	t.enter(PhaseDirectAnswer)
	return t.stream(t.messages())
}

func (t *turn) fallbackStream() stateFn {
	t.enter(PhaseFallbackStream)
	return t.stream(t.messages())
}

func (t *turn) toolRequested() stateFn {
	t.enter(PhaseToolRequested)

	observability.Emit(t.ctx, t.k.observer, EventToolCall, observability.LevelInfo, "kernel.turn", map[string]any{
		"session": t.sessionID,
		"name":    t.call.Name,
	})

	args := json.RawMessage(t.call.Arguments)
	if !json.Valid(args) {
		t.degrade(fmt.Errorf("%w: malformed JSON", tools.ErrInvalidArguments))
		return (*turn).fallbackStream
	}

	ctx := tools.WithSession(t.ctx, t.sessionID)
	result, err := t.k.tools.Execute(ctx, t.call.Name, args)
	if err != nil {
		t.degrade(err)
		return (*turn).fallbackStream
	}
	t.result = result

	t.records = append(t.records, ToolCallRecord{
		Name:      t.call.Name,
		Arguments: t.call.Arguments,
		Result:    result.Content,
		Artifact:  result.Artifact,
		IsError:   result.IsError,
	})
	observability.Emit(t.ctx, t.k.observer, EventToolComplete, observability.LevelInfo, "kernel.turn", map[string]any{
		"session":  t.sessionID,
		"name":     t.call.Name,
		"error":    result.IsError,
		"artifact": result.Artifact,
	})
	return (*turn).toolExecuted
}

func (t *turn) toolExecuted() stateFn {
	t.enter(PhaseToolExecuted)

	if t.result.IsError && t.result.Reply != "" {
		return t.answer(t.result.Reply)
	}

	tool := protocol.NewToolMessage(t.call.ID, t.call.Name, t.result.Content)
	tool.ImagePath = t.result.Artifact
	for _, msg := range []protocol.Message{protocol.NewToolCallMessage(t.choice.Content, t.call), tool} {
		if err := t.k.store.Append(t.sessionID, msg); err != nil {
			t.warn("record tool exchange", err)
			return t.answer(ThinkingErrorText)
		}
		t.transcript = append(t.transcript, msg)
	}

	if t.result.Reply != "" {
		next := t.answer(t.result.Reply)
		t.reply.artifact = t.result.Artifact
		return next
	}
	return (*turn).awaitingFinal
}

func (t *turn) awaitingFinal() stateFn {
	t.enter(PhaseAwaitingFinal)
	return t.stream(t.messages())
}

func (t *turn) done() stateFn {
	t.enter(PhaseDone)
	return nil
}

// stream opens a tool-free streaming request and makes it the turn's Reply.
func (t *turn) stream(msgs []protocol.Message) stateFn {
	s, err := t.k.agent.Stream(t.ctx, msgs)
	if err != nil {
		t.warn("stream request failed", err)
		return t.answer(streamErrorText(err))
	}
	t.reply = newStreamReply(s)
	return (*turn).done
}

// answer makes text the whole Reply.
func (t *turn) answer(text string) stateFn {
	t.reply = newTextReply(text)
	return (*turn).done
}

func (t *turn) messages() []protocol.Message {
	msgs := make([]protocol.Message, 0, len(t.transcript)+1)
	msgs = append(msgs, t.system)
	return append(msgs, t.transcript...)
}

func (t *turn) degrade(err error) {
	t.records = append(t.records, ToolCallRecord{
		Name:      t.call.Name,
		Arguments: t.call.Arguments,
		Result:    err.Error(),
		IsError:   true,
	})
	observability.Emit(t.ctx, t.k.observer, EventFallback, observability.LevelWarning, "kernel.turn", map[string]any{
		"session": t.sessionID,
		"name":    t.call.Name,
		"reason":  err.Error(),
	})
}

func (t *turn) warn(msg string, err error) {
	observability.Emit(t.ctx, t.k.observer, EventError, observability.LevelWarning, "kernel.turn", map[string]any{
		"session": t.sessionID,
		"phase":   string(t.phase),
		"message": msg,
		"error":   err.Error(),
	})
}

func streamErrorText(err error) string {
	var se *agent.StatusError
	if errors.As(err, &se) {
		if se.Message != "" {
			return "⚠️ Error: " + se.Message
		}
		return fmt.Sprintf("⚠️ Connection error (Status %d).", se.StatusCode)
	}
	return StreamFailedText
}

func lastUserContent(msgs []protocol.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == protocol.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
