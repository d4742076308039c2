package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/strand/event"
)

// RoleAssistant is the AG-UI role for model-generated messages.
const RoleAssistant = "assistant"

// Mapper converts chain events to AG-UI events for a single run.
//
// Create a new Mapper for each run using NewMapper. The Mapper is not safe
// for concurrent use - each run's event stream should have its own Mapper.
type Mapper struct {
	threadID string
	runID    string
}

// NewMapper creates a new Mapper for a single run.
// Empty IDs are replaced with generated ones.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(msg string) events.Event {
	if msg == "" {
		msg = "unknown error"
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts a chain event to an AG-UI event. Returns nil for events
// that have no AG-UI equivalent: retry, recovery, routing, and cache events
// are engine-internal.
func (m *Mapper) MapEvent(e event.Event) events.Event {
	switch e.Type {
	// Run lifecycle
	case event.RunStarted:
		return m.RunStarted()
	case event.RunFinished:
		return m.RunFinished()
	case event.RunFailed:
		msg := e.Message
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return m.RunError(msg)

	// Step lifecycle
	case event.StepStarted:
		return events.NewStepStartedEvent(e.Step)
	case event.StepFinished:
		return events.NewStepFinishedEvent(e.Step)
	case event.StepFailed:
		// AG-UI has no step-level error event; the step closes and the
		// run-level RUN_ERROR carries the failure.
		return events.NewStepFinishedEvent(e.Step)

	default:
		return nil
	}
}

// FinalMessage returns the text message events carrying the run's final
// output: start, content, and end, sharing one generated message ID.
func (m *Mapper) FinalMessage(content string) []events.Event {
	id := events.GenerateMessageID()
	return []events.Event{
		events.NewTextMessageStartEvent(id, events.WithRole(RoleAssistant)),
		events.NewTextMessageContentEvent(id, content),
		events.NewTextMessageEndEvent(id),
	}
}

// MapStream converts a chain event channel to an AG-UI event channel,
// dropping events with no AG-UI equivalent. A run_finished event carrying
// final output is expanded into a text message before RUN_FINISHED, so
// clients receive the result as an assistant message. The output channel
// closes when the input channel closes.
func (m *Mapper) MapStream(in <-chan event.Event) <-chan events.Event {
	out := make(chan events.Event)
	go func() {
		defer close(out)
		for e := range in {
			if e.Type == event.RunFinished && e.Message != "" {
				for _, msg := range m.FinalMessage(e.Message) {
					out <- msg
				}
			}
			if mapped := m.MapEvent(e); mapped != nil {
				out <- mapped
			}
		}
	}()
	return out
}
