// Package agui provides utilities for integrating chain runs with the AG-UI
// protocol.
//
// AG-UI (Agent-User Interface) is an open, lightweight, event-based protocol
// that standardizes how AI agents connect to user-facing applications. This
// package converts chain events to AG-UI events so runs can stream to
// AG-UI-compatible frontends.
//
// The package does NOT provide HTTP handlers or transport implementations.
// Servers are responsible for writing the events using the AG-UI SDK's SSE
// writer or their preferred transport (see cmd/serve for an SSE example).
//
// # Usage
//
// Create a Mapper for each run and bridge the runner's event channel:
//
//	mapper := agui.NewMapper(threadID, runID)
//
//	ch := event.NewChannel()
//	go func() {
//		defer close(ch)
//		runner.Run(ctx, spec, input, chain.WithEvents(ch))
//	}()
//
//	for aguiEvent := range mapper.MapStream(ch) {
//		writeEvent(aguiEvent)
//	}
//
// # Event Mapping
//
//   - run_started → RUN_STARTED
//   - run_finished → RUN_FINISHED
//   - run_failed → RUN_ERROR
//   - step_started → STEP_STARTED
//   - step_finished, step_failed → STEP_FINISHED
//
// When run_finished carries the run's final output, MapStream emits it as a
// TEXT_MESSAGE_START / TEXT_MESSAGE_CONTENT / TEXT_MESSAGE_END triple before
// RUN_FINISHED, so the client sees the result as an assistant message.
//
// Retry, recovery, routing, and cache events are engine-internal and are not
// forwarded.
package agui
