package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/qmuntal/stateless"

	"github.com/syncoria/assistant-go/internal/gateway"
	"github.com/syncoria/assistant-go/internal/logger"
)

// FSM states of one in-flight query stream.
type FSMState stateless.State

var (
	StateAwaitingFirstEvent FSMState = "AwaitingFirstEvent"
	StateStreaming          FSMState = "Streaming"
	StateComplete           FSMState = "Complete" // Terminal: stream read to end-of-input
	StateFailed             FSMState = "Failed"   // Terminal: transport error mid-stream
)

// FSM triggers.
type FSMTrigger stateless.Trigger

var (
	TriggerFrame          FSMTrigger = "Frame"
	TriggerStreamEnded    FSMTrigger = "StreamEnded"
	TriggerTransportError FSMTrigger = "TransportError"
)

// FallbackAnalysis is the result text when the stream ends without a
// "complete" event or the request fails outright.
const FallbackAnalysis = "Sorry, I encountered an error connecting to the API."

// defaultStatus replaces a status event that carries no message.
const defaultStatus = "Processing..."

// Snapshot is the transient progress view of an in-flight query, fed to the
// presentation layer per frame. It is display state, never persisted.
type Snapshot struct {
	EventType string
	Payload   json.RawMessage
	Status    string
}

// Reconciler consumes the event stream of one submitted query and collapses
// it into a single authoritative result. Frames are processed in arrival
// order; the latest "complete" payload is authoritative, any other frame
// after it only updates the ephemeral snapshot.
type Reconciler struct {
	fsm    *stateless.StateMachine
	parser Parser

	status    string
	last      *Frame
	final     gateway.AssistantResult
	haveFinal bool

	progress func(Snapshot)
}

// NewReconciler creates a reconciler. progress may be nil.
func NewReconciler(progress func(Snapshot)) *Reconciler {
	r := &Reconciler{
		status:   "Waiting for response...",
		progress: progress,
	}

	fsm := stateless.NewStateMachine(StateAwaitingFirstEvent)
	fsm.Configure(StateAwaitingFirstEvent).
		Permit(TriggerFrame, StateStreaming).
		Permit(TriggerStreamEnded, StateComplete).
		Permit(TriggerTransportError, StateFailed)
	fsm.Configure(StateStreaming).
		PermitReentry(TriggerFrame).
		Permit(TriggerStreamEnded, StateComplete).
		Permit(TriggerTransportError, StateFailed)
	fsm.Configure(StateComplete)
	fsm.Configure(StateFailed)
	r.fsm = fsm
	return r
}

// Run reads the stream until end-of-input. A "complete" event does not stop
// the read; the server may send trailing frames. The returned error is the
// transport error, if any; reconciliation state is inspected via Result.
func (r *Reconciler) Run(ctx context.Context, rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			r.fire(TriggerTransportError)
			return err
		}
		frame, ok := r.parser.Line(scanner.Text())
		if !ok {
			continue
		}
		if !r.apply(frame) {
			continue
		}
		r.fire(TriggerFrame)
	}
	if err := scanner.Err(); err != nil {
		r.fire(TriggerTransportError)
		return err
	}
	r.fire(TriggerStreamEnded)
	return nil
}

// apply performs the per-frame side effects. A data line that is not valid
// JSON is skipped entirely: state unchanged, never fatal.
func (r *Reconciler) apply(frame Frame) bool {
	var payload map[string]any
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		logger.L.Debug("skipping malformed stream frame", "event_type", frame.Type, "error", err)
		return false
	}

	r.last = &frame

	switch frame.Type {
	case "status":
		msg, _ := payload["message"].(string)
		if msg == "" {
			msg = defaultStatus
		}
		r.status = msg
	case "complete":
		var res gateway.AssistantResult
		if err := json.Unmarshal(frame.Data, &res); err != nil {
			logger.L.Warn("complete event payload did not decode", "error", err)
		} else {
			r.final = res
			r.haveFinal = true
		}
	}

	if r.progress != nil {
		r.progress(Snapshot{EventType: frame.Type, Payload: frame.Data, Status: r.status})
	}
	return true
}

func (r *Reconciler) fire(trigger FSMTrigger) {
	if err := r.fsm.Fire(trigger); err != nil {
		logger.L.Warn("reconciler fsm fire error", "trigger", trigger, "error", err)
	}
}

// Result returns the authoritative final result. Without a "complete" event
// it defaults to the fallback error analysis.
func (r *Reconciler) Result() gateway.AssistantResult {
	if !r.haveFinal {
		return gateway.AssistantResult{Analysis: FallbackAnalysis}
	}
	return r.final
}

// State returns the current FSM state, for inspection in tests.
func (r *Reconciler) State() FSMState {
	return FSMState(r.fsm.MustState())
}

// LastFrame returns the most recent frame of any type, or nil.
func (r *Reconciler) LastFrame() *Frame { return r.last }

// Status returns the current ephemeral status text.
func (r *Reconciler) Status() string { return r.status }
