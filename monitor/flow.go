// Package monitor drives the driver-side monitoring flow: pick a vehicle,
// bring the realtime channel up, hand off to the camera screen, and wind the
// route down. The flow is a finite state machine; it is cyclic and
// re-enterable, with idle both the initial and the terminal state.
package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-client/models"
)

// States of the monitoring flow.
const (
	StateIdle            = "idle"
	StateAwaitingVehicle = "awaiting_vehicle"
	StateConnecting      = "connecting"
	StateJoined          = "joined"
	StateMonitoring      = "monitoring"
	StateEnded           = "ended"
)

// Events driving the flow.
const (
	// EventStart begins the flow, prompting for a vehicle number.
	EventStart = "event_start"
	// EventSubmitVehicle submits the entered vehicle number.
	EventSubmitVehicle = "event_submit_vehicle"
	// EventJoinSucceeded fires once the channel is connected and joined.
	EventJoinSucceeded = "event_join_succeeded"
	// EventJoinFailed returns to the input prompt after a failed join.
	EventJoinFailed = "event_join_failed"
	// EventOpenCamera moves to the camera screen.
	EventOpenCamera = "event_open_camera"
	// EventEndRoute ends the route but keeps the channel connected.
	EventEndRoute = "event_end_route"
	// EventDisconnect tears everything down back to idle.
	EventDisconnect = "event_disconnect"
)

// Channel is the slice of the realtime client the flow needs.
type Channel interface {
	JoinRoom(vehicleNumber string) error
	EndRoute(vehicleNumber string) error
	Disconnect()
	Connected() bool
}

// Flow is the driver monitoring state machine.
type Flow struct {
	fsm     *fsm.FSM
	channel Channel

	mu                sync.Mutex
	vehicleNumber     string
	monitoringStarted bool
	lastError         string
}

// NewFlow creates the flow in the idle state
func NewFlow(channel Channel) *Flow {
	f := &Flow{channel: channel}

	events := fsm.Events{
		{Name: EventStart, Src: []string{StateIdle, StateEnded}, Dst: StateAwaitingVehicle},
		{Name: EventSubmitVehicle, Src: []string{StateAwaitingVehicle}, Dst: StateConnecting},
		{Name: EventJoinSucceeded, Src: []string{StateConnecting}, Dst: StateJoined},
		{Name: EventJoinFailed, Src: []string{StateConnecting}, Dst: StateAwaitingVehicle},
		{Name: EventOpenCamera, Src: []string{StateJoined}, Dst: StateMonitoring},
		{Name: EventEndRoute, Src: []string{StateAwaitingVehicle, StateConnecting, StateJoined, StateMonitoring}, Dst: StateEnded},
		{Name: EventDisconnect, Src: []string{StateAwaitingVehicle, StateConnecting, StateJoined, StateMonitoring, StateEnded}, Dst: StateIdle},
	}

	callbacks := fsm.Callbacks{
		// Guard: an empty vehicle number never leaves the input state and
		// never reaches the network.
		"before_" + EventSubmitVehicle: wrapEvent(f.guardVehicleNumber),

		"enter_" + StateJoined: wrapEvent(f.actionEnterJoined),
		"enter_" + StateIdle:   wrapEvent(f.actionEnterIdle),
	}

	f.fsm = fsm.NewFSM(StateIdle, events, callbacks)
	return f
}

// wrapEvent adapts an error-returning callback onto the fsm callback shape.
func wrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

func (f *Flow) guardVehicleNumber(_ context.Context, e *fsm.Event) error {
	vehicle, _ := e.Args[0].(string)
	if vehicle == "" {
		e.Cancel(models.ErrEmptyVehicleNumber)
	}
	return nil
}

func (f *Flow) actionEnterJoined(_ context.Context, e *fsm.Event) error {
	f.mu.Lock()
	f.monitoringStarted = true
	f.lastError = ""
	f.mu.Unlock()
	return nil
}

func (f *Flow) actionEnterIdle(_ context.Context, e *fsm.Event) error {
	f.mu.Lock()
	f.vehicleNumber = ""
	f.monitoringStarted = false
	f.mu.Unlock()
	return nil
}

// Start begins the flow, prompting for a vehicle number
func (f *Flow) Start(ctx context.Context) error {
	return f.fsm.Event(ctx, EventStart)
}

// SubmitVehicle validates the vehicle number and brings the channel up. An
// empty number keeps the flow in the input state with a local message; a
// join failure returns there with the cause surfaced.
func (f *Flow) SubmitVehicle(ctx context.Context, vehicleNumber string) error {
	if err := f.fsm.Event(ctx, EventSubmitVehicle, vehicleNumber); err != nil {
		var canceled fsm.CanceledError
		if errors.As(err, &canceled) {
			f.setError(models.ErrEmptyVehicleNumber.Error())
			return models.ErrEmptyVehicleNumber
		}
		return err
	}

	f.mu.Lock()
	f.vehicleNumber = vehicleNumber
	f.mu.Unlock()

	// JoinRoom connects first if the transport is down and emits the join
	// only after the handshake, so one call covers both steps.
	if err := f.channel.JoinRoom(vehicleNumber); err != nil {
		f.setError(err.Error())
		if ferr := f.fsm.Event(ctx, EventJoinFailed); ferr != nil {
			zap.S().Errorw("monitoring flow stuck after join failure", "error", ferr)
		}
		return err
	}
	return f.fsm.Event(ctx, EventJoinSucceeded)
}

// OpenCamera moves to the camera screen. The camera view does not depend on
// channel state; this transition succeeds whether or not the transport is up.
func (f *Flow) OpenCamera(ctx context.Context) error {
	return f.fsm.Event(ctx, EventOpenCamera)
}

// EndRoute signals end-of-route on the channel and ends the flow. The
// transport stays connected.
func (f *Flow) EndRoute(ctx context.Context) error {
	f.mu.Lock()
	vehicle := f.vehicleNumber
	f.mu.Unlock()

	if vehicle != "" {
		if err := f.channel.EndRoute(vehicle); err != nil {
			// fire-and-forget intent; the flow still ends
			zap.S().Warnw("endRoute emission failed", "vehicle", vehicle, "error", err)
		}
	}
	return f.fsm.Event(ctx, EventEndRoute)
}

// Disconnect tears the channel down and returns the flow to idle, clearing
// the vehicle number.
func (f *Flow) Disconnect(ctx context.Context) error {
	f.channel.Disconnect()
	return f.fsm.Event(ctx, EventDisconnect)
}

// Current returns the flow's current state
func (f *Flow) Current() string { return f.fsm.Current() }

// VehicleNumber returns the vehicle being monitored, empty when idle
func (f *Flow) VehicleNumber() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vehicleNumber
}

// MonitoringStarted reports whether the channel join completed
func (f *Flow) MonitoringStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monitoringStarted
}

// LastError returns the most recent locally surfaced failure message
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastError
}

func (f *Flow) setError(msg string) {
	f.mu.Lock()
	f.lastError = msg
	f.mu.Unlock()
}
