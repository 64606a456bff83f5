package monitor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/fleet-client/models"
	"github.com/fleetwatch/fleet-client/monitor"
)

type fakeChannel struct {
	joins       []string
	endRoutes   []string
	disconnects int
	connected   bool

	joinErr     error
	endRouteErr error
}

func (f *fakeChannel) JoinRoom(vehicleNumber string) error {
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joins = append(f.joins, vehicleNumber)
	f.connected = true
	return nil
}

func (f *fakeChannel) EndRoute(vehicleNumber string) error {
	if f.endRouteErr != nil {
		return f.endRouteErr
	}
	f.endRoutes = append(f.endRoutes, vehicleNumber)
	return nil
}

func (f *fakeChannel) Disconnect() {
	f.disconnects++
	f.connected = false
}

func (f *fakeChannel) Connected() bool { return f.connected }

func TestFlowHappyPath(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{}
	flow := monitor.NewFlow(ch)

	assert.Equal(t, monitor.StateIdle, flow.Current())

	require.NoError(t, flow.Start(ctx))
	assert.Equal(t, monitor.StateAwaitingVehicle, flow.Current())

	require.NoError(t, flow.SubmitVehicle(ctx, "KA01AB1234"))
	assert.Equal(t, monitor.StateJoined, flow.Current())
	assert.Equal(t, "KA01AB1234", flow.VehicleNumber())
	assert.True(t, flow.MonitoringStarted())
	assert.Equal(t, []string{"KA01AB1234"}, ch.joins)

	require.NoError(t, flow.OpenCamera(ctx))
	assert.Equal(t, monitor.StateMonitoring, flow.Current())

	require.NoError(t, flow.EndRoute(ctx))
	assert.Equal(t, monitor.StateEnded, flow.Current())
	assert.Equal(t, []string{"KA01AB1234"}, ch.endRoutes)
	// ending the route keeps the channel up
	assert.True(t, ch.connected)

	require.NoError(t, flow.Disconnect(ctx))
	assert.Equal(t, monitor.StateIdle, flow.Current())
	assert.Equal(t, 1, ch.disconnects)
	assert.Empty(t, flow.VehicleNumber())
	assert.False(t, flow.MonitoringStarted())
}

func TestEmptyVehicleNumberStaysOnInput(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{}
	flow := monitor.NewFlow(ch)
	require.NoError(t, flow.Start(ctx))

	err := flow.SubmitVehicle(ctx, "")
	assert.ErrorIs(t, err, models.ErrEmptyVehicleNumber)

	assert.Equal(t, monitor.StateAwaitingVehicle, flow.Current())
	assert.Empty(t, ch.joins)
	assert.Equal(t, models.ErrEmptyVehicleNumber.Error(), flow.LastError())
	assert.Empty(t, flow.VehicleNumber())
}

func TestJoinFailureReturnsToInput(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{joinErr: errors.New("dial refused")}
	flow := monitor.NewFlow(ch)
	require.NoError(t, flow.Start(ctx))

	err := flow.SubmitVehicle(ctx, "KA01AB1234")
	require.Error(t, err)

	assert.Equal(t, monitor.StateAwaitingVehicle, flow.Current())
	assert.Equal(t, "dial refused", flow.LastError())
	assert.False(t, flow.MonitoringStarted())

	// the flow recovers once the channel does
	ch.joinErr = nil
	require.NoError(t, flow.SubmitVehicle(ctx, "KA01AB1234"))
	assert.Equal(t, monitor.StateJoined, flow.Current())
	assert.Empty(t, flow.LastError())
}

func TestSubmitOutOfOrderIsRejected(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{}
	flow := monitor.NewFlow(ch)

	// not started yet; the transition is invalid and nothing hits the channel
	err := flow.SubmitVehicle(ctx, "KA01AB1234")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrEmptyVehicleNumber)
	assert.Equal(t, monitor.StateIdle, flow.Current())
	assert.Empty(t, ch.joins)
}

func TestEndRouteEmissionFailureStillEndsFlow(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{}
	flow := monitor.NewFlow(ch)
	require.NoError(t, flow.Start(ctx))
	require.NoError(t, flow.SubmitVehicle(ctx, "KA01AB1234"))

	ch.endRouteErr = errors.New("transport gone")
	require.NoError(t, flow.EndRoute(ctx))
	assert.Equal(t, monitor.StateEnded, flow.Current())
}

func TestFlowIsReenterable(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{}
	flow := monitor.NewFlow(ch)

	for i := 0; i < 2; i++ {
		require.NoError(t, flow.Start(ctx))
		require.NoError(t, flow.SubmitVehicle(ctx, "KA01AB1234"))
		require.NoError(t, flow.OpenCamera(ctx))
		require.NoError(t, flow.EndRoute(ctx))
		require.NoError(t, flow.Disconnect(ctx))
		assert.Equal(t, monitor.StateIdle, flow.Current())
	}

	assert.Len(t, ch.joins, 2)
	assert.Len(t, ch.endRoutes, 2)
	assert.Equal(t, 2, ch.disconnects)
}
