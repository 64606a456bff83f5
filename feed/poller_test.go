package feed_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/fleet-client/feed"
	"github.com/fleetwatch/fleet-client/models"
)

func TestPollerCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("cadence test runs for several seconds")
	}

	var calls atomic.Int32
	fetch := func(ctx context.Context, vehicleNumber string) ([]models.TruckMessage, error) {
		calls.Add(1)
		return nil, nil
	}

	f := feed.New("KA01AB1234")
	p := feed.NewPoller(f, fetch, time.Second)
	require.NoError(t, p.Start())

	// one fetch at t=0, then ticks at 1s, 2s, 3s
	time.Sleep(3500 * time.Millisecond)
	p.Stop()

	assert.Equal(t, int32(4), calls.Load())
}

func TestPollerErrorRetainsFeedData(t *testing.T) {
	var fail atomic.Bool
	fetch := func(ctx context.Context, vehicleNumber string) ([]models.TruckMessage, error) {
		if fail.Load() {
			return nil, errors.New("backend down")
		}
		return historyBatch(models.Message{ID: "a", Text: "ok", Timestamp: "2026-08-30T10:00:00Z"}), nil
	}

	f := feed.New("KA01AB1234")
	p := feed.NewPoller(f, fetch, time.Minute)
	require.NoError(t, p.Start())
	defer p.Stop()

	require.Len(t, f.Messages(), 1)
	require.Empty(t, f.Err())

	// force the next fetch to fail; data stays, the error surfaces
	fail.Store(true)
	p2 := feed.NewPoller(f, fetch, time.Minute)
	require.NoError(t, p2.Start())
	defer p2.Stop()

	assert.Equal(t, "backend down", f.Err())
	assert.Len(t, f.Messages(), 1)
}
