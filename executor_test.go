package main

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, devices []DeviceConfig, delay time.Duration) Provider {
	t.Helper()
	p, err := NewCatalogProvider(&Account{Token: "t", Hub: "ibm-q"}, devices,
		CatalogOptions{QueueDelay: delay, Seed: 11}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestExecutorSimulate(t *testing.T) {
	e := NewExecutor(zap.NewNop(), 256, 7)
	assert.Equal(t, 256, e.Shots())

	for _, msg := range validMessages {
		counts, err := e.Simulate(BuildSuperdense(msg))
		require.NoError(t, err)
		assert.Equal(t, Counts{string(msg): 256}, counts)
	}

	c := bareCircuit(1)
	c.AddMeasure(0, 0)
	c.AddGate("X", 0)
	_, err := e.Simulate(c)
	assert.True(t, errors.Is(err, ErrMidCircuitMeasurement), "%v", err)
}

func TestRunRemote(t *testing.T) {
	defer goleak.VerifyNone(t)

	sim := testDevice("sim", 0, 0)
	sim.Simulator = true
	devices := []DeviceConfig{
		sim,
		testDevice("busy", 9, 0),
		testDevice("quiet", 1, 0),
	}
	e := NewExecutor(zap.NewNop(), 128, 7)
	opts := RemoteOptions{MinQubits: 5, OptimizationLevel: 3}

	for _, msg := range validMessages {
		res, err := e.RunRemote(context.Background(), BuildSuperdense(msg), newTestProvider(t, devices, 0), opts)
		require.NoError(t, err)
		assert.Equal(t, "quiet", res.Backend)
		assert.NotEmpty(t, res.JobID)
		assert.Equal(t, Counts{string(msg): 128}, res.Counts)
		for _, g := range res.Transpiled.Gates {
			assert.True(t, deviceTarget.Supports(g.Type), "%s left after transpiling", g.Type)
		}
	}
}

func TestRunRemoteDefaultCatalog(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := DefaultConfig()
	p, err := NewCatalogProvider(&Account{Token: "t", Hub: cfg.Account.Hub}, cfg.Backends,
		CatalogOptions{Seed: 1}, zap.NewNop())
	require.NoError(t, err)

	e := NewExecutor(zap.NewNop(), 1024, 1)
	res, err := e.RunRemote(context.Background(), BuildSuperdense("10"), p, RemoteOptions{MinQubits: 5, OptimizationLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, "emulator_belem", res.Backend)
	assert.Equal(t, 1024, res.Counts.Total())
	assert.Equal(t, "10", res.Counts.MostFrequent(), "readout noise must not hide the message: %v", res.Counts)
}

func TestRunRemoteErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := NewExecutor(zap.NewNop(), 16, 7)
	c := BuildSuperdense("01")

	tiny := testDevice("tiny", 0, 0)
	tiny.NumQubits = 1
	_, err := e.RunRemote(context.Background(), c, newTestProvider(t, []DeviceConfig{tiny}, 0), RemoteOptions{MinQubits: 5})
	assert.True(t, errors.Is(err, ErrNoEligibleBackend), "%v", err)

	noSX := testDevice("nosx", 0, 0)
	noSX.BasisGates = []string{"rz", "x", "cx"}
	_, err = e.RunRemote(context.Background(), c, newTestProvider(t, []DeviceConfig{noSX}, 0), RemoteOptions{MinQubits: 5})
	assert.True(t, errors.Is(err, ErrUntranslatableGate), "%v", err)
	assert.Contains(t, err.Error(), "transpile for nosx")

	// the job waits an hour behind the queue, the timeout cancels it
	slow := newTestProvider(t, []DeviceConfig{testDevice("slow", 1, 0)}, time.Hour)
	_, err = e.RunRemote(context.Background(), c, slow, RemoteOptions{MinQubits: 5, Timeout: 20 * time.Millisecond})
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.RunRemote(ctx, c, newTestProvider(t, []DeviceConfig{testDevice("dev", 0, 0)}, 0), RemoteOptions{MinQubits: 5})
	assert.True(t, errors.Is(err, context.Canceled), "%v", err)
}
