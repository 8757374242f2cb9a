package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Executor runs circuits locally and on remote backends.
type Executor struct {
	logger *zap.Logger
	shots  int
	rng    *rand.Rand
}

// NewExecutor returns an executor taking shots samples per run. A zero seed
// seeds from the runtime.
func NewExecutor(logger *zap.Logger, shots int, seed uint64) *Executor {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Executor{
		logger: logger,
		shots:  shots,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// Shots returns the number of samples per run.
func (e *Executor) Shots() int { return e.shots }

// Simulate samples the circuit on the noiseless local simulator.
func (e *Executor) Simulate(c *Circuit) (Counts, error) {
	start := time.Now()
	counts, err := Sample(c, e.shots, e.rng)
	if err != nil {
		return nil, errors.Wrap(err, "simulate")
	}
	e.logger.Debug("simulation done",
		zap.Int("qubits", c.NumQubits),
		zap.Int("gates", len(c.Gates)),
		zap.Int("shots", e.shots),
		zap.Duration("elapsed", time.Since(start)),
		zap.Stringer("counts", counts))
	return counts, nil
}

// RemoteOptions controls backend selection and transpilation.
type RemoteOptions struct {
	MinQubits         int
	OptimizationLevel int
	Timeout           time.Duration // zero waits until the job finishes
}

// RemoteResult is the outcome of a remote run.
type RemoteResult struct {
	Backend    string
	Transpiled *Circuit
	JobID      string
	Counts     Counts
}

// RunRemote selects the least busy eligible backend, transpiles the circuit
// for it, submits it and blocks until the job finishes.
func (e *Executor) RunRemote(ctx context.Context, c *Circuit, provider Provider, opts RemoteOptions) (*RemoteResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	backends, err := provider.Backends(ctx)
	if err != nil {
		return nil, err
	}
	backend, err := LeastBusy(ctx, backends, RemoteFilters(opts.MinQubits)...)
	if err != nil {
		return nil, err
	}
	e.logger.Info("least busy backend", zap.String("backend", backend.Name()))

	transpiled, err := Transpile(c, TargetFor(backend.Configuration()), opts.OptimizationLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "transpile for %s", backend.Name())
	}
	e.logger.Debug("transpiled",
		zap.Int("level", opts.OptimizationLevel),
		zap.Int("gates", len(transpiled.Gates)),
		zap.Int("depth", FromCircuit(transpiled).Depth()))

	job, err := backend.Run(ctx, transpiled.ToQASM(), e.shots)
	if err != nil {
		return nil, err
	}
	e.logger.Info("job submitted", zap.String("job", job.ID), zap.String("backend", backend.Name()))

	counts, err := job.Result(ctx)
	if err != nil {
		job.Cancel()
		return nil, err
	}
	e.logger.Info("job finished", zap.String("job", job.ID), zap.Stringer("counts", counts))

	return &RemoteResult{
		Backend:    backend.Name(),
		Transpiled: transpiled,
		JobID:      job.ID,
		Counts:     counts,
	}, nil
}
