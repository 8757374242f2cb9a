package main

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNoEligibleBackend = errors.New("no eligible backend")

// BackendConfiguration is the static description of a backend.
type BackendConfiguration struct {
	Name       string
	NumQubits  int
	Simulator  bool
	BasisGates []string
	MaxShots   int
}

// BackendStatus is the live state of a backend.
type BackendStatus struct {
	Operational bool
	PendingJobs int
	Message     string
}

// Backend executes OpenQASM 2.0 programs.
type Backend interface {
	Name() string
	Configuration() BackendConfiguration

	// Status queries the backend's queue.
	Status(ctx context.Context) (BackendStatus, error)

	// Run submits a program and returns without waiting for it to finish.
	Run(ctx context.Context, qasm string, shots int) (*Job, error)
}

// BackendFilter decides whether a backend is eligible.
type BackendFilter func(cfg BackendConfiguration, status BackendStatus) bool

// MinQubits accepts backends with at least n qubits.
func MinQubits(n int) BackendFilter {
	return func(cfg BackendConfiguration, _ BackendStatus) bool {
		return cfg.NumQubits >= n
	}
}

// NotSimulator rejects simulators.
func NotSimulator() BackendFilter {
	return func(cfg BackendConfiguration, _ BackendStatus) bool {
		return !cfg.Simulator
	}
}

// Operational accepts backends currently taking jobs.
func Operational() BackendFilter {
	return func(_ BackendConfiguration, status BackendStatus) bool {
		return status.Operational
	}
}

// RemoteFilters are the eligibility rules for running the protocol on a
// device.
func RemoteFilters(minQubits int) []BackendFilter {
	return []BackendFilter{MinQubits(minQubits), NotSimulator(), Operational()}
}

// Eligible reports whether every filter accepts the backend.
func Eligible(cfg BackendConfiguration, status BackendStatus, filters ...BackendFilter) bool {
	for _, f := range filters {
		if !f(cfg, status) {
			return false
		}
	}
	return true
}

// LeastBusy returns the eligible backend with the fewest pending jobs. Ties go
// to the backend listed first. A backend whose status cannot be read is not
// eligible.
func LeastBusy(ctx context.Context, backends []Backend, filters ...BackendFilter) (Backend, error) {
	var (
		best        Backend
		bestPending int
	)
	for _, b := range backends {
		status, err := b.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "backend status")
			}
			continue
		}
		if !Eligible(b.Configuration(), status, filters...) {
			continue
		}
		if best == nil || status.PendingJobs < bestPending {
			best, bestPending = b, status.PendingJobs
		}
	}
	if best == nil {
		return nil, errors.Wrapf(ErrNoEligibleBackend, "%d backends checked", len(backends))
	}
	return best, nil
}
