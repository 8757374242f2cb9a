package main

import (
	"context"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// tokenEnv overrides the configured account token.
const tokenEnv = "SUPERDENSE_TOKEN"

const defaultMaxShots = 8192

var (
	ErrNoAccount          = errors.New("no account credentials")
	ErrBackendUnavailable = errors.New("backend is not operational")
	ErrInvalidShots       = errors.New("invalid shot count")
	ErrJobCancelled       = errors.New("job cancelled")
)

// Account holds the credentials used to reach a provider.
type Account struct {
	Token string
	Hub   string
}

// LoadAccount builds an account from config. The token may come from the
// environment instead.
func LoadAccount(cfg AccountConfig) (*Account, error) {
	token := cfg.Token
	if env := os.Getenv(tokenEnv); env != "" {
		token = env
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.Wrapf(ErrNoAccount, "set account.token or %s", tokenEnv)
	}
	return &Account{Token: token, Hub: cfg.Hub}, nil
}

// Provider lists the backends an account can use.
type Provider interface {
	Backends(ctx context.Context) ([]Backend, error)
}

// CatalogOptions tune the emulated devices.
type CatalogOptions struct {
	QueueDelay time.Duration // wait per job already queued ahead
	Seed       uint64        // 0 seeds from the runtime
}

// CatalogProvider serves emulated devices from a fixed catalog.
type CatalogProvider struct {
	account *Account
	devices []*EmulatedDevice
	logger  *zap.Logger
}

// NewCatalogProvider exposes the devices in the account's hub. A device or
// account without a hub is visible everywhere.
func NewCatalogProvider(account *Account, devices []DeviceConfig, opts CatalogOptions, logger *zap.Logger) (*CatalogProvider, error) {
	if account == nil {
		return nil, errors.Wrap(ErrNoAccount, "catalog provider")
	}
	p := &CatalogProvider{account: account, logger: logger}
	for i, cfg := range devices {
		if account.Hub != "" && cfg.Hub != "" && cfg.Hub != account.Hub {
			continue
		}
		seed := opts.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		p.devices = append(p.devices, &EmulatedDevice{
			cfg:        cfg,
			queueDelay: opts.QueueDelay,
			logger:     logger.With(zap.String("backend", cfg.Name)),
			rng:        rand.New(rand.NewPCG(seed, uint64(i))),
		})
	}
	logger.Debug("catalog loaded", zap.Int("devices", len(p.devices)), zap.String("hub", account.Hub))
	return p, nil
}

func (p *CatalogProvider) Backends(ctx context.Context) ([]Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "list backends")
	}
	backends := make([]Backend, len(p.devices))
	for i, d := range p.devices {
		backends[i] = d
	}
	return backends, nil
}

// EmulatedDevice runs submitted programs on the local simulator after a
// queue delay, flipping each measured bit with the device's readout error.
type EmulatedDevice struct {
	cfg        DeviceConfig
	queueDelay time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	inflight int
}

func (d *EmulatedDevice) Name() string { return d.cfg.Name }

func (d *EmulatedDevice) Configuration() BackendConfiguration {
	maxShots := d.cfg.MaxShots
	if maxShots <= 0 {
		maxShots = defaultMaxShots
	}
	return BackendConfiguration{
		Name:       d.cfg.Name,
		NumQubits:  d.cfg.NumQubits,
		Simulator:  d.cfg.Simulator,
		BasisGates: d.cfg.BasisGates,
		MaxShots:   maxShots,
	}
}

func (d *EmulatedDevice) Status(ctx context.Context) (BackendStatus, error) {
	if err := ctx.Err(); err != nil {
		return BackendStatus{}, errors.Wrapf(err, "status of %s", d.cfg.Name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	msg := "active"
	if !d.cfg.Operational {
		msg = "maintenance"
	}
	return BackendStatus{
		Operational: d.cfg.Operational,
		PendingJobs: d.cfg.PendingJobs + d.inflight,
		Message:     msg,
	}, nil
}

// Run validates the program against the device and queues it. The job is
// cancelled when ctx is.
func (d *EmulatedDevice) Run(ctx context.Context, qasm string, shots int) (*Job, error) {
	cfg := d.Configuration()
	if !d.cfg.Operational {
		return nil, errors.Wrap(ErrBackendUnavailable, cfg.Name)
	}
	if shots <= 0 || shots > cfg.MaxShots {
		return nil, errors.Wrapf(ErrInvalidShots, "%d not in [1, %d]", shots, cfg.MaxShots)
	}

	circuit, err := ParseQASM(qasm)
	if err != nil {
		return nil, errors.Wrapf(err, "submit to %s", cfg.Name)
	}
	if circuit.NumQubits > cfg.NumQubits {
		return nil, errors.Wrapf(ErrTooManyQubits, "%d qubits on %s", circuit.NumQubits, cfg.Name)
	}
	target := TargetFor(cfg)
	for _, g := range circuit.Gates {
		if !target.Supports(g.Type) {
			return nil, errors.Wrapf(ErrUntranslatableGate, "%s is not native to %s", strings.ToLower(g.Type), cfg.Name)
		}
	}

	d.mu.Lock()
	ahead := d.cfg.PendingJobs + d.inflight
	d.inflight++
	d.mu.Unlock()

	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:      uuid.NewString(),
		Backend: cfg.Name,
		status:  JobQueued,
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	d.logger.Debug("job queued", zap.String("job", job.ID), zap.Int("ahead", ahead), zap.Int("shots", shots))

	go d.execute(jobCtx, job, circuit, shots, time.Duration(ahead)*d.queueDelay)
	return job, nil
}

func (d *EmulatedDevice) execute(ctx context.Context, job *Job, circuit *Circuit, shots int, wait time.Duration) {
	defer job.cancel()
	defer func() {
		d.mu.Lock()
		d.inflight--
		d.mu.Unlock()
	}()

	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
		timer.Stop()
		d.logger.Debug("job cancelled", zap.String("job", job.ID))
		job.finish(JobCancelled, nil, errors.Wrapf(ErrJobCancelled, "job %s: %v", job.ID, ctx.Err()))
		return
	case <-timer.C:
	}

	job.setStatus(JobRunning)
	counts, err := d.sample(circuit, shots)
	if err != nil {
		job.finish(JobError, nil, errors.Wrapf(err, "job %s", job.ID))
		return
	}
	d.logger.Debug("job done", zap.String("job", job.ID), zap.Stringer("counts", counts))
	job.finish(JobDone, counts, nil)
}

// sample draws noiseless shots and then flips each bit with probability
// readout_error.
func (d *EmulatedDevice) sample(circuit *Circuit, shots int) (Counts, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ideal, err := Sample(circuit, shots, d.rng)
	if err != nil {
		return nil, err
	}
	p := d.cfg.ReadoutError
	if p <= 0 {
		return ideal, nil
	}

	noisy := make(Counts)
	for _, outcome := range ideal.Keys() {
		for range ideal[outcome] {
			bits := []byte(outcome)
			for b := range bits {
				if d.rng.Float64() < p {
					bits[b] ^= '0' ^ '1'
				}
			}
			noisy[string(bits)]++
		}
	}
	return noisy, nil
}

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobDone      JobStatus = "DONE"
	JobError     JobStatus = "ERROR"
	JobCancelled JobStatus = "CANCELLED"
)

// Final reports whether the job can no longer change state.
func (s JobStatus) Final() bool {
	return s == JobDone || s == JobError || s == JobCancelled
}

// Job is a program submitted to a backend.
type Job struct {
	ID      string
	Backend string

	mu     sync.Mutex
	status JobStatus
	counts Counts
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Cancel stops the job if it has not started running.
func (j *Job) Cancel() {
	j.cancel()
}

// Result blocks until the job finishes or ctx is done.
func (j *Job) Result(ctx context.Context) (Counts, error) {
	select {
	case <-j.done:
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.counts, j.err
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "waiting for job %s", j.ID)
	}
}

func (j *Job) setStatus(s JobStatus) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *Job) finish(s JobStatus, counts Counts, err error) {
	j.mu.Lock()
	j.status, j.counts, j.err = s, counts, err
	j.mu.Unlock()
	close(j.done)
}
