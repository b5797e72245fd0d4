package engine

import (
	"sync"
	"time"

	"github.com/xkartlabs/xkart-backend/pkg/config"
)

// Principal is the opaque verified caller identity. The identity
// collaborator authenticates it before it reaches the engine.
type Principal string

// Account attaches a balance to a principal plus an optional subaccount.
// Escrow accounts (campaign, race pools) are subaccounts of the platform
// principal.
type Account struct {
	Owner      Principal `json:"owner"`
	Subaccount string    `json:"subaccount,omitempty"`
}

// Policy carries the economic knobs of the engine. It is fixed at
// construction; a restart with different policy applies to state restored
// from a snapshot.
type Policy struct {
	Deployer          Principal
	PlatformPrincipal Principal
	TransferFee       uint64
	TxWindow          time.Duration
	PermittedDrift    time.Duration
	OpenNFTMinting    bool
}

// PolicyFromConfig maps the engine section of the service config.
func PolicyFromConfig(cfg config.EngineConfig) Policy {
	return Policy{
		Deployer:          Principal(cfg.Deployer),
		PlatformPrincipal: Principal(cfg.PlatformPrincipal),
		TransferFee:       cfg.TransferFee,
		TxWindow:          cfg.TxWindow,
		PermittedDrift:    cfg.PermittedDrift,
		OpenNFTMinting:    cfg.OpenNFTMinting,
	}
}

// Observer receives operation telemetry. Calls happen while the engine
// mutex is held, so implementations must not block.
type Observer interface {
	EngineOp(op string, code string, duration time.Duration)
	TotalSupply(supply uint64)
}

// Engine is the serialized economic state machine: one mutex, one state
// aggregate, run-to-completion per public operation. No operation ever
// observes or leaves a partially applied state.
type Engine struct {
	mu       sync.Mutex
	st       *state
	policy   Policy
	observer Observer
	events   []Event
	now      func() time.Time
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithObserver attaches operation telemetry.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine with an empty ledger and the deployer as the sole
// admin.
func New(policy Policy, opts ...Option) *Engine {
	e := &Engine{
		st:     newState(),
		policy: policy,
		now:    time.Now,
	}
	e.st.Admins[policy.Deployer] = struct{}{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// observe records telemetry for a finished operation. Deferred at the top
// of every public mutation so the duration covers the whole critical
// section.
func (e *Engine) observe(op string, start time.Time, err error) {
	if e.observer == nil {
		return
	}
	e.observer.EngineOp(op, errCode(err), time.Since(start))
	e.observer.TotalSupply(e.st.Supply)
}

func (e *Engine) isAdmin(p Principal) bool {
	_, ok := e.st.Admins[p]
	return ok
}

// escrow accounts are platform subaccounts so pooled funds stay inside the
// ledger's conservation invariant.
func (e *Engine) campaignEscrow(id uint64) Account {
	return Account{Owner: e.policy.PlatformPrincipal, Subaccount: campaignSubaccount(id)}
}

func (e *Engine) racePool(id uint64) Account {
	return Account{Owner: e.policy.PlatformPrincipal, Subaccount: raceSubaccount(id)}
}
