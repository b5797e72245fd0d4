package engine

import (
	"testing"
	"time"
)

const (
	deployer = Principal("deployer")
	platform = Principal("xkart-platform")
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func testPolicy() Policy {
	return Policy{
		Deployer:          deployer,
		PlatformPrincipal: platform,
		TransferFee:       1,
		TxWindow:          24 * time.Hour,
		PermittedDrift:    2 * time.Minute,
	}
}

func newTestEngine(t *testing.T) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)}
	return New(testPolicy(), WithClock(clock.Now)), clock
}

func mustMint(t *testing.T, e *Engine, to Principal, amount uint64) {
	t.Helper()
	if err := e.Mint(deployer, Account{Owner: to}, amount); err != nil {
		t.Fatalf("mint %d to %s: %v", amount, to, err)
	}
}

// assertConservation checks total supply equals the sum over every account
// ever credited.
func assertConservation(t *testing.T, e *Engine) {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	var sum uint64
	for _, balance := range e.st.Balances {
		sum += balance
	}
	if sum != e.st.Supply {
		t.Fatalf("balances sum to %d, supply is %d", sum, e.st.Supply)
	}
}

func balancesSnapshot(e *Engine) map[Account]uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[Account]uint64, len(e.st.Balances))
	for account, balance := range e.st.Balances {
		out[account] = balance
	}
	return out
}

func assertBalancesEqual(t *testing.T, before, after map[Account]uint64) {
	t.Helper()
	if len(before) != len(after) {
		t.Fatalf("account count changed: %d -> %d", len(before), len(after))
	}
	for account, balance := range before {
		if after[account] != balance {
			t.Fatalf("balance of %v changed: %d -> %d", account, balance, after[account])
		}
	}
}
