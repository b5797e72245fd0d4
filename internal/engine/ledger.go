package engine

import (
	"math"
	"time"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
)

// MaxMemoBytes bounds transfer memos; anything longer is rejected before
// it can bloat the dedup index.
const MaxMemoBytes = 32

// TransferArgs are the caller-supplied arguments of a public transfer.
// Fee nil means "charge the configured fee". CreatedAtTime nil opts out of
// replay protection; when set it must fall inside the acceptance window
// and makes the transfer deduplicable.
type TransferArgs struct {
	FromSubaccount string
	To             Account
	Amount         uint64
	Fee            *uint64
	Memo           []byte
	CreatedAtTime  *time.Time
}

// Mint credits newly created tokens to an account and grows the total
// supply. Admin only.
func (e *Engine) Mint(caller Principal, to Account, amount uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("mint", start, err) }(e.now())

	if !e.isAdmin(caller) {
		return errUnauthorized("minting requires admin")
	}
	if amount == 0 {
		return errValidation("amount must be positive")
	}
	if to.Owner == "" {
		return errValidation("recipient required")
	}
	if e.st.Balances[to] > math.MaxUint64-amount || e.st.Supply > math.MaxUint64-amount {
		return errOverflow()
	}

	e.st.Balances[to] += amount
	e.st.Supply += amount
	e.st.TxIndex++

	e.appendEvent(enums.AggregateLedger, accountEventID(to), enums.EventTokensMinted, e.now(), map[string]any{
		"to":       to.Owner,
		"amount":   amount,
		"tx_index": e.st.TxIndex,
	})
	return nil
}

// Transfer moves amount from the caller's account to args.To, burning the
// fee out of the total supply. On success it returns the monotonic index
// of the applied transaction, which doubles as the duplicate key.
func (e *Engine) Transfer(caller Principal, args TransferArgs) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	defer func(start time.Time) { e.observe("transfer", start, err) }(e.now())

	var idx uint64
	idx, err = e.transferLocked(caller, args)
	return idx, err
}

func (e *Engine) transferLocked(caller Principal, args TransferArgs) (uint64, error) {
	if caller == "" {
		return 0, errUnauthorized("caller required")
	}
	if args.To.Owner == "" {
		return 0, errValidation("recipient required")
	}
	if args.Amount == 0 {
		return 0, errValidation("amount must be positive")
	}
	if len(args.Memo) > MaxMemoBytes {
		return 0, errValidation("memo exceeds 32 bytes")
	}

	fee := e.policy.TransferFee
	if args.Fee != nil && *args.Fee != fee {
		return 0, errBadFee(fee)
	}

	now := e.now()
	from := Account{Owner: caller, Subaccount: args.FromSubaccount}

	var key dedupKey
	if args.CreatedAtTime != nil {
		created := *args.CreatedAtTime
		if created.Before(now.Add(-e.policy.TxWindow)) {
			return 0, errTooOld()
		}
		if created.After(now.Add(e.policy.PermittedDrift)) {
			return 0, errCreatedInFuture(now)
		}
		e.pruneDedup(now)
		key = dedupKey{
			From:      from,
			To:        args.To,
			Amount:    args.Amount,
			Fee:       fee,
			Memo:      string(args.Memo),
			CreatedAt: created.UnixNano(),
		}
		if prior, ok := e.st.recentTransfers[key]; ok {
			return 0, errDuplicate(prior.TxIndex)
		}
	}

	if args.Amount > math.MaxUint64-fee {
		return 0, errOverflow()
	}
	total := args.Amount + fee
	balance := e.st.Balances[from]
	if balance < total {
		return 0, errInsufficientFunds(balance)
	}
	if from != args.To && e.st.Balances[args.To] > math.MaxUint64-args.Amount {
		return 0, errOverflow()
	}

	e.st.Balances[from] = balance - total
	e.st.Balances[args.To] += args.Amount
	// The fee is burned, not credited anywhere: supply shrinks in the
	// same step so conservation holds at every instant.
	e.st.Supply -= fee
	e.st.TxIndex++
	idx := e.st.TxIndex

	if args.CreatedAtTime != nil {
		e.st.recentTransfers[key] = dedupEntry{TxIndex: idx, CreatedAt: *args.CreatedAtTime}
	}

	e.appendEvent(enums.AggregateLedger, accountEventID(from), enums.EventTokensTransferred, now, map[string]any{
		"from":     caller,
		"to":       args.To.Owner,
		"amount":   args.Amount,
		"fee":      fee,
		"tx_index": idx,
	})
	return idx, nil
}

// BalanceOf reports an account balance. Accounts never touched read as
// zero.
func (e *Engine) BalanceOf(account Account) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Balances[account]
}

// TotalSupply reports the sum of every balance plus nothing else: fees
// leave the supply the moment they burn.
func (e *Engine) TotalSupply() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Supply
}

// TxIndex reports the index of the last applied transaction.
func (e *Engine) TxIndex() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.TxIndex
}

// TransferFee reports the configured fee so clients can supply it
// explicitly.
func (e *Engine) TransferFee() uint64 {
	return e.policy.TransferFee
}

// debitThenCredit is the single internal movement primitive. Every escrow
// and payout in campaigns, races and the marketplace goes through here, so
// "no negative balance, no value leak" has exactly one enforcement point.
// No fee, no burn; each movement still consumes a transaction index.
func (e *Engine) debitThenCredit(from, to Account, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance := e.st.Balances[from]
	if balance < amount {
		return errInsufficientFunds(balance)
	}
	if from != to && e.st.Balances[to] > math.MaxUint64-amount {
		return errOverflow()
	}
	e.st.Balances[from] = balance - amount
	e.st.Balances[to] += amount
	e.st.TxIndex++
	return nil
}

// pruneDedup evicts replay-protection entries that have aged out of the
// acceptance window, keeping the index bounded.
func (e *Engine) pruneDedup(now time.Time) {
	cutoff := now.Add(-e.policy.TxWindow)
	for key, entry := range e.st.recentTransfers {
		if entry.CreatedAt.Before(cutoff) {
			delete(e.st.recentTransfers, key)
		}
	}
}

func accountEventID(a Account) string {
	if a.Subaccount == "" {
		return string(a.Owner)
	}
	return string(a.Owner) + "/" + a.Subaccount
}
