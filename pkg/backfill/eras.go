// Package backfill implements the incremental reconstruction of derived
// state tables from the raw per-transaction event tables: resolving the safe
// block range for a target table, merging heterogeneous event streams into
// point-in-time state per entity, and driving that merge in fixed-size
// idempotent chunks.
package backfill

// Eras carries the activation blocks at which event-interpretation rules
// change. They are injected at registry construction rather than read from
// globals so tests can substitute small fixture boundaries.
type Eras struct {
	// SelfDestructRestriction is the first block at which SELFDESTRUCT only
	// removes accounts created within the same transaction (EIP-6780,
	// Dencun).
	SelfDestructRestriction uint64

	// EmptyAccountClearing is the first block at which touched empty
	// accounts are no longer persisted (EIP-161, Spurious Dragon).
	EmptyAccountClearing uint64
}

// MainnetEras returns the Ethereum mainnet activation blocks.
func MainnetEras() Eras {
	return Eras{
		SelfDestructRestriction: 19426587,
		EmptyAccountClearing:    2675000,
	}
}

// AliveAfterDestruct reports whether an account survives a self-destruct
// observed at block. Before the restriction boundary a self-destruct always
// removes the account. At or after it, the account is removed only when it
// was created in the same transaction; otherwise it is cleared but kept.
func (e Eras) AliveAfterDestruct(block uint64, sameTx bool) bool {
	if block < e.SelfDestructRestriction {
		return false
	}
	return !sameTx
}
