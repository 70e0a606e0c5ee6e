package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// allAddressEvents renders the union of every event category that touches an
// address, reads and writes alike, restricted to [start, end]. Shared by the
// first-access and last-access strategies.
func allAddressEvents(start, end uint64) string {
	pred := inRange("block_number", start, end)
	return fmt.Sprintf(`SELECT lower(address) AS address, lower(transaction_hash) AS transaction_hash, block_number
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT lower(address) AS address, lower(transaction_hash) AS transaction_hash, block_number
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT lower(address) AS address, lower(transaction_hash) AS transaction_hash, block_number
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT lower(address) AS address, lower(transaction_hash) AS transaction_hash, block_number
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT lower(address) AS address, lower(transaction_hash) AS transaction_hash, block_number
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT lower(contract_address) AS address, lower(transaction_hash) AS transaction_hash, block_number
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT lower(contract_address) AS address, lower(transaction_hash) AS transaction_hash, block_number
	FROM %s FINAL
	WHERE %s`,
		source.NonceReadsTable, pred,
		source.NonceDiffsTable, pred,
		source.BalanceDiffsTable, pred,
		source.BalanceReadsTable, pred,
		source.StorageDiffsTable, pred,
		source.StorageReadsTable, pred,
		source.ContractsTable, pred,
	)
}

// addressAccessSources lists the tables allAddressEvents reads.
func addressAccessSources() []string {
	return []string{
		source.BalanceDiffsTable,
		source.BalanceReadsTable,
		source.ContractsTable,
		source.NonceReadsTable,
		source.NonceDiffsTable,
		source.StorageDiffsTable,
		source.StorageReadsTable,
	}
}

// addressFirstAccess records the earliest block at which each address was
// touched by any successful transaction. The target's version column defaults
// to the inverted block number, so the replacing merge keeps the minimum.
type addressFirstAccess struct {
	target string
}

func newAddressFirstAccess(targetDB string) *addressFirstAccess {
	return &addressFirstAccess{target: targetDB + "." + derived.AddressFirstAccessTable}
}

func (s *addressFirstAccess) Key() string         { return "address_first_access" }
func (s *addressFirstAccess) TargetTable() string { return s.target }
func (s *addressFirstAccess) Description() string {
	return "Records the first block each address was accessed in"
}

func (s *addressFirstAccess) SourceTables() []string { return addressAccessSources() }

func (s *addressFirstAccess) InsertSQL(startBlock, endBlock uint64) string {
	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
all_addresses AS (
	%s
)
SELECT
	a.address,
	min(a.block_number) AS block_number,
	NULL AS version
FROM all_addresses a
GLOBAL JOIN get_tx_success g
	ON a.transaction_hash = g.transaction_hash
GROUP BY a.address
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, false),
		allAddressEvents(startBlock, endBlock),
	)
}
