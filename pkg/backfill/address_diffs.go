package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// addressDiffs aggregates every state-changing event category per address
// per block, joined against successful transactions.
type addressDiffs struct {
	target string
}

func newAddressDiffs(targetDB string) *addressDiffs {
	return &addressDiffs{target: targetDB + "." + derived.AddressDiffsTable}
}

func (s *addressDiffs) Key() string         { return "address_diffs" }
func (s *addressDiffs) TargetTable() string { return s.target }
func (s *addressDiffs) Description() string {
	return "Aggregates diff data from balance, storage, nonce diffs and contracts"
}

func (s *addressDiffs) SourceTables() []string {
	return []string{
		source.BalanceDiffsTable,
		source.StorageDiffsTable,
		source.NonceDiffsTable,
		source.ContractsTable,
		source.TransactionsTable,
	}
}

func (s *addressDiffs) InsertSQL(startBlock, endBlock uint64) string {
	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
all_address_diffs AS (
	SELECT
		lower(address) AS address,
		block_number,
		lower(transaction_hash) AS transaction_hash
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT
		lower(address) AS address,
		block_number,
		lower(transaction_hash) AS transaction_hash
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT
		lower(address) AS address,
		block_number,
		lower(transaction_hash) AS transaction_hash
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT
		lower(contract_address) AS address,
		block_number,
		lower(transaction_hash) AS transaction_hash
	FROM %s FINAL
	WHERE %s
),
address_diffs AS (
	SELECT
		ad.address,
		ad.block_number,
		ad.transaction_hash,
		g.transaction_index
	FROM all_address_diffs ad
	GLOBAL JOIN get_tx_success g
		ON ad.transaction_hash = g.transaction_hash
)
SELECT
	address,
	block_number,
	countDistinct(transaction_hash) AS tx_count,
	max(transaction_index) AS last_tx_index
FROM address_diffs
GROUP BY address, block_number
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, true),
		source.BalanceDiffsTable, inRange("block_number", startBlock, endBlock),
		source.StorageDiffsTable, inRange("block_number", startBlock, endBlock),
		source.NonceDiffsTable, inRange("block_number", startBlock, endBlock),
		source.ContractsTable, inRange("block_number", startBlock, endBlock),
	)
}
