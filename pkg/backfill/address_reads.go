package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// addressReads aggregates read-only access events per address per block.
// Storage reads attribute the access to the contract being read.
type addressReads struct {
	target string
}

func newAddressReads(targetDB string) *addressReads {
	return &addressReads{target: targetDB + "." + derived.AddressReadsTable}
}

func (s *addressReads) Key() string         { return "address_reads" }
func (s *addressReads) TargetTable() string { return s.target }
func (s *addressReads) Description() string {
	return "Aggregates read data from balance, nonce and storage reads"
}

func (s *addressReads) SourceTables() []string {
	return []string{
		source.BalanceReadsTable,
		source.NonceReadsTable,
		source.StorageReadsTable,
		source.TransactionsTable,
	}
}

func (s *addressReads) InsertSQL(startBlock, endBlock uint64) string {
	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
all_address_reads AS (
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
address_reads AS (
	SELECT
		ar.address,
		ar.block_number,
		ar.transaction_hash,
		g.transaction_index
	FROM all_address_reads ar
	GLOBAL JOIN get_tx_success g
		ON ar.transaction_hash = g.transaction_hash
)
SELECT
	address,
	block_number,
	countDistinct(transaction_hash) AS tx_count,
	max(transaction_index) AS last_tx_index
FROM address_reads
GROUP BY address, block_number
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, true),
		source.BalanceReadsTable, inRange("block_number", startBlock, endBlock),
		source.NonceReadsTable, inRange("block_number", startBlock, endBlock),
		source.StorageReadsTable, inRange("block_number", startBlock, endBlock),
	)
}
