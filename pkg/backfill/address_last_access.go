package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
)

// addressLastAccess records the most recent block at which each address was
// touched. is_deleted is left false here; liveness is derived separately from
// the destruct tables.
type addressLastAccess struct {
	target string
}

func newAddressLastAccess(targetDB string) *addressLastAccess {
	return &addressLastAccess{target: targetDB + "." + derived.AddressLastAccessTable}
}

func (s *addressLastAccess) Key() string         { return "address_last_access" }
func (s *addressLastAccess) TargetTable() string { return s.target }
func (s *addressLastAccess) Description() string {
	return "Records the last block each address was accessed in"
}

func (s *addressLastAccess) SourceTables() []string { return addressAccessSources() }

func (s *addressLastAccess) InsertSQL(startBlock, endBlock uint64) string {
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
	max(a.block_number) AS block_number,
	false AS is_deleted
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
