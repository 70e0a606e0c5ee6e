package derived

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

func TestTableNamesAreRegistered(t *testing.T) {
	names := TableNames()
	require.Len(t, names, 11)

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		assert.False(t, seen[name], "duplicate table %s", name)
		seen[name] = true
		assert.Contains(t, tableInits, name, "table %s has no creator", name)
	}
}

func TestTableQualification(t *testing.T) {
	db := &DB{Name: "mainnet"}
	assert.Equal(t, "mainnet.int_address_diffs", db.Table(AddressDiffsTable))
}

func TestColumnSchemasValidate(t *testing.T) {
	schemas := map[string][]models.ColumnDef{
		AddressDiffsTable:       addressDiffsColumns,
		AddressReadsTable:       addressReadsColumns,
		AddressFirstAccessTable: addressFirstAccessColumns,
		AddressLastAccessTable:  addressLastAccessColumns,
		SlotFirstAccessTable:    slotFirstAccessColumns,
		SlotLastAccessTable:     slotLastAccessColumns,
		AddressSlotsStatTable:   addressSlotsStatColumns,
		BlockSlotsStatTable:     blockSlotsStatColumns,
		PreDestructsTable:       preDestructsColumns,
		PostDestructsTable:      postDestructsColumns,
		AccountsAliveTable:      accountsAliveColumns,
	}
	for table, columns := range schemas {
		require.NotEmpty(t, columns, table)
		for _, col := range columns {
			assert.NoError(t, col.Validate(), "%s.%s", table, col.Name)
		}
	}
}

func TestFirstAccessVersionInvertsBlockNumber(t *testing.T) {
	// ReplacingMergeTree keeps the row with the highest version, so the
	// earliest block must get the highest version value.
	for _, columns := range [][]models.ColumnDef{addressFirstAccessColumns, slotFirstAccessColumns} {
		var found bool
		for _, col := range columns {
			if col.Name == "version" {
				assert.Equal(t, "4294967295 - block_number", col.Default)
				found = true
			}
		}
		assert.True(t, found, "version column missing")
	}
}
