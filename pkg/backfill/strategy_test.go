package backfill

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry("mainnet", MainnetEras())
}

func TestRegistryKeys(t *testing.T) {
	r := testRegistry(t)
	assert.Equal(t, []string{
		"accounts_alive",
		"address_diffs",
		"address_first_access",
		"address_last_access",
		"address_reads",
		"address_slots_stat",
		"block_slots_stat",
		"post_6780_destructs",
		"pre_6780_destructs",
		"slot_first_access",
		"slot_last_access",
	}, r.Keys())

	_, err := r.Get("no_such_table")
	require.Error(t, err)
}

func TestRegistryStrategiesAreConsistent(t *testing.T) {
	r := testRegistry(t)
	for _, key := range r.Keys() {
		s, err := r.Get(key)
		require.NoError(t, err)
		assert.Equal(t, key, s.Key())
		assert.True(t, strings.HasPrefix(s.TargetTable(), "mainnet.int_"), s.TargetTable())
		assert.NotEmpty(t, s.SourceTables(), key)
		assert.NotEmpty(t, s.Description(), key)
	}
}

func TestStrategySQLCoversRange(t *testing.T) {
	r := testRegistry(t)
	for _, key := range r.Keys() {
		if key == "pre_6780_destructs" || key == "post_6780_destructs" {
			continue
		}
		s, err := r.Get(key)
		require.NoError(t, err)

		sql := s.InsertSQL(1_000_000, 1_009_999)
		require.NotEmpty(t, sql, key)
		assert.Contains(t, sql, "INSERT INTO "+s.TargetTable(), key)
		assert.Contains(t, sql, "BETWEEN 1000000 AND 1009999", key)
	}
}

func TestPreDestructsEraGating(t *testing.T) {
	eras := MainnetEras()
	s := newPreDestructs("mainnet", eras)
	boundary := eras.SelfDestructRestriction

	t.Run("empty at and after the boundary", func(t *testing.T) {
		assert.Empty(t, s.InsertSQL(boundary, boundary+10_000))
		assert.Empty(t, s.InsertSQL(boundary+5, boundary+10))
	})

	t.Run("straddling range is capped", func(t *testing.T) {
		sql := s.InsertSQL(boundary-100, boundary+100)
		require.NotEmpty(t, sql)
		assert.Contains(t, sql, fmt.Sprintf("BETWEEN %d AND %d", boundary-100, boundary-1))
		assert.NotContains(t, sql, fmt.Sprintf("AND %d", boundary+100))
	})

	t.Run("fully before the boundary is untouched", func(t *testing.T) {
		sql := s.InsertSQL(100, 199)
		require.NotEmpty(t, sql)
		assert.Contains(t, sql, "BETWEEN 100 AND 199")
		assert.Contains(t, sql, "action_type = 'suicide'")
		assert.Contains(t, sql, "action_value = '0'")
	})

	t.Run("range note flags the pre-clearing era", func(t *testing.T) {
		assert.NotEmpty(t, s.RangeNote(0, eras.EmptyAccountClearing-1))
		assert.Empty(t, s.RangeNote(0, eras.EmptyAccountClearing))
	})
}

func TestPostDestructsEraGating(t *testing.T) {
	eras := MainnetEras()
	s := newPostDestructs("mainnet", eras)
	boundary := eras.SelfDestructRestriction

	t.Run("empty before the boundary", func(t *testing.T) {
		assert.Empty(t, s.InsertSQL(0, boundary-1))
	})

	t.Run("straddling range is raised", func(t *testing.T) {
		sql := s.InsertSQL(boundary-100, boundary+100)
		require.NotEmpty(t, sql)
		assert.Contains(t, sql, fmt.Sprintf("BETWEEN %d AND %d", boundary, boundary+100))
	})

	t.Run("fully after the boundary is untouched", func(t *testing.T) {
		sql := s.InsertSQL(boundary+1, boundary+500)
		require.NotEmpty(t, sql)
		assert.Contains(t, sql, fmt.Sprintf("BETWEEN %d AND %d", boundary+1, boundary+500))
		assert.Contains(t, sql, "is_same_tx")
	})
}

func TestAccountsAliveSQL(t *testing.T) {
	s := newAccountsAlive("mainnet", MainnetEras())
	sql := s.InsertSQL(100, 199)

	assert.Contains(t, sql, "mainnet.int_address_diffs")
	assert.Contains(t, sql, "mainnet.int_pre_6780_accounts_destructs")
	assert.Contains(t, sql, "mainnet.int_post_6780_accounts_destructs")
	// The pessimistic tie break selects the not-alive row on identical
	// positions.
	assert.Contains(t, sql, "argMax(is_alive, (block_num, transaction_index, NOT is_alive))")

	assert.Equal(t, " (unrestricted self-destruct era)", s.RangeNote(0, 100))
	assert.Equal(t, " (restricted self-destruct era)", s.RangeNote(20_000_000, 20_010_000))
	assert.Equal(t, " (spans the self-destruct restriction)", s.RangeNote(19_000_000, 20_000_000))
}

func TestSlotFirstAccessSQLOrdersByChainPosition(t *testing.T) {
	s := newSlotFirstAccess("mainnet")
	sql := s.InsertSQL(0, 99)

	// Both argMins select by the full (block, tx index, internal index)
	// tuple so intra-block ties are deterministic.
	assert.Contains(t, sql, "argMin(bn, (bn, transaction_index, internal_index))")
	assert.Contains(t, sql, "argMin(value, (bn, transaction_index, internal_index))")

	// Reads carry the maximal sentinel in both index columns.
	assert.Contains(t, sql, fmt.Sprintf("%d AS transaction_index", ReadOrderKey))
	assert.Contains(t, sql, fmt.Sprintf("%d AS internal_index", ReadOrderKey))

	// Only the reads branch joins against successful transactions; diffs
	// count regardless of transaction success.
	assert.Equal(t, 1, strings.Count(sql, "GLOBAL JOIN"))
	diffsBranch := sql[:strings.Index(sql, "UNION ALL")]
	assert.NotContains(t, diffsBranch, "get_tx_success g")
	assert.Contains(t, diffsBranch, "internal_index")
}

func TestSlotLastAccessSQLUsesReadSentinel(t *testing.T) {
	s := newSlotLastAccess("mainnet")
	sql := s.InsertSQL(0, 99)

	assert.Contains(t, sql, fmt.Sprintf("%d AS transaction_index", ReadOrderKey))
	assert.Contains(t, sql, fmt.Sprintf("%d AS internal_index", ReadOrderKey))
	assert.Contains(t, sql,
		"argMax(value, (bn, transaction_index != 4294967295, transaction_index, internal_index))")

	// Diffs keep their own chain position and skip the success join.
	assert.Equal(t, 1, strings.Count(sql, "GLOBAL JOIN"))
	diffsBranch := sql[:strings.Index(sql, "UNION ALL")]
	assert.NotContains(t, diffsBranch, "get_tx_success g")
}

func TestSuccessfulTxHashes(t *testing.T) {
	cte := successfulTxHashes(10, 20, true, "block_number >= 5")
	assert.Contains(t, cte, "transaction_index")
	assert.Contains(t, cte, "block_number BETWEEN 10 AND 20")
	assert.Contains(t, cte, "success = true")
	assert.Contains(t, cte, "block_number >= 5")

	bare := successfulTxHashes(10, 20, false)
	assert.NotContains(t, bare, "transaction_index")
}
