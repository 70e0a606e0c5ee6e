package backfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickEarliest(t *testing.T) {
	write := func(block, order uint64, alive bool) Candidate {
		return Candidate{Block: block, OrderKey: order, Alive: alive}
	}
	read := func(block uint64, alive bool) Candidate {
		return Candidate{Block: block, OrderKey: ReadOrderKey, Alive: alive}
	}

	t.Run("lower block wins", func(t *testing.T) {
		a, b := write(10, 5, true), write(12, 0, false)
		assert.Equal(t, a, PickEarliest(a, b))
		assert.Equal(t, a, PickEarliest(b, a))
	})

	t.Run("write beats read in same block", func(t *testing.T) {
		w, r := write(10, 7, false), read(10, true)
		assert.Equal(t, w, PickEarliest(w, r))
		assert.Equal(t, w, PickEarliest(r, w))
	})

	t.Run("lower order key wins within block", func(t *testing.T) {
		a, b := write(10, 2, true), write(10, 9, false)
		assert.Equal(t, a, PickEarliest(a, b))
		assert.Equal(t, a, PickEarliest(b, a))
	})

	t.Run("exact tie keeps first argument", func(t *testing.T) {
		a, b := write(10, 2, true), write(10, 2, false)
		assert.Equal(t, a, PickEarliest(a, b))
		assert.Equal(t, b, PickEarliest(b, a))
	})
}

func TestPickLatest(t *testing.T) {
	write := func(block, order uint64, alive bool) Candidate {
		return Candidate{Block: block, OrderKey: order, Alive: alive}
	}
	read := func(block uint64, alive bool) Candidate {
		return Candidate{Block: block, OrderKey: ReadOrderKey, Alive: alive}
	}

	t.Run("higher block wins", func(t *testing.T) {
		a, b := write(10, 5, false), write(12, 0, true)
		assert.Equal(t, b, PickLatest(a, b))
		assert.Equal(t, b, PickLatest(b, a))
	})

	t.Run("write beats read in same block despite sentinel", func(t *testing.T) {
		w, r := write(10, 7, false), read(10, true)
		assert.Equal(t, w, PickLatest(w, r))
		assert.Equal(t, w, PickLatest(r, w))
	})

	t.Run("higher order key wins within block", func(t *testing.T) {
		a, b := write(10, 2, true), write(10, 9, false)
		assert.Equal(t, b, PickLatest(a, b))
		assert.Equal(t, b, PickLatest(b, a))
	})

	t.Run("exact tie resolves to not alive", func(t *testing.T) {
		dead, alive := write(10, 2, false), write(10, 2, true)
		assert.Equal(t, dead, PickLatest(dead, alive))
		assert.Equal(t, dead, PickLatest(alive, dead))
	})

	t.Run("two reads compare by block only", func(t *testing.T) {
		a, b := read(10, true), read(11, false)
		assert.Equal(t, b, PickLatest(a, b))
	})
}

func TestArgMaxHelpers(t *testing.T) {
	assert.Equal(t,
		"argMax(is_alive, (block_num, transaction_index, NOT is_alive))",
		argMaxPessimistic("is_alive", "block_num", "transaction_index"))

	assert.Equal(t,
		"argMax(value, (bn, transaction_index != 4294967295, transaction_index, internal_index))",
		argMaxWritePreferred("value", "bn", "transaction_index", "internal_index"))
}

func TestAliveAfterDestruct(t *testing.T) {
	eras := Eras{SelfDestructRestriction: 1000, EmptyAccountClearing: 100}

	tests := []struct {
		name   string
		block  uint64
		sameTx bool
		want   bool
	}{
		{"before restriction always removes", 999, false, false},
		{"before restriction removes even same tx", 999, true, false},
		{"at restriction same tx removes", 1000, true, false},
		{"at restriction different tx survives", 1000, false, true},
		{"after restriction different tx survives", 5000, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eras.AliveAfterDestruct(tt.block, tt.sameTx))
		})
	}
}
