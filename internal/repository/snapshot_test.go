package repository

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/curtWhite/finance-game-server/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheetDoc(income, expenses float64) ledger.Document {
	bs := ledger.New("alice", nil)
	bs.AddIncome("Salary", income)
	bs.AddExpense("Rent", expenses)
	return bs.Document(0, "")
}

func TestSnapshotPolicyFirstSaveSnapshotsItself(t *testing.T) {
	current := sheetDoc(3000, 1000)
	prev, err := snapshotPolicy(current, nil, "")
	require.NoError(t, err)

	var snap ledger.Document
	require.NoError(t, json.Unmarshal([]byte(prev), &snap))
	assert.Equal(t, current.Cashflow, snap.Cashflow)
	assert.Empty(t, snap.Prev, "snapshot must not chain")
	assert.Empty(t, snap.ID)
}

func TestSnapshotPolicyUnchangedCashflowKeepsPrev(t *testing.T) {
	current := sheetDoc(3000, 1000)
	stored := sheetDoc(3000, 1000) // same cashflow, different history upstream
	existing := `{"cashflow":123}`

	prev, err := snapshotPolicy(current, &stored, existing)
	require.NoError(t, err)
	assert.Equal(t, existing, prev, "saving with no cashflow change must not touch the snapshot")

	// Saving twice in a row is idempotent for the snapshot.
	again, err := snapshotPolicy(current, &stored, prev)
	require.NoError(t, err)
	assert.Equal(t, prev, again)
}

func TestSnapshotPolicyCashflowChangeCapturesStored(t *testing.T) {
	current := sheetDoc(3000, 1500)
	stored := sheetDoc(3000, 1000)

	prev, err := snapshotPolicy(current, &stored, `{"cashflow":999}`)
	require.NoError(t, err)

	var snap ledger.Document
	require.NoError(t, json.Unmarshal([]byte(prev), &snap))
	assert.Equal(t, stored.Cashflow, snap.Cashflow, "snapshot must capture the pre-change document")
	assert.Empty(t, snap.Prev)
}

func TestCallGuardSerializes(t *testing.T) {
	g := &callGuard{}
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.do("test", func() error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive, "guard must admit one persistence call at a time")
}

func TestCallGuardReleasesOnError(t *testing.T) {
	g := &callGuard{}
	require.Error(t, g.do("boom", func() error { return assert.AnError }))
	// A failed call must not leave the guard held.
	require.NoError(t, g.do("after", func() error { return nil }))
}
