package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finboard/internal/models"
)

func TestGetOrCreate(t *testing.T) {
	store := NewStore(nil)

	sess, created := store.GetOrCreate("")
	require.True(t, created)
	_, err := uuid.Parse(sess.ID)
	assert.NoError(t, err)

	again, created := store.GetOrCreate(sess.ID)
	assert.False(t, created)
	assert.Same(t, sess, again)

	other, created := store.GetOrCreate("forged-id")
	assert.True(t, created)
	assert.NotEqual(t, "forged-id", other.ID, "unknown IDs are never adopted")
	assert.Equal(t, 2, store.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore(nil)
	a, _ := store.GetOrCreate("")
	b, _ := store.GetOrCreate("")

	require.NoError(t, a.AddEntry(models.RosterEntry{FirstName: "Lan", LastName: "Nguyen"}))
	a.UpdateSelection(func(s *models.Selection) { s.Ticker = "FPT" })

	assert.Len(t, a.Entries(), 1)
	assert.Empty(t, b.Entries())
	assert.Equal(t, "FPT", a.Selection().Ticker)
	assert.Empty(t, b.Selection().Ticker)
}

func TestAddEntry_Validation(t *testing.T) {
	store := NewStore(nil)
	sess, _ := store.GetOrCreate("")

	tests := []struct {
		name  string
		entry models.RosterEntry
		ok    bool
	}{
		{"full", models.RosterEntry{FirstName: "Minh", LastName: "Tran", Age: 30}, true},
		{"no age", models.RosterEntry{FirstName: "Minh", LastName: "Tran"}, true},
		{"empty first", models.RosterEntry{FirstName: "", LastName: "Tran"}, false},
		{"blank last", models.RosterEntry{FirstName: "Minh", LastName: "   "}, false},
		{"negative age", models.RosterEntry{FirstName: "Minh", LastName: "Tran", Age: -1}, false},
	}
	for _, tt := range tests {
		err := sess.AddEntry(tt.entry)
		if tt.ok {
			assert.NoError(t, err, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrInvalidEntry, tt.name)
		}
	}

	entries := sess.Entries()
	require.Len(t, entries, 2, "rejected entries are not appended")
	assert.Equal(t, 30, entries[0].Age)
}

func TestEntriesReturnsCopy(t *testing.T) {
	sess, _ := NewStore(nil).GetOrCreate("")
	require.NoError(t, sess.AddEntry(models.RosterEntry{FirstName: " Ha ", LastName: "Le"}))

	entries := sess.Entries()
	assert.Equal(t, "Ha", entries[0].FirstName)
	entries[0].FirstName = "changed"
	assert.Equal(t, "Ha", sess.Entries()[0].FirstName)
}

func TestSweep(t *testing.T) {
	store := NewStore(nil)
	clock := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	idle, _ := store.GetOrCreate("")
	active, _ := store.GetOrCreate("")

	clock = clock.Add(11 * time.Hour)
	_, ok := store.Get(active.ID)
	require.True(t, ok)

	clock = clock.Add(time.Hour)
	assert.Equal(t, 1, store.Sweep(12*time.Hour))

	_, ok = store.Get(idle.ID)
	assert.False(t, ok)
	_, ok = store.Get(active.ID)
	assert.True(t, ok)
}

func TestConcurrentAdds(t *testing.T) {
	sess, _ := NewStore(nil).GetOrCreate("")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.AddEntry(models.RosterEntry{FirstName: "A", LastName: "B"})
		}()
	}
	wg.Wait()
	assert.Len(t, sess.Entries(), 50)
}
