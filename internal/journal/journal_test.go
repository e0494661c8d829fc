package journal

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir(), time.Hour, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := openTestJournal(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		err := j.Record(Entry{
			Kind:             terminal.KindPayment,
			Provider:         terminal.ProviderBAC,
			Transport:        terminal.ModeHTTP,
			Success:          true,
			ResponseCode:     "00",
			AmountMinorUnits: int64(1000 * (i + 1)),
			RecordedAt:       base.Add(time.Duration(i) * time.Millisecond),
		})
		require.NoError(t, err)
	}

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, int64(3000), entries[0].AmountMinorUnits)
	assert.Equal(t, int64(1000), entries[2].AmountMinorUnits)
	assert.NotEmpty(t, entries[0].ID)
}

func TestJournal_RecentHonorsLimit(t *testing.T) {
	j := openTestJournal(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(Entry{
			Kind:       terminal.KindClose,
			RecordedAt: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	entries, err := j.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestJournal_RecentOnEmptyStore(t *testing.T) {
	j := openTestJournal(t)

	entries, err := j.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
