package log

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrievalBeforeInit(t *testing.T) {
	_, err := GetLastNLogs(10)
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestSQLiteRoundTrip(t *testing.T) {
	require.NoError(t, initDSN(filepath.Join(t.TempDir(), "logs.db")))
	t.Cleanup(func() { require.NoError(t, Close()) })

	require.Error(t, initDSN(filepath.Join(t.TempDir(), "other.db")), "double init must fail")

	Info().Str("file", "a.bin").Uint64("hash64", 0xa470172496550662).Msg("hashed")
	Warn().Msg("table is not a permutation")
	Printf("hashed %d files", 2)

	entries, err := GetLastNLogs(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Data, "table is not a permutation")
	assert.Contains(t, entries[1].Data, "hashed 2 files")
	assert.Less(t, entries[0].ID, entries[1].ID)

	all, err := GetLogsSinceStart()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, strings.Contains(all[0].Data, `"hash64":11848996065520191074`))

	between, err := GetLogsBetween(time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Len(t, between, 3)

	none, err := GetLastNLogs(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInitRequiresFile(t *testing.T) {
	assert.Error(t, Init(""))
}

func TestLogsBetweenSubSecondAndZones(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	stamps := []time.Time{
		base.Add(120 * time.Millisecond),
		base.Add(124 * time.Millisecond),
		base.Add(time.Second),
	}
	i := 0
	now = func() time.Time { return stamps[i] }
	t.Cleanup(func() { now = time.Now })

	require.NoError(t, initDSN(filepath.Join(t.TempDir(), "logs.db")))
	t.Cleanup(func() { require.NoError(t, Close()) })

	for i = range stamps {
		Info().Int("n", i).Msg("tick")
	}

	// 00:00:05.123Z expressed at +02:00; only the .120 entry is not after it.
	end := base.Add(123 * time.Millisecond).In(time.FixedZone("CEST", 2*60*60))
	start := base.Add(-time.Hour).In(time.FixedZone("EST", -5*60*60))
	entries, err := GetLogsBetween(start, end, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Data, `"time":"2026-01-01T00:00:05.120000000Z"`)

	// 00:00:05.124 exactly is inclusive.
	entries, err = GetLogsBetween(base.Add(124*time.Millisecond), base.Add(2*time.Second), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Data, `"n":1`)
	assert.Contains(t, entries[1].Data, `"n":2`)
}
