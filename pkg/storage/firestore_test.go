package storage

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Range queries on the readings collection compare document IDs as strings,
// so the ID format must sort the same way the timestamps do.
func TestReadingDocIDOrdering(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 8, 30, 23, 59, 59, 999999999, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 1, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 500, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 1, 0, time.UTC),
		time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	ids := make([]string, len(times))
	for i, ts := range times {
		ids[i] = ts.Format(readingDocIDFormat)
	}

	assert.True(t, sort.StringsAreSorted(ids), "doc IDs must sort like their timestamps: %v", ids)

	// fixed width regardless of trailing zeros in the fraction
	for _, id := range ids {
		assert.Len(t, id, len("2006-01-02T15:04:05.000000000Z"))
	}
}

func TestReadingDocIDRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 31, 12, 30, 45, 123456789, time.UTC)
	id := ts.Format(readingDocIDFormat)

	parsed, err := time.Parse(time.RFC3339Nano, id)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestFirestoreValidate(t *testing.T) {
	f := &FirestoreProvider{}
	assert.NoError(t, f.Validate())
}
