package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"fieldops/workforce-dashboard/internal/database"
	"fieldops/workforce-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEvent(id int64, workerID string, ts time.Time) models.StatusEvent {
	return models.StatusEvent{
		ID:         id,
		WorkerID:   workerID,
		WorkerName: "Worker " + workerID,
		ProjectID:  "P1",
		StatusCode: models.StatusCodeClockOn,
		StatusName: "Clock On",
		Timestamp:  ts,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.DB, zap.NewNop())
}

func TestMergeIsIdempotent(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ev := testEvent(1, "W1", ts)

	once := Merge(nil, []models.StatusEvent{ev})
	twice := Merge(once, []models.StatusEvent{ev})

	assert.Equal(t, once, twice)
	assert.Len(t, twice, 1)
}

func TestMergeLastWriteWins(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	original := testEvent(1, "W1", ts)
	updated := original
	updated.StatusName = "Clock Off"
	updated.StatusCode = models.StatusCodeClockOff

	merged := Merge(map[int64]models.StatusEvent{1: original}, []models.StatusEvent{updated})

	require.Len(t, merged, 1)
	assert.Equal(t, "Clock Off", merged[1].StatusName)
}

func TestMergeDoesNotMutateExisting(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	existing := map[int64]models.StatusEvent{1: testEvent(1, "W1", ts)}

	Merge(existing, []models.StatusEvent{testEvent(2, "W2", ts)})

	assert.Len(t, existing, 1)
}

func TestMergeKeepsMalformedEvents(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	merged := Merge(nil, []models.StatusEvent{testEvent(0, "W1", ts), testEvent(3, "W2", ts)})

	// The zero-id event is stored, it just never drives the cursor
	assert.Len(t, merged, 2)
	assert.Contains(t, merged, int64(0))
}

func TestFilterNewSince(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []models.StatusEvent{
		testEvent(1, "W1", ts),
		testEvent(5, "W1", ts),
		testEvent(9, "W1", ts),
	}

	fresh := FilterNewSince(events, 5)

	require.Len(t, fresh, 1)
	assert.Equal(t, int64(9), fresh[0].ID)
}

func TestAdvanceCursorNeverDecreases(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	cursor := AdvanceCursor([]models.StatusEvent{testEvent(7, "W1", ts)}, 0)
	assert.Equal(t, int64(7), cursor)

	// Older events arriving late must not move it backwards
	cursor = AdvanceCursor([]models.StatusEvent{testEvent(3, "W1", ts)}, cursor)
	assert.Equal(t, int64(7), cursor)

	// Empty batch leaves it alone
	cursor = AdvanceCursor(nil, cursor)
	assert.Equal(t, int64(7), cursor)
}

func TestAdvanceCursorIgnoresZeroIDs(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cursor := AdvanceCursor([]models.StatusEvent{testEvent(0, "W1", ts)}, 0)
	assert.Equal(t, int64(0), cursor)
}

func TestSaveBatchAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	events := []models.StatusEvent{
		testEvent(1, "W1", ts),
		testEvent(2, "W2", ts.Add(time.Hour)),
	}
	require.NoError(t, store.SaveBatch(events, 2))

	loaded, cursor, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, int64(2), cursor)
	require.Len(t, loaded, 2)
	assert.Equal(t, "W1", loaded[1].WorkerID)
	assert.True(t, loaded[2].Timestamp.Equal(ts.Add(time.Hour)))
}

func TestSaveBatchIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []models.StatusEvent{testEvent(1, "W1", ts)}

	require.NoError(t, store.SaveBatch(events, 1))
	require.NoError(t, store.SaveBatch(events, 1))

	loaded, cursor, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, int64(1), cursor)
}

func TestSaveBatchCursorOnlyMovesForward(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveBatch([]models.StatusEvent{testEvent(10, "W1", ts)}, 10))
	// A caller passing a stale cursor must not rewind the persisted one
	require.NoError(t, store.SaveBatch([]models.StatusEvent{testEvent(4, "W1", ts)}, 4))

	cursor, err := store.Cursor()
	require.NoError(t, err)
	assert.Equal(t, int64(10), cursor)
}
