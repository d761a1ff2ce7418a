package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/smallnest/tracegraph/graphdef"
	"github.com/smallnest/tracegraph/store"
	"github.com/smallnest/tracegraph/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectByID = "SELECT id, run, step, graph, metadata, timestamp FROM graph_snapshots WHERE id = $1"
const selectByRun = "SELECT id, run, step, graph, metadata, timestamp FROM graph_snapshots WHERE run = $1 ORDER BY step ASC, timestamp ASC, id ASC"

var columns = []string{"id", "run", "step", "graph", "metadata", "timestamp"}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresGraphStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresGraphStoreWithPool(mock, "")
}

func encoded(t *testing.T) []byte {
	t.Helper()
	data, err := graphdef.Marshal(storetest.Record())
	require.NoError(t, err)
	return data
}

func TestPostgresGraphStore_InitSchema(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS graph_snapshots")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Save(t *testing.T) {
	mock, s := newMock(t)
	snap := storetest.Snapshot("snap-1", "run-a", 1)
	metadataJSON, _ := json.Marshal(snap.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO graph_snapshots")).
		WithArgs(snap.ID, snap.Run, snap.Step, encoded(t), metadataJSON, snap.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, s.Save(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Save_Invalid(t *testing.T) {
	mock, s := newMock(t)

	err := s.Save(context.Background(), &store.Snapshot{ID: "snap-1"})
	assert.ErrorIs(t, err, store.ErrInvalidSnapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Save_MarshalError(t *testing.T) {
	_, s := newMock(t)
	snap := storetest.Snapshot("snap-1", "run-a", 1)
	snap.Metadata["bad"] = make(chan int)

	err := s.Save(context.Background(), snap)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal metadata")
}

func TestPostgresGraphStore_Save_DatabaseError(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO graph_snapshots")).
		WillReturnError(errors.New("connection reset"))

	err := s.Save(context.Background(), storetest.Snapshot("snap-1", "run-a", 1))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save snapshot")
}

func TestPostgresGraphStore_Load(t *testing.T) {
	mock, s := newMock(t)
	want := storetest.Snapshot("snap-1", "run-a", 1)
	metadataJSON, _ := json.Marshal(want.Metadata)

	mock.ExpectQuery(regexp.QuoteMeta(selectByID)).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("snap-1", "run-a", 1, encoded(t), metadataJSON, want.Timestamp))

	loaded, err := s.Load(context.Background(), "snap-1")
	require.NoError(t, err)
	assert.Equal(t, want.Run, loaded.Run)
	assert.Equal(t, want.Step, loaded.Step)
	assert.Equal(t, want.Record, loaded.Record)
	assert.Equal(t, "test", loaded.Metadata["source"])
	assert.True(t, want.Timestamp.Equal(loaded.Timestamp))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Load_NotFound(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectByID)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	loaded, err := s.Load(context.Background(), "missing")
	assert.Nil(t, loaded)
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Load_DatabaseError(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectByID)).
		WithArgs("snap-1").
		WillReturnError(errors.New("database connection failed"))

	loaded, err := s.Load(context.Background(), "snap-1")
	assert.Nil(t, loaded)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrSnapshotNotFound)
	assert.Contains(t, err.Error(), "failed to load snapshot")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Load_CorruptGraph(t *testing.T) {
	mock, s := newMock(t)
	ts := storetest.Snapshot("snap-1", "run-a", 1).Timestamp

	mock.ExpectQuery(regexp.QuoteMeta(selectByID)).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("snap-1", "run-a", 1, []byte{0x0a, 0x7f}, []byte("{}"), ts))

	_, err := s.Load(context.Background(), "snap-1")
	assert.ErrorIs(t, err, graphdef.ErrMalformed)
}

func TestPostgresGraphStore_Load_NilMetadata(t *testing.T) {
	mock, s := newMock(t)
	ts := storetest.Snapshot("snap-1", "run-a", 1).Timestamp

	mock.ExpectQuery(regexp.QuoteMeta(selectByID)).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("snap-1", "run-a", 1, encoded(t), nil, ts))

	loaded, err := s.Load(context.Background(), "snap-1")
	require.NoError(t, err)
	assert.Nil(t, loaded.Metadata)
}

func TestPostgresGraphStore_List(t *testing.T) {
	mock, s := newMock(t)
	ts := storetest.Snapshot("a", "run-a", 1).Timestamp

	rows := pgxmock.NewRows(columns).
		AddRow("a", "run-a", 1, encoded(t), []byte(`{"source":"test"}`), ts).
		AddRow("b", "run-a", 2, encoded(t), []byte(`{}`), ts)

	mock.ExpectQuery(regexp.QuoteMeta(selectByRun)).
		WithArgs("run-a").
		WillReturnRows(rows)

	list, err := s.List(context.Background(), "run-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, 2, list[1].Step)
	assert.Len(t, list[1].Record.Nodes, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_List_Empty(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectByRun)).
		WithArgs("none").
		WillReturnRows(pgxmock.NewRows(columns))

	list, err := s.List(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestPostgresGraphStore_List_DatabaseError(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectByRun)).
		WithArgs("run-a").
		WillReturnError(errors.New("database connection failed"))

	list, err := s.List(context.Background(), "run-a")
	assert.Nil(t, list)
	assert.Contains(t, err.Error(), "failed to list snapshots")
}

func TestPostgresGraphStore_Delete(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM graph_snapshots WHERE id = $1")).
		WithArgs("snap-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, s.Delete(context.Background(), "snap-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Clear(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM graph_snapshots WHERE run = $1")).
		WithArgs("run-a").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	assert.NoError(t, s.Clear(context.Background(), "run-a"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM graph_snapshots WHERE run = $1")).
		WithArgs("run-b").
		WillReturnError(errors.New("boom"))

	err := s.Clear(context.Background(), "run-b")
	assert.Contains(t, err.Error(), "failed to clear snapshots")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_CustomTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "runs")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM runs WHERE id = $1")).
		WithArgs("x").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, s.Delete(context.Background(), "x"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
