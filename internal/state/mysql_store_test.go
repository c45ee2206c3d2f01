package state

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLStore(db), mock
}

func TestMySQLStore_GetProductHash(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectQuery(`SELECT normalized_hash\s+FROM product_docs`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"normalized_hash"}).AddRow("abc"))
	mock.ExpectQuery(`SELECT normalized_hash\s+FROM product_docs`).
		WithArgs(uint64(1), uint64(43)).
		WillReturnRows(sqlmock.NewRows([]string{"normalized_hash"}))

	h, ok, err := st.GetProductHash(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", h)

	_, ok, err = st.GetProductHash(context.Background(), 1, 43)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_UpsertProductDoc(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO product_docs \(tenant_id, product_id, product_json, normalized_hash\)`).
		WithArgs(uint64(1), uint64(42), []byte(`{"id":42}`), "h42").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := st.UpsertProductDoc(context.Background(), 1, 42, ProductDocRecord{ProductJSON: []byte(`{"id":42}`), Hash: "h42"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ListProductIDs(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectQuery(`SELECT product_id\s+FROM product_docs`).
		WithArgs(uint64(1), uint64(40), 2).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}).AddRow(41).AddRow(45))

	ids, err := st.ListProductIDs(context.Background(), 1, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{41, 45}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InsertRunProducts_NumbersRows(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO run_products \(run_id, seq, product_id`).
		WithArgs("run_1", 0, uint64(0), "rejected", "invalid_json_line", "", []byte("null")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO run_products`).
		WithArgs("run_1", 1, uint64(0), "rejected", "invalid_json_line", "", []byte("null")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	bad := ingest.ProductProcessResult{Disposition: domain.ProductDispositionRejected, Reason: ingest.ReasonUndecodableLine}
	require.NoError(t, st.InsertRunProducts(context.Background(), "run_1", []ingest.ProductProcessResult{bad, bad}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_GetRun(t *testing.T) {
	st, mock := newMock(t)
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cols := []string{"run_id", "tenant_id", "status", "push_triggered", "received", "valid",
		"rejected", "unchanged", "enqueued", "warnings_json", "message", "created_at"}
	mock.ExpectQuery(`SELECT (.+) FROM runs WHERE tenant_id = \? AND run_id = \?`).
		WithArgs(uint64(1), "run_1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("run_1", 1, "failed", true, 3, 2, 1, 0, 2, []byte(`{"unknown_keys":["x"]}`), "boom", created))

	r, ok, err := st.GetRun(context.Background(), 1, "run_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RunStatusFailed, r.Status)
	assert.Equal(t, "boom", r.Message)
	assert.Equal(t, 2, r.Enqueued)
	assert.Equal(t, []string{"x"}, r.Warnings.UnknownKeys)
	assert.Equal(t, created, r.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ClaimRuns_MarksProcessingInTx(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT run_id, tenant_id, enqueued\s+FROM runs(.|\n)+FOR UPDATE SKIP LOCKED`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"run_id", "tenant_id", "enqueued"}).AddRow("run_a", 1, 3).AddRow("run_b", 2, 1))
	mock.ExpectExec(`UPDATE runs\s+SET status = 'processing'`).
		WithArgs("run_a", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE runs\s+SET status = 'processing'`).
		WithArgs("run_b", uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	claims, err := st.ClaimRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []RunClaim{
		{RunID: "run_a", TenantID: 1, Enqueued: 3},
		{RunID: "run_b", TenantID: 2, Enqueued: 1},
	}, claims)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ClaimRuns_RollsBackOnUpdateError(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM runs`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"run_id", "tenant_id", "enqueued"}).AddRow("run_a", 1, 1))
	mock.ExpectExec(`UPDATE runs`).
		WithArgs("run_a", uint64(1)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := st.ClaimRuns(context.Background(), 5)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "run_a")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_FinishOnlyMovesProcessingRuns(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectExec(`UPDATE runs\s+SET status = 'failed', message = \?\s+WHERE run_id = \? AND tenant_id = \? AND status = 'processing'`).
		WithArgs("boom", "run_1", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE runs\s+SET status = 'completed', message = NULL\s+WHERE run_id = \? AND tenant_id = \? AND status = 'processing'`).
		WithArgs("run_2", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, st.FailRun(context.Background(), 1, "run_1", "boom"))
	require.NoError(t, st.CompleteRun(context.Background(), 1, "run_2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InsertRunChannelItems_ReplacesInOneTx(t *testing.T) {
	st, mock := newMock(t)

	items := make([]RunChannelItemRecord, itemInsertBatch+1)
	for i := range items {
		items[i] = RunChannelItemRecord{ProductID: uint64(i + 1), Status: "ok"}
	}
	items[0].ItemJSON = []byte(`{"offerId":"1"}`)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM run_channel_items`).
		WithArgs("run_1", "google").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`INSERT INTO run_channel_items`).
		WillReturnResult(sqlmock.NewResult(0, int64(itemInsertBatch)))
	mock.ExpectExec(`INSERT INTO run_channel_items .+ VALUES \(\?, \?, \?, \?, \?, \?, \?\)$`).
		WithArgs("run_1", "google", uint64(itemInsertBatch+1), "", "ok", "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.InsertRunChannelItems(context.Background(), "run_1", "google", items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ListRunChannelItems_ScopedToTenant(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectQuery(`FROM run_channel_items i\s+JOIN runs r ON r.run_id = i.run_id\s+WHERE r.tenant_id = \?`).
		WithArgs(uint64(2), "run_1", "google", 1000).
		WillReturnRows(sqlmock.NewRows([]string{"run_id", "channel", "product_id", "offer_id", "status", "message", "item_json"}).
			AddRow("run_1", "google", 7, "SKU-7", "ok", "", nil))

	items, err := st.ListRunChannelItems(context.Background(), 2, "run_1", "google", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SKU-7", items[0].OfferID)
	assert.Empty(t, items[0].ItemJSON)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InsertRun_DuplicateID(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'run_1' for key 'PRIMARY'"})

	err := st.InsertRun(context.Background(), RunRecord{RunID: "run_1", TenantID: 1, Status: domain.RunStatusHasChanges})
	require.ErrorIs(t, err, ErrRunExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_Idempotency(t *testing.T) {
	st, mock := newMock(t)
	created := time.Now().UTC().Truncate(time.Second)
	cols := []string{"request_hash", "status_code", "response_body_json", "created_at", "expires_at"}

	mock.ExpectExec(`INSERT INTO idempotency`).
		WithArgs(uint64(1), "/v1/products:upsert", "kh", "rh", 200, []byte(`{"ok":true}`), created, created.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT request_hash, status_code, response_body_json, created_at, expires_at\s+FROM idempotency`).
		WithArgs(uint64(1), "/v1/products:upsert", "kh").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("rh", 200, []byte(`{"ok":true}`), created, created.Add(time.Hour)))
	mock.ExpectQuery(`FROM idempotency`).
		WithArgs(uint64(1), "/v1/products:upsert", "old").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("rh", 200, []byte(`{}`), created.Add(-2*time.Hour), created.Add(-time.Hour)))

	require.NoError(t, st.PutIdempotency(context.Background(), 1, "/v1/products:upsert", "kh", IdempotencyRecord{
		RequestHash: "rh",
		StatusCode:  200,
		BodyJSON:    []byte(`{"ok":true}`),
		CreatedAt:   created,
		ExpiresAt:   created.Add(time.Hour),
	}))

	rec, ok, err := st.GetIdempotency(context.Background(), 1, "/v1/products:upsert", "kh")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rh", rec.RequestHash)
	assert.Equal(t, 200, rec.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(rec.BodyJSON))

	// expired rows are misses
	_, ok, err = st.GetIdempotency(context.Background(), 1, "/v1/products:upsert", "old")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
