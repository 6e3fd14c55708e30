package audit

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestRecordInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	recorder, err := NewPostgresRecorderWithPool(mock, "conversions")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := Record{
		ID:            "uuid-v7",
		Source:        "s3://bucket/docs/report.pdf",
		Outcome:       "success",
		CorrelationID: "abc123",
		Duration:      1500 * time.Millisecond,
		CreatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO conversions").
		WithArgs(
			rec.ID,
			rec.Source,
			rec.Outcome,
			rec.CorrelationID,
			rec.ErrorMessage,
			int64(1500),
			rec.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = recorder.Record(context.Background(), rec)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	recorder, err := NewPostgresRecorderWithPool(mock, "")
	require.NoError(t, err)

	err = recorder.Record(context.Background(), Record{Source: "s3://b/k.pdf"})
	require.Error(t, err)
}

func TestNewPostgresRecorderWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresRecorderWithPool(mock, "bad;drop")
	require.Error(t, err)
}

func TestMemoryRecorder(t *testing.T) {
	t.Parallel()

	m := NewMemoryRecorder()
	require.NoError(t, m.Record(context.Background(), Record{ID: "1", Outcome: "success"}))
	require.NoError(t, m.Record(context.Background(), Record{ID: "2", Outcome: "validation"}))

	recs := m.Records()
	require.Len(t, recs, 2)
	require.Equal(t, "success", recs[0].Outcome)
}
