package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/seoscan/internal/domain/scanerrors"
)

func TestScanErrorRepository_SaveDefaults(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("INSERT INTO scan_errors").
		WithArgs("s1", "audit", "-", `{"raw":"not json"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	e := &domain.ScanError{ScanID: "s1", Phase: domain.PhaseAudit, DetailsJSON: "not json"}
	require.NoError(t, NewScanErrorRepository(sqlDB).Save(context.Background(), e))
	assert.Equal(t, int64(7), e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanErrorRepository_ListByScan(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM scan_errors").
		WithArgs("s1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scan_id", "phase", "message", "details_json", "created_at"}).
			AddRow(2, "s1", "persist", "deadlock", "{}", ts).
			AddRow(1, "s1", "suggest", "quota", "{}", ts))

	got, err := NewScanErrorRepository(sqlDB).ListByScan(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.PhasePersist, got[0].Phase)
}
