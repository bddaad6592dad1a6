package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestProfileStore_Get_Missing(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := NewProfileStore(mock)

	mock.ExpectQuery(`FROM listener_profiles`).
		WithArgs(testTenant, "ann").
		WillReturnError(pgx.ErrNoRows)

	p, err := s.Get(context.Background(), testTenant, "ann")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestProfileStore_Upsert_WholeRecord(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	s := NewProfileStore(mock)

	mock.ExpectQuery(`ON CONFLICT \(tenant_id, username\)`).
		WithArgs(testTenant, "ann", "Ann", "Kathmandu").
		WillReturnRows(pgxmock.NewRows([]string{
			"tenant_id", "username", "full_name", "address", "updated_at",
		}).AddRow(testTenant, "ann", "Ann", "Kathmandu", time.Now()))

	p, err := s.Upsert(context.Background(), testTenant, "ann", "Ann", "Kathmandu")
	require.NoError(t, err)
	require.Equal(t, "Ann", p.FullName)
	require.Equal(t, "Kathmandu", p.Address)
	require.NoError(t, mock.ExpectationsWereMet())
}
