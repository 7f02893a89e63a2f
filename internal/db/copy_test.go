package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "demand_points", []string{"lat", "lon"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"demand_points"}, []string{"lat", "lon", "weight"}).WillReturnResult(3)

	rows := [][]any{
		{6.15, -75.37, 870.0},
		{6.16, -75.37, 870.0},
		{6.17, -75.37, 870.0},
	}
	n, err := CopyFrom(context.Background(), mock, "demand_points", []string{"lat", "lon", "weight"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"demand_points"}, []string{"lat", "lon"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{6.15, -75.37}}
	_, err = CopyFrom(context.Background(), mock, "demand_points", []string{"lat", "lon"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO demand_points")
	assert.NoError(t, mock.ExpectationsWereMet())
}
