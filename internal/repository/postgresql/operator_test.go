package postgresql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	mock_database "gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository/postgresql"
)

func hashed(t *testing.T, password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestOperatorRepo_ValidateOperator(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
		getErr   error
		want     bool
		wantErr  bool
	}{
		{name: "valid password", password: "s3cret", want: true},
		{name: "wrong password", password: "nope", want: false},
		{name: "unknown operator", password: "s3cret", getErr: pgx.ErrNoRows, want: false},
		{name: "database error", password: "s3cret", getErr: errors.New("conn reset"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := mock_database.NewMockDB(ctrl)
			repo := postgresql.NewOperatorRepo(mockDB)

			stored := hashed(t, "s3cret")
			mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), "admin").
				DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
					if tt.getErr != nil {
						return tt.getErr
					}
					op := dest.(*repository.Operator)
					op.Username = "admin"
					op.Password = stored
					return nil
				})

			ok, err := repo.ValidateOperator(ctx, "admin", tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestOperatorRepo_EnsureOperator(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing operator", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOperatorRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), "admin").Return(pgx.ErrNoRows)
		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), "admin", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(args[1].(string)), []byte("pw")))
				return nil, nil
			})

		created, err := repo.EnsureOperator(ctx, "admin", "pw")
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("keeps existing operator", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOperatorRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), "admin").Return(nil)

		created, err := repo.EnsureOperator(ctx, "admin", "pw")
		require.NoError(t, err)
		assert.False(t, created)
	})
}

func TestNotFoundDetection(t *testing.T) {
	assert.True(t, pgxscan.NotFound(pgx.ErrNoRows))
}
