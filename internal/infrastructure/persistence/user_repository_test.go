package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toms/backend/internal/domain/identity"
	"github.com/toms/backend/internal/domain/shared"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockUserRepository creates a GormUserRepository with a mocked SQL connection
func newMockUserRepository(t *testing.T) (*GormUserRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormUserRepository(gormDB), mock, mockDB
}

func TestNewGormUserRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormUserRepository_FindByID(t *testing.T) {
	t.Run("finds user by ID", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		userID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "username", "display_name", "role", "status"}).
			AddRow(userID, "dcruz", "Diana Cruz", "director", "active")

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(userID, 1).
			WillReturnRows(rows)

		user, err := repo.FindByID(context.Background(), userID)

		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "dcruz", user.Username)
		assert.Equal(t, identity.RoleDirector, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent user", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		userID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(userID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.FindByID(context.Background(), userID)

		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUserRepository_FindByUsername(t *testing.T) {
	t.Run("finds user case-insensitively", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		userID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "username", "display_name", "role", "status"}).
			AddRow(userID, "jsantos", "Juan Santos", "personnel", "active")

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE LOWER\(username\) = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("jsantos", 1).
			WillReturnRows(rows)

		user, err := repo.FindByUsername(context.Background(), "JSantos") // mixed case to test lowering

		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, "jsantos", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for unknown username", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE LOWER\(username\) = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("nobody", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.FindByUsername(context.Background(), "nobody")

		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUserRepository_FindAll(t *testing.T) {
	t.Run("returns paginated users", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows([]string{"id", "username", "display_name", "role", "status"}).
			AddRow(uuid.New(), "dcruz", "Diana Cruz", "director", "active").
			AddRow(uuid.New(), "jsantos", "Juan Santos", "personnel", "active")

		mock.ExpectQuery(`SELECT \* FROM "users" ORDER BY username ASC LIMIT .*`).
			WithArgs(10).
			WillReturnRows(rows)

		result, err := repo.FindAll(context.Background(), shared.Filter{
			Page:     1,
			PageSize: 10,
			OrderBy:  "username",
			OrderDir: "asc",
		})

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, int64(2), result.Total)
		assert.Equal(t, 1, result.Page)
		assert.Len(t, result.Items, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies role filter", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE role = \$1`).
			WithArgs("director").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows([]string{"id", "username", "display_name", "role", "status"}).
			AddRow(uuid.New(), "dcruz", "Diana Cruz", "director", "active")

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE role = \$1 ORDER BY username ASC LIMIT .*`).
			WithArgs("director", 10).
			WillReturnRows(rows)

		result, err := repo.FindAll(context.Background(), shared.Filter{
			Page:     1,
			PageSize: 10,
			OrderBy:  "username",
			OrderDir: "asc",
			Filters:  map[string]interface{}{"role": "director"},
		})

		assert.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, int64(1), result.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown sort field", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		// falls back to the default sort field
		mock.ExpectQuery(`SELECT \* FROM "users" ORDER BY username DESC LIMIT .*`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

		_, err := repo.FindAll(context.Background(), shared.Filter{
			Page:     1,
			PageSize: 10,
			OrderBy:  "password_hash; DROP TABLE users",
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUserRepository_FindByRole(t *testing.T) {
	t.Run("finds users by role", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "username", "display_name", "role", "status"}).
			AddRow(uuid.New(), "dcruz", "Diana Cruz", "director", "active").
			AddRow(uuid.New(), "mreyes", "Marco Reyes", "director", "active")

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE role = \$1 ORDER BY username ASC`).
			WithArgs("director").
			WillReturnRows(rows)

		users, err := repo.FindByRole(context.Background(), identity.RoleDirector)

		assert.NoError(t, err)
		assert.Len(t, users, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUserRepository_Delete(t *testing.T) {
	t.Run("deletes existing user", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		userID := uuid.New()

		mock.ExpectExec(`DELETE FROM "users" WHERE id = \$1`).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), userID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when user does not exist", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		userID := uuid.New()

		mock.ExpectExec(`DELETE FROM "users" WHERE id = \$1`).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), userID)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUserRepository_Count(t *testing.T) {
	t.Run("counts all users", func(t *testing.T) {
		repo, mock, mockDB := newMockUserRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.Count(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
