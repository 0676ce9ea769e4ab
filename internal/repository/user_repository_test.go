package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserRepoMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func TestUserRepoCreate(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("alice@plant.example", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "  Alice@Plant.Example ", "correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	_, err := repo.Create(context.Background(), "alice@plant.example", "correct horse", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepoGetByEmail(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	now := time.Now()
	mock.ExpectQuery("SELECT id,email,password_hash,is_active,created_at FROM users WHERE email").
		WithArgs("alice@plant.example").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "created_at"}).
			AddRow(7, "alice@plant.example", "$2a$hash", true, now))

	u, err := repo.GetByEmail(context.Background(), "Alice@Plant.Example")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "alice@plant.example", u.Email)
	assert.True(t, u.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	mock.ExpectQuery("SELECT id,email,password_hash,is_active,created_at FROM users WHERE id").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepoGrants(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	mock.ExpectQuery("SELECT r.name FROM roles r").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Supervisor").AddRow("Technician"))
	mock.ExpectQuery("SELECT DISTINCT p.code FROM permissions p").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).
			AddRow("equipment.read").AddRow("equipment.write"))

	roles, perms, err := repo.Grants(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Supervisor", "Technician"}, roles)
	assert.Equal(t, []string{"equipment.read", "equipment.write"}, perms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGrantsEmpty(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	mock.ExpectQuery("SELECT r.name FROM roles r").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectQuery("SELECT DISTINCT p.code FROM permissions p").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"code"}))

	roles, perms, err := repo.Grants(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, roles)
	assert.Empty(t, perms)
}

func TestUserRepoCountWithRole(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_roles ur`).
		WithArgs("Admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountWithRole(context.Background(), "Admin")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserRepoSetActive(t *testing.T) {
	repo, mock := newUserRepoMock(t)

	mock.ExpectExec("UPDATE users SET is_active").
		WithArgs(false, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), 7, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
