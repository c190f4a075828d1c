package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS user_roles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, role)
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedUser(t *testing.T, repo *Repository, email string, roles ...string) uuid.UUID {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        email,
		PasswordHash: "$argon2id$stub",
		FirstName:    "Test",
		LastName:     "User",
		Roles:        roles,
	})
	require.NoError(t, err)
	return user.ID
}

func TestRepositoryCreateWithRoles(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	id := seedUser(t, repo, "finance@example.com", "Finance", "Manager")

	loaded, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "finance@example.com", loaded.Email)
	assert.ElementsMatch(t, []string{"Finance", "Manager"}, loaded.RoleNames())
}

func TestRepositoryFindByEmailPreloadsRoles(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	seedUser(t, repo, "mgr@example.com", "Manager")

	loaded, err := repo.FindByEmail(context.Background(), "mgr@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"Manager"}, loaded.RoleNames())

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryRolesOf(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	id := seedUser(t, repo, "multi@example.com", "Manager", "Director")

	roles, err := repo.RolesOf(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Director", "Manager"}, roles, "sorted by role name")

	roles, err = repo.RolesOf(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestRepositoryAssignRoleIdempotent(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	id := seedUser(t, repo, "a@example.com")

	require.NoError(t, repo.AssignRole(context.Background(), id, "Finance"))
	require.NoError(t, repo.AssignRole(context.Background(), id, "Finance"))

	roles, err := repo.RolesOf(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance"}, roles)
}

func TestRepositoryRevokeRole(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	id := seedUser(t, repo, "b@example.com", "Finance")

	removed, err := repo.RevokeRole(context.Background(), id, "Finance")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RevokeRole(context.Background(), id, "Finance")
	require.NoError(t, err)
	assert.False(t, removed)
}
