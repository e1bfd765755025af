package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/identra/identra/config"
	"github.com/identra/identra/database"
	"github.com/identra/identra/database/model"
	"github.com/identra/identra/logger"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "identra-log")
	if err != nil {
		panic(err)
	}
	os.Setenv("IDENTRA_LOG_FOLDER", dir)
	logger.InitLogger(logging.DEBUG)
	code := m.Run()
	logger.CloseLogger()
	os.RemoveAll(dir)
	os.Exit(code)
}

func setupDB(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "identra-test.db")
	require.NoError(t, database.InitDB(dbPath))
	t.Cleanup(func() {
		_ = database.CloseDB()
	})
}

func newUserService() UserService {
	return UserService{Options: config.DefaultIdentityOptions()}
}

func TestRegisterAndDuplicate(t *testing.T) {
	setupDB(t)
	svc := newUserService()

	user, roles, err := svc.Register("alice@example.com", "secret", "Alice", "Smith", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, user.Id)
	assert.Equal(t, "alice@example.com", user.UserName)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.SecurityStamp)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.Equal(t, []string{"admin"}, roles)

	_, _, err = svc.Register("alice@example.com", "other", "Alice", "Smith", "admin")
	assert.ErrorIs(t, err, ErrUserExists)

	// only one user row exists
	var count int64
	require.NoError(t, database.GetDB().Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterReusesRole(t *testing.T) {
	setupDB(t)
	svc := newUserService()

	_, _, err := svc.Register("a@example.com", "pw", "A", "One", "member")
	require.NoError(t, err)
	_, _, err = svc.Register("b@example.com", "pw", "B", "Two", "member")
	require.NoError(t, err)
	_, _, err = svc.Register("c@example.com", "pw", "C", "Three", "admin")
	require.NoError(t, err)

	var count int64
	require.NoError(t, database.GetDB().Model(&model.Role{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "one role record per distinct name")
}

func TestAuthenticate(t *testing.T) {
	setupDB(t)
	svc := newUserService()

	registered, _, err := svc.Register("bob@example.com", "hunter2", "Bob", "Stone", "member")
	require.NoError(t, err)

	_, _, err = svc.Authenticate("nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = svc.Authenticate("bob@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	user, roles, err := svc.Authenticate("bob@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.Id, user.Id)
	assert.Equal(t, []string{"member"}, roles)
}

func TestAuthenticateLockout(t *testing.T) {
	setupDB(t)
	opts := config.DefaultIdentityOptions()
	opts.Lockout.MaxFailedAttempts = 3
	svc := UserService{Options: opts}

	_, _, err := svc.Register("eve@example.com", "correct", "Eve", "Gray", "member")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err = svc.Authenticate("eve@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	}

	// threshold reached: even the correct password is rejected
	_, _, err = svc.Authenticate("eve@example.com", "correct")
	assert.ErrorIs(t, err, ErrUserLockedOut)

	// once the window has passed the user can log in again
	past := time.Now().Add(-time.Minute)
	require.NoError(t, database.GetDB().Model(&model.User{}).
		Where("user_name = ?", "eve@example.com").
		Update("lockout_end", past).Error)

	user, _, err := svc.Authenticate("eve@example.com", "correct")
	require.NoError(t, err)

	// counters were reset by the successful login
	fresh, _, err := svc.GetUser(user.Id)
	require.NoError(t, err)
	assert.Zero(t, fresh.AccessFailedCount)
	assert.Nil(t, fresh.LockoutEnd)
}

func TestLockoutDisabled(t *testing.T) {
	setupDB(t)
	opts := config.DefaultIdentityOptions()
	opts.Lockout.EnabledForNewUsers = false
	svc := UserService{Options: opts}

	_, _, err := svc.Register("max@example.com", "pw", "Max", "Stern", "member")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, _, err = svc.Authenticate("max@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	}

	_, _, err = svc.Authenticate("max@example.com", "pw")
	assert.NoError(t, err)
}

func TestPasswordPolicy(t *testing.T) {
	setupDB(t)
	opts := config.DefaultIdentityOptions()
	opts.Password.RequiredLength = 8
	opts.Password.RequireDigit = true
	svc := UserService{Options: opts}

	_, _, err := svc.Register("pat@example.com", "short', no digit", "Pat", "Low", "member")
	var policyErr *PasswordPolicyError
	require.ErrorAs(t, err, &policyErr)
	assert.Contains(t, policyErr.Reasons, "digit required")

	_, _, err = svc.Register("pat@example.com", "longenough1", "Pat", "Low", "member")
	assert.NoError(t, err)
}

func TestGetUserAndSecurityStamp(t *testing.T) {
	setupDB(t)
	svc := newUserService()

	registered, _, err := svc.Register("kim@example.com", "pw", "Kim", "Field", "admin")
	require.NoError(t, err)

	user, roles, err := svc.GetUser(registered.Id)
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", user.Email)
	assert.Equal(t, []string{"admin"}, roles)

	stamp, err := svc.GetSecurityStamp(registered.Id)
	require.NoError(t, err)
	assert.Equal(t, registered.SecurityStamp, stamp)

	_, _, err = svc.GetUser("missing-id")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetSecurityStamp("missing-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	setupDB(t)
	svc := newUserService()

	_, _, err := svc.Register("a@example.com", "pw", "A", "One", "admin")
	require.NoError(t, err)
	_, _, err = svc.Register("b@example.com", "pw", "B", "Two", "member")
	require.NoError(t, err)

	users, err := svc.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].UserName)
	assert.Equal(t, []string{"admin"}, users[0].Roles)
	assert.Equal(t, []string{"member"}, users[1].Roles)
}
