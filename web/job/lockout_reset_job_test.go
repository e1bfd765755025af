package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/identra/identra/database"
	"github.com/identra/identra/database/model"
	"github.com/identra/identra/logger"

	"github.com/op/go-logging"
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

func seedUser(t *testing.T, name string, failedCount int, lockoutEnd *time.Time) {
	t.Helper()
	user := &model.User{
		Id:                name,
		UserName:          name,
		Email:             name,
		PasswordHash:      "x",
		SecurityStamp:     "x",
		AccessFailedCount: failedCount,
		LockoutEnd:        lockoutEnd,
	}
	if err := database.GetDB().Create(user).Error; err != nil {
		t.Fatal(err)
	}
}

func TestLockoutResetJob(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "identra-test.db")
	if err := database.InitDB(dbPath); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = database.CloseDB()
	})

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	seedUser(t, "expired", 3, &past)
	seedUser(t, "active", 3, &future)
	seedUser(t, "clean", 0, nil)

	NewLockoutResetJob().Run()

	var users []model.User
	if err := database.GetDB().Order("user_name ASC").Find(&users).Error; err != nil {
		t.Fatal(err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}

	// active, clean, expired
	if users[0].LockoutEnd == nil || users[0].AccessFailedCount != 3 {
		t.Error("active lockout must stay in place")
	}
	if users[1].LockoutEnd != nil || users[1].AccessFailedCount != 0 {
		t.Error("untouched user must stay clean")
	}
	if users[2].LockoutEnd != nil || users[2].AccessFailedCount != 0 {
		t.Error("expired lockout must be cleared")
	}
}
