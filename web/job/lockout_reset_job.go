// Package job contains the scheduled maintenance jobs run by the web server.
package job

import (
	"time"

	"github.com/identra/identra/database"
	"github.com/identra/identra/database/model"
	"github.com/identra/identra/logger"

	"go.uber.org/atomic"
)

// LockoutResetJob zeroes the failed-login counters of users whose lockout
// window has passed.
type LockoutResetJob struct {
	running atomic.Bool
}

func NewLockoutResetJob() *LockoutResetJob {
	return new(LockoutResetJob)
}

// Run is the cron entrypoint. Overlapping runs are skipped.
func (j *LockoutResetJob) Run() {
	if !j.running.CompareAndSwap(false, true) {
		return
	}
	defer j.running.Store(false)

	db := database.GetDB()
	result := db.Model(model.User{}).
		Where("lockout_end IS NOT NULL AND lockout_end <= ?", time.Now()).
		Updates(map[string]any{"access_failed_count": 0, "lockout_end": nil})
	if result.Error != nil {
		logger.Warning("lockout reset job err:", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		logger.Debugf("lockout reset job cleared %d user(s)", result.RowsAffected)
	}
}
