package job

import (
	"github.com/identra/identra/database"
	"github.com/identra/identra/logger"
)

// CheckpointJob flushes the SQLite write-ahead log into the main database
// file once a day.
type CheckpointJob struct{}

func NewCheckpointJob() *CheckpointJob {
	return new(CheckpointJob)
}

func (j *CheckpointJob) Run() {
	if err := database.Checkpoint(); err != nil {
		logger.Warning("checkpoint job err:", err)
	}
}
