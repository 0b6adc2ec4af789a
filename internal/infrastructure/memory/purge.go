package memory

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SchedulePurge registers a cron job that drops expired session markers.
// The caller owns c and is responsible for starting and stopping it.
func SchedulePurge(c *cron.Cron, spec string, repo *SessionStateRepository, logger *slog.Logger) error {
	_, err := c.AddFunc(spec, func() {
		if n := repo.Purge(); n > 0 {
			logger.Debug("purged expired session markers", "count", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule purge %q: %w", spec, err)
	}
	return nil
}
