package seats

import (
	"time"

	"easybus/internal/events"
	"easybus/internal/shared/config"
	"easybus/pkg/cache"
)

func NewServiceWithClock(repo Repository, cacheSvc cache.Service, publisher events.Publisher, cfg *config.Config, now func() time.Time) Service {
	return newService(repo, cacheSvc, publisher, cfg, now)
}

func (j *ReleaseJob) SetClock(now func() time.Time) {
	j.now = now
}
