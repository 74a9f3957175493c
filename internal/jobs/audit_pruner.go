// Package jobs holds scheduled maintenance for the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Pruner deletes audit entries older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditPruner runs Pruner on a cron schedule.
type AuditPruner struct {
	pruner    Pruner
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	entry     cron.EntryID
	log       logrus.FieldLogger
}

func NewAuditPruner(pruner Pruner, retentionDays int, schedule string, log logrus.FieldLogger) *AuditPruner {
	return &AuditPruner{
		pruner:    pruner,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		schedule:  schedule,
		cron:      cron.New(),
		log:       log.WithField("job", "audit_prune"),
	}
}

// Start registers the job and starts the scheduler.
func (p *AuditPruner) Start() error {
	if p.retention <= 0 {
		p.log.Info("audit retention disabled, pruning not scheduled")
		return nil
	}
	id, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(context.Background()) })
	if err != nil {
		return fmt.Errorf("invalid audit prune schedule %q: %w", p.schedule, err)
	}
	p.entry = id
	p.cron.Start()
	p.log.WithField("next_run", p.cron.Entry(id).Next).Info("audit pruning scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running prune to finish.
func (p *AuditPruner) Stop() {
	<-p.cron.Stop().Done()
}

// RunOnce prunes immediately.
func (p *AuditPruner) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	n, err := p.pruner.Prune(ctx, p.retention)
	if err != nil {
		p.log.WithError(err).Error("audit pruning failed")
		return
	}
	p.log.WithField("deleted", n).Info("audit log pruned")
}
