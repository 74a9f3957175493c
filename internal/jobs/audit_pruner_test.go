package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"mdmportal/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPruner struct {
	got time.Duration
	err error
}

func (s *stubPruner) Prune(_ context.Context, retention time.Duration) (int64, error) {
	s.got = retention
	return 3, s.err
}

func TestAuditPruner_RunOnceUsesRetention(t *testing.T) {
	stub := &stubPruner{}
	p := NewAuditPruner(stub, 30, "0 3 * * *", logger.Discard())

	p.RunOnce(context.Background())
	assert.Equal(t, 30*24*time.Hour, stub.got)

	stub.err = errors.New("db down")
	p.RunOnce(context.Background())
}

func TestAuditPruner_StartValidatesSchedule(t *testing.T) {
	p := NewAuditPruner(&stubPruner{}, 30, "not a schedule", logger.Discard())
	assert.Error(t, p.Start())

	p = NewAuditPruner(&stubPruner{}, 30, "0 3 * * *", logger.Discard())
	require.NoError(t, p.Start())
	p.Stop()

	p = NewAuditPruner(&stubPruner{}, 0, "not a schedule", logger.Discard())
	assert.NoError(t, p.Start())
}
