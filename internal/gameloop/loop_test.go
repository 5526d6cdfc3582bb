package gameloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoopTicksAtFixedRateAndEvictsOnSeparateCadence(t *testing.T) {
	var ticks, evictions int
	l := New(Config{TickRate: 5 * time.Millisecond, MaxTicksPerLoop: 10, EvictionInterval: 20 * time.Millisecond},
		zap.NewNop(),
		func(dt time.Duration) { ticks++ },
		func() { evictions++ },
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	l.Run(ctx)

	assert.Greater(t, ticks, 0)
	assert.Greater(t, evictions, 0)
}
