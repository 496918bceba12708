package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feelpp/aptforge/pkg/logging"
)

func TestContextFunctions(t *testing.T) {
	t.Run("WithComponent adds component to context", func(t *testing.T) {
		ctx := context.Background()
		ctx = logging.WithComponent(ctx, "mmg")

		// Extract logger and verify it has the component field
		logger := logging.FromContext(ctx)
		assert.NotNil(t, logger)
	})

	t.Run("WithChannel adds channel to context", func(t *testing.T) {
		ctx := context.Background()
		ctx = logging.WithChannel(ctx, "stable")

		logger := logging.FromContext(ctx)
		assert.NotNil(t, logger)
	})

	t.Run("WithDistribution adds distribution to context", func(t *testing.T) {
		ctx := context.Background()
		ctx = logging.WithDistribution(ctx, "ubuntu-24.04")

		logger := logging.FromContext(ctx)
		assert.NotNil(t, logger)
	})

	t.Run("WithPhase adds phase to context", func(t *testing.T) {
		ctx := context.Background()
		ctx = logging.WithPhase(ctx, "snapshot")

		logger := logging.FromContext(ctx)
		assert.NotNil(t, logger)
	})

	t.Run("WithFields adds custom fields to context", func(t *testing.T) {
		ctx := context.Background()
		fields := map[string]interface{}{
			"artifact": "mmg_5.8.0_amd64.deb",
			"size":     int64(124),
		}
		ctx = logging.WithFields(ctx, fields)

		logger := logging.FromContext(ctx)
		assert.NotNil(t, logger)
	})

	t.Run("FromContext returns logger from context", func(t *testing.T) {
		ctx := context.Background()

		// First call should create a new logger
		logger1 := logging.FromContext(ctx)
		assert.NotNil(t, logger1)

		// Add component and get logger again
		ctx = logging.WithComponent(ctx, "parmmg")
		logger2 := logging.FromContext(ctx)
		assert.NotNil(t, logger2)
	})

	t.Run("Ctx extracts logger from context", func(t *testing.T) {
		ctx := context.Background()
		ctx = logging.WithComponent(ctx, "feelpp")

		logger := logging.Ctx(ctx)
		assert.NotNil(t, logger)
	})

	t.Run("chaining context functions", func(t *testing.T) {
		ctx := context.Background()
		ctx = logging.WithChannel(ctx, "testing")
		ctx = logging.WithDistribution(ctx, "noble")
		ctx = logging.WithComponent(ctx, "mmg")
		ctx = logging.WithPhase(ctx, "stage")

		logger := logging.FromContext(ctx)
		assert.NotNil(t, logger)
	})

	t.Run("run ID round-trips and lands in log output", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithRunID(ctx, "20260823-101500")

		assert.Equal(t, "20260823-101500", logging.RunID(ctx))

		logging.FromContext(ctx).Info().Msg("publishing")
		assert.True(t, tl.Contains("20260823-101500"))
	})
}
