package global

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestEnvironment(t *testing.T) {
	env := NewEnvironment(nil, nil)
	require.NotNil(t, env.Log())
	require.Nil(t, env.MetricsRegistry())

	reg := prometheus.NewRegistry()
	env = NewEnvironment(nil, reg)
	require.True(t, reg == env.MetricsRegistry())
	require.Contains(t, BannerString(), Version)
}

func TestRepeatInBackground(t *testing.T) {
	t.Run("stop by false", func(t *testing.T) {
		var cnt atomic.Int32
		done := make(chan struct{})
		RepeatInBackground(context.Background(), NewEnvironment(nil, nil), "test", time.Millisecond, func() bool {
			if cnt.Inc() == 3 {
				close(done)
				return false
			}
			return true
		})
		<-done
		time.Sleep(10 * time.Millisecond)
		require.EqualValues(t, 3, cnt.Load())
	})
	t.Run("stop by ctx", func(t *testing.T) {
		var cnt atomic.Int32
		ctx, cancel := context.WithCancel(context.Background())
		RepeatInBackground(ctx, NewEnvironment(nil, nil), "test", time.Hour, func() bool {
			cnt.Inc()
			return true
		}, true)
		cancel()
		time.Sleep(10 * time.Millisecond)
		require.EqualValues(t, 0, cnt.Load())
	})
}
