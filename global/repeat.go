package global

import (
	"context"
	"time"
)

// RepeatInBackground calls fun every period until it returns false or context is cancelled
func RepeatInBackground(ctx context.Context, env Logging, name string, period time.Duration, fun func() bool, skipFirst ...bool) {
	env.Log().Infof("[%s] STARTED", name)

	go func() {
		defer env.Log().Infof("[%s] STOPPED", name)

		if len(skipFirst) == 0 || !skipFirst[0] {
			if !fun() {
				return
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(period):
				if !fun() {
					return
				}
			}
		}
	}()
}
