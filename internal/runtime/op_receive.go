package runtime

import (
	"sync"
	"time"

	"github.com/plasmagraph/plasmadb/internal/plan"
)

// buildReceive merges left's output with the dynamic set of remote
// streams traverse operators push onto the shared meta-channel — a
// stream-of-streams. It closes once left has closed and the
// meta-channel itself has closed and
// every remote stream accepted from it has also closed or timed out.
//
// All wg.Add calls happen inside the single goroutine that ranges over
// remotesCh, strictly before the wg.Wait() that follows the range
// loop's exit — so there is no window where Wait could observe a zero
// count while a concurrent Add is still racing in.
func buildReceive(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	left := ins[0]
	timeout := argDuration(op.Args, "timeout")

	forward := func(wg *sync.WaitGroup, s <-chan PT) {
		defer wg.Done()
		var timer *time.Timer
		var timerC <-chan time.Time
		if timeout > 0 {
			timer = time.NewTimer(timeout)
			timerC = timer.C
			defer timer.Stop()
		}
		for {
			select {
			case pt, ok := <-s:
				if !ok {
					return
				}
				if timer != nil {
					if !timer.Stop() {
						<-timerC
					}
					timer.Reset(timeout)
				}
				if !send(ec.ctx, out, pt) {
					return
				}
			case <-timerC:
				return
			case <-ec.ctx.Done():
				return
			}
		}
	}

	ec.group.Go(func() error {
		var wg sync.WaitGroup

		wg.Add(1)
		go func() {
			defer wg.Done()
			for pt := range left {
				if !send(ec.ctx, out, pt) {
					return
				}
			}
		}()

		for s := range ec.remotes {
			wg.Add(1)
			go forward(&wg, s)
		}

		wg.Wait()
		close(out)
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type})
		return nil
	})

	return out
}

func argDuration(args map[string]any, key string) time.Duration {
	switch v := args[key].(type) {
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v) * time.Millisecond
	default:
		return 0
	}
}
