package party

import (
	"context"
	"log"
	"time"
)

// Ready writes the local member's ready token: the current ready key when
// marking ready, a never-matching sentinel otherwise. There is no server-side
// "everyone is ready" transaction; each client reconstructs the aggregate
// from these tokens.
func (c *Coordinator) Ready(ctx context.Context, ready bool) error {
	value := notReadySentinel
	if ready {
		c.mu.Lock()
		value = c.readyKeyLocked()
		c.mu.Unlock()
	}
	return c.SetMemberProperty(ctx, MemberPropReady, value)
}

// BufferedReady is the UI-facing ready toggle. Un-readying applies
// immediately; readying waits out a short debounce window so a double-tapped
// toggle produces a single remote write. A newer call supersedes a pending
// one.
func (c *Coordinator) BufferedReady(ctx context.Context, ready bool) error {
	c.cancelPendingReady()

	c.mu.Lock()
	c.localReadyStatus.Set(ready)
	c.mu.Unlock()

	if !ready {
		c.mu.Lock()
		lm := c.localMemberLocked()
		wasReady := lm != nil && lm.ReadyVersion() == c.readyKeyLocked()
		c.mu.Unlock()
		if !wasReady {
			// Remote token already not matching; nothing to write.
			return nil
		}
		return c.Ready(ctx, false)
	}

	c.timerMu.Lock()
	c.readyTimer = time.AfterFunc(c.cfg.ReadyDebounce, func() {
		if err := c.Ready(context.Background(), true); err != nil {
			log.Printf("party: buffered ready write failed: %v", err)
		}
	})
	c.timerMu.Unlock()
	return nil
}

// cancelPendingReady stops a pending buffered ready write, if any.
func (c *Coordinator) cancelPendingReady() {
	c.timerMu.Lock()
	if c.readyTimer != nil {
		c.readyTimer.Stop()
		c.readyTimer = nil
	}
	c.timerMu.Unlock()
}
