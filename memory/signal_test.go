//go:build unix

package memory

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestMemory_ClearOnSignal(t *testing.T) {
	c := New(Options[int]{})
	c.Store("a", 1)
	c.Store("b", 2)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := c.ClearOnSignal(ctx, syscall.SIGUSR2)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatalf("kill: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("tier not cleared, Len=%d", c.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
