package singleflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestDo_CoalescesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g Group[string]
	var calls atomic.Int32
	release := make(chan struct{})

	const n = 32
	var started sync.WaitGroup
	started.Add(n)

	var eg errgroup.Group
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			started.Done()
			v, err, _ := g.Do(context.Background(), "k", func() (string, error) {
				calls.Add(1)
				<-release
				return "v", nil
			})
			if err != nil {
				return err
			}
			if v != "v" {
				return errors.New("unexpected value " + v)
			}
			return nil
		})
	}

	started.Wait()
	time.Sleep(10 * time.Millisecond)
	close(release)

	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got < 1 || got > n {
		t.Fatalf("fn call count out of range: %d", got)
	}
}

func TestDo_FollowerContextCancel(t *testing.T) {
	t.Parallel()

	var g Group[int]
	release := make(chan struct{})
	leaderIn := make(chan struct{})

	go func() {
		_, _, _ = g.Do(context.Background(), "k", func() (int, error) {
			close(leaderIn)
			<-release
			return 1, nil
		})
	}()
	<-leaderIn

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err, shared := g.Do(ctx, "k", func() (int, error) { return 2, nil })
	if !errors.Is(err, context.Canceled) || !shared {
		t.Fatalf("follower must observe ctx cancel, got err=%v shared=%v", err, shared)
	}
	close(release)
}

func TestDo_SequentialCallsRunAgain(t *testing.T) {
	t.Parallel()

	var g Group[int]
	var calls int
	for i := 0; i < 3; i++ {
		v, err, shared := g.Do(context.Background(), "k", func() (int, error) {
			calls++
			return calls, nil
		})
		if err != nil || shared || v != i+1 {
			t.Fatalf("call %d: v=%d err=%v shared=%v", i, v, err, shared)
		}
	}
}
