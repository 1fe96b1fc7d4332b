package drivekit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCallGet(t *testing.T) {
	ctx := context.Background()

	var runs atomic.Int32
	call := NewCall(func(context.Context) (int, error) {
		return int(runs.Add(1)), nil
	})
	if runs.Load() != 0 {
		t.Fatal("NewCall executed eagerly")
	}
	for want := 1; want <= 3; want++ {
		got, err := call.Get(ctx)
		if err != nil || got != want {
			t.Errorf("Get() = (%d, %v), want (%d, nil)", got, err, want)
		}
	}

	boom := errors.New("boom")
	failing := NewCall(func(context.Context) (string, error) { return "ignored", boom })
	if v, err := failing.Get(ctx); !errors.Is(err, boom) || v != "" {
		t.Errorf("Get() = (%q, %v), want (\"\", boom)", v, err)
	}
}

func TestCallGetCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	call := NewCall(func(context.Context) (int, error) {
		ran = true
		return 1, nil
	})
	if _, err := call.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("cancelled call reached its execution")
	}
}

func TestCallUnbound(t *testing.T) {
	var nilCall *Call[string]
	if _, err := nilCall.Get(context.Background()); !errors.Is(err, ErrInvalidService) {
		t.Errorf("nil call Get() error = %v, want ErrInvalidService", err)
	}
	if _, err := new(Call[string]).Get(context.Background()); !errors.Is(err, ErrInvalidService) {
		t.Errorf("unbound call Get() error = %v, want ErrInvalidService", err)
	}
}

func TestCallBoundResults(t *testing.T) {
	ctx := context.Background()

	call := new(Call[*ResultSet])
	call.bind(func(context.Context) (any, error) { return nil, nil }, "Svc.Nil")
	if rs, err := call.Get(ctx); err != nil || rs != nil {
		t.Errorf("Get() = (%v, %v), want the zero value", rs, err)
	}

	wrong := new(Call[int])
	wrong.bind(func(context.Context) (any, error) { return "text", nil }, "Svc.Wrong")
	_, err := wrong.Get(ctx)
	if !errors.Is(err, ErrResultType) {
		t.Fatalf("Get() error = %v, want ErrResultType", err)
	}
	if want := "unexpected result type: Svc.Wrong produced string, want int"; err.Error() != want {
		t.Errorf("Get() error = %q, want %q", err, want)
	}

	if rt := wrong.resultType(); rt.Kind().String() != "int" {
		t.Errorf("resultType() = %v, want int", rt)
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	call := NewCall(func(context.Context) (string, error) { return "ok", nil })

	schedulers := map[string]Scheduler{
		"nil":        nil,
		"immediate":  Immediate,
		"background": Background,
		"bounded":    NewBoundedScheduler(2),
	}
	for name, s := range schedulers {
		t.Run(name, func(t *testing.T) {
			ch := call.Subscribe(ctx, s)
			res, ok := <-ch
			if !ok {
				t.Fatal("channel closed without a result")
			}
			if res.Err != nil || res.Value != "ok" {
				t.Errorf("result = %+v, want ok", res)
			}
			if _, ok := <-ch; ok {
				t.Error("channel delivered more than one result")
			}
		})
	}
}

func TestSubscribeImmediateRunsInline(t *testing.T) {
	ran := false
	call := NewCall(func(context.Context) (int, error) {
		ran = true
		return 0, nil
	})
	ch := call.Subscribe(context.Background(), Immediate)
	if !ran {
		t.Error("Immediate did not run the call before returning")
	}
	<-ch
}

func TestBoundedSchedulerLimitsConcurrency(t *testing.T) {
	const limit = 2
	s := NewBoundedScheduler(limit)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		s.Schedule(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Errorf("peak concurrency = %d, want at most %d", p, limit)
	}
}

func TestNewBoundedSchedulerClampsLimit(t *testing.T) {
	s := NewBoundedScheduler(0)
	done := make(chan struct{})
	s.Schedule(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler with a clamped limit never ran the work")
	}
}
