package framework

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLoopPriorityAndMessages(t *testing.T) {
	l := NewLoop()
	var order []string
	var taken []Message
	l.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		order = append(order, "idle")
		cc.Messages().ProcessMessages(func(msg Message) bool {
			taken = append(taken, msg)
			return true
		})
		return nil
	}))
	l.AddController(PrLvHigh, ControlFunc(func(cc ControlContext) error {
		order = append(order, "high")
		cc.Messages().ProcessMessages(func(msg Message) bool {
			return msg == "mine"
		})
		return errors.New("logged and ignored")
	}))

	l.PostMessage("mine")
	l.PostMessage("other")
	l.RunOnce(context.Background())
	require.Equal(t, []string{"high", "idle"}, order)
	require.Equal(t, []Message{"other"}, taken)

	// messages do not survive the iteration.
	taken = nil
	l.RunOnce(context.Background())
	require.Empty(t, taken)
}

func TestLoopRunTriggerNext(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	iterCh := make(chan Message, 4)
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(msg Message) bool {
			iterCh <- msg
			return true
		})
		return nil
	}))
	started := make(chan struct{})
	l.AddRunnable(runFunc(func(ctx context.Context) error {
		lc := LoopCtlFrom(ctx)
		close(started)
		lc.PostMessage("ping")
		lc.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	<-started
	select {
	case msg := <-iterCh:
		require.Equal(t, "ping", msg)
	case <-time.After(time.Second):
		t.Fatal("iteration not triggered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRunnerAggregatesErrors(t *testing.T) {
	r := NewRunner()
	r.Go(
		NamedRun("ok", runFunc(func(context.Context) error { return nil })),
		runFunc(func(context.Context) error { return errors.New("e1") }),
		runFunc(func(context.Context) error { return context.Canceled }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.Equal(t, "runner 1: e1", err.Error())

	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), errors.New("b"))
	require.Equal(t, "2 errors:\n  a\n  b", errs.Error())
}

func TestAggregatedErrorUnwrap(t *testing.T) {
	errBusy := errors.New("busy")
	var errs AggregatedError
	errs.Add(errors.New("a"), errors.Wrap(errBusy, "writer 2"))
	err := errs.Aggregate()
	require.True(t, errors.Is(err, errBusy))
	require.False(t, errors.Is(err, context.Canceled))

	r := NewRunner()
	r.Go(NamedRun("line", runFunc(func(context.Context) error { return errBusy })))
	err = r.Wait()
	require.True(t, errors.Is(err, errBusy))
	require.Equal(t, "runner line: busy", err.Error())
}

func TestRunnerIgnoresWrappedCancel(t *testing.T) {
	r := NewRunner()
	r.Go(runFunc(func(context.Context) error {
		return errors.Wrap(context.Canceled, "loop")
	}))
	require.NoError(t, r.Wait())
}

func TestRunnerFinally(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	stopped := make(chan struct{})
	r := NewRunnerWith(ctx)
	r.Go(NamedRun("loop", runFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}))).Finally(
		func() { order = append(order, "serial") },
		func() {
			select {
			case <-stopped:
				order = append(order, "led")
			default:
				order = append(order, "led before stop")
			}
		},
	)
	cancel()
	require.NoError(t, r.Wait())
	require.Equal(t, []string{"led", "serial"}, order)
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopCh := make(chan struct{})
	go cancel()
	err := RunWithContextCancel(ctx, func() { close(stopCh) }, func() error {
		<-stopCh
		return nil
	})
	require.Equal(t, context.Canceled, err)

	err = RunWithContextCancel(context.Background(), nil, func() error { return errors.New("done") })
	require.EqualError(t, err, "done")
}
