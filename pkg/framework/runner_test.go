package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testCloser struct {
	closed chan struct{}
}

func (c *testCloser) Close() error {
	close(c.closed)
	return nil
}

func TestRunnerWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx)
	r.Go(
		NamedRun("done", RunnableFunc(func(context.Context) error { return nil })),
		RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		RunnableFunc(func(context.Context) error { return errors.New("failed") }),
	)
	cancel()
	err := r.Wait()
	require.Error(t, err)
	var agg *AggregatedError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Errors, 1)
	require.Equal(t, "failed", agg.Errors[0].Error())
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	closer := &testCloser{closed: make(chan struct{})}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-closer.closed
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)

	closer = &testCloser{closed: make(chan struct{})}
	err = RunWithContextCloser(context.Background(), closer, func() error { return nil })
	require.NoError(t, err)
	<-closer.closed
}

func TestAggregatedError(t *testing.T) {
	errs := &AggregatedError{}
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	err := errs.Add(errors.New("a"), nil, errors.New("b")).Aggregate()
	require.Equal(t, "Multiple errors:\na\nb", err.Error())
}

func TestAggregatedErrorIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := (&AggregatedError{}).Add(errors.New("a"), sentinel).Aggregate()
	require.True(t, errors.Is(err, sentinel))
	require.False(t, errors.Is(err, context.Canceled))
}
