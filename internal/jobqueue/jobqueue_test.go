package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestCombineSumsCountersAndConcatenatesErrors(t *testing.T) {
	r1 := &Result{Checked: 2, Failed: 1, Errors: multierror.Append(nil, errors.New("boom"))}
	r2 := &Result{Checked: 3, Failed: 0}

	out := Combine(r1, r2, nil)
	require.Equal(t, 5, out.Checked)
	require.Equal(t, 1, out.Failed)
	require.Error(t, out.Errors)
}

func TestCombineCommutative(t *testing.T) {
	a := &Result{Checked: 1}
	b := &Result{Checked: 2}
	ab := Combine(a, b)
	ba := Combine(b, a)
	require.Equal(t, ab.Checked, ba.Checked)
	require.Equal(t, ab.Failed, ba.Failed)
}

func TestPoolRunProcessesEveryJobExactlyOnce(t *testing.T) {
	queue := NewQueue(10)
	for i := 0; i < 10; i++ {
		queue.Push(JobDescriptor{ProblemFile: fmt.Sprintf("p%d.smt2", i), RunIndex: i})
	}
	queue.Close()

	var seen sync.Map
	pool := NewPool(4, nil)
	result, err := pool.Run(context.Background(), queue, func(_ context.Context, job JobDescriptor) (*Result, error) {
		seen.Store(job.RunIndex, true)
		return &Result{Checked: 1}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 10, result.Checked)

	for i := 0; i < 10; i++ {
		_, ok := seen.Load(i)
		require.True(t, ok, "job %d was never run", i)
	}
}

func TestPoolRunAccumulatesFailures(t *testing.T) {
	queue := NewQueue(4)
	for i := 0; i < 4; i++ {
		queue.Push(JobDescriptor{RunIndex: i})
	}
	queue.Close()

	pool := NewPool(2, nil)
	result, err := pool.Run(context.Background(), queue, func(_ context.Context, job JobDescriptor) (*Result, error) {
		if job.RunIndex == 1 {
			return nil, errors.New("job failed")
		}
		return &Result{Checked: 1}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Checked)
	require.Equal(t, 1, result.Failed)
	require.Error(t, result.Errors)
}

func TestPoolRunRejectsNonPositiveSize(t *testing.T) {
	queue := NewQueue(1)
	queue.Close()
	pool := NewPool(0, nil)
	_, err := pool.Run(context.Background(), queue, func(_ context.Context, _ JobDescriptor) (*Result, error) {
		return &Result{}, nil
	})
	require.Error(t, err)
	var sizeErr *PoolSizeError
	require.ErrorAs(t, err, &sizeErr)
}
