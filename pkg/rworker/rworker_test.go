package rworker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob(t *testing.T) {
	var (
		wg       sync.WaitGroup
		inFlight int64
		peak     int64
		mtx      sync.Mutex
	)
	errBoom := errors.New("boom")
	rate := make(chan struct{}, 2)
	errCh := make(chan error, 10)
	results := make([]int, 10)

	for i := 0; i < 10; i++ {
		Job(&wg, i, func(idx int) error {
			n := atomic.AddInt64(&inFlight, 1)
			mtx.Lock()
			if n > peak {
				peak = n
			}
			mtx.Unlock()
			defer atomic.AddInt64(&inFlight, -1)
			results[idx] = idx * idx
			if idx == 7 {
				return errBoom
			}
			return nil
		}, rate, errCh)
	}
	wg.Wait()
	close(errCh)

	assert.LessOrEqual(t, peak, int64(2))
	for i := range results {
		assert.Equal(t, i*i, results[i])
	}

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	var taskErr *TaskError
	require.ErrorAs(t, errs[0], &taskErr)
	assert.Equal(t, 7, taskErr.Index)
	assert.ErrorIs(t, errs[0], errBoom)
}
