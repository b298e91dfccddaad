package rworker

import (
	"fmt"
	"sync"
)

// TaskError attributes a failure to the task that produced it.
type TaskError struct {
	Index int
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %v", e.Index, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Job runs fn(idx) once a slot in rate is free. A failure is sent to errCh
// as a *TaskError and dropped when errCh is full.
func Job(wg *sync.WaitGroup, idx int, fn func(int) error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate <- struct{}{}
		defer func() { <-rate }()
		if err := fn(idx); err != nil {
			select {
			case errCh <- &TaskError{Index: idx, Err: err}:
			default:
			}
		}
	}()
}
