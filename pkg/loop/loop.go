// Package loop repeats a task until it breaks or its context is done.
package loop

import (
	"context"
	"fmt"
	"time"
)

// Next tells Start what to do after a task.
type Next struct {
	err      error
	quit     bool
	interval time.Duration
}

func (n Next) String() string {
	switch {
	case n.err != nil:
		return fmt.Sprintf("[break] with error: %v", n.err)
	case n.quit:
		return "[break] without error"
	}
	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// Continue the loop after interval.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break the loop. err can be nil.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task is a step of a loop.
//
// It receives the value returned from the last step (or the initial value),
// and returns the value for the next step together with Next.
// Zero Next is Continue(0).
type Task[T any] func(context.Context, T) (T, Next)

// Start repeats task until it returns Break or ctx is done.
//
// # Returns
//
// - T: the value the task returned last. When ctx is done before the first step, init.
//
// - error: the error passed to Break, or ctx.Err() when ctx is done.
func Start[T any](ctx context.Context, init T, task Task[T], options ...Option) (T, error) {
	if err := ctx.Err(); err != nil {
		return init, err
	}

	value := init
	for {
		v, next := step(ctx, value, task, options)
		if next.quit {
			return v, next.err
		}
		value = v

		timer := time.NewTimer(next.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

func step[T any](ctx context.Context, value T, task Task[T], options []Option) (T, Next) {
	c := &config{ctx: ctx, release: func() {}}
	for _, o := range options {
		c = o(c)
	}
	defer c.release()
	return task(c.ctx, value)
}

type config struct {
	ctx     context.Context
	release func()
}

type Option func(*config) *config

// WithTimeout sets a timeout on the context passed to each step.
func WithTimeout(d time.Duration) Option {
	return func(c *config) *config {
		ctx, cancel := context.WithTimeout(c.ctx, d)
		release := c.release
		return &config{
			ctx: ctx,
			release: func() {
				cancel()
				release()
			},
		}
	}
}
