package services

import (
	"context"
	"log"
	"sync"
)

// effectQueueSize bounds the effects waiting behind a slow store or notifier.
const effectQueueSize = 128

// effect is a side effect of a timer transition: a store write, a task note
// or a desktop notification. Effects run outside the engine lock.
type effect struct {
	name string
	run  func(ctx context.Context) error
}

// effectWorker executes effects one at a time in submission order.
// Failures are logged and swallowed.
type effectWorker struct {
	logger *log.Logger
	queue  chan effect
	quit   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
}

// newEffectWorker starts the worker goroutine.
func newEffectWorker(logger *log.Logger) *effectWorker {
	w := &effectWorker{
		logger: logger,
		queue:  make(chan effect, effectQueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *effectWorker) loop() {
	defer close(w.done)
	for {
		select {
		case fx := <-w.queue:
			w.run(fx)
		case <-w.quit:
			for {
				select {
				case fx := <-w.queue:
					w.run(fx)
				default:
					return
				}
			}
		}
	}
}

func (w *effectWorker) run(fx effect) {
	if err := fx.run(context.Background()); err != nil {
		w.logger.Printf("%s failed: %v", fx.name, err)
	}
}

// Submit queues an effect and reports whether it was accepted. It never
// blocks: effects submitted after Close or while the queue is full are
// logged and dropped.
func (w *effectWorker) Submit(name string, run func(ctx context.Context) error) bool {
	select {
	case <-w.quit:
		w.logger.Printf("%s dropped: worker closed", name)
		return false
	default:
	}

	select {
	case w.queue <- effect{name: name, run: run}:
		return true
	default:
		w.logger.Printf("%s dropped: effect queue full", name)
		return false
	}
}

// Flush blocks until every effect submitted before the call has run.
func (w *effectWorker) Flush(ctx context.Context) error {
	select {
	case <-w.quit:
		return w.wait(ctx)
	default:
	}

	barrier := make(chan struct{})
	fx := effect{name: "flush", run: func(context.Context) error {
		close(barrier)
		return nil
	}}
	select {
	case w.queue <- fx:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-barrier:
		return nil
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting effects and waits for the queue to drain.
func (w *effectWorker) Close(ctx context.Context) error {
	w.closeOnce.Do(func() { close(w.quit) })
	return w.wait(ctx)
}

func (w *effectWorker) wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
