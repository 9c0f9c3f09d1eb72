package dispatch

import (
	"context"
	"time"
)

// Worker is an optional in-process ticker for deployments without an
// external cron. Each tick is a normal stateless invocation; the ledger
// keeps overlapping ticks (or an external cron running alongside) safe.
type Worker struct {
	dispatcher       *Dispatcher
	reminderInterval time.Duration
	missedInterval   time.Duration
	stopChan         chan struct{}
}

func NewWorker(dispatcher *Dispatcher) *Worker {
	return &Worker{
		dispatcher:       dispatcher,
		reminderInterval: time.Minute,    // reminders match the current minute
		missedInterval:   time.Hour,      // inactivity is checked hourly
		stopChan:         make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) run() {
	reminderTicker := time.NewTicker(w.reminderInterval)
	defer reminderTicker.Stop()

	missedTicker := time.NewTicker(w.missedInterval)
	defer missedTicker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-reminderTicker.C:
			w.dispatcher.DispatchReminders(context.Background())
		case <-missedTicker.C:
			w.dispatcher.DispatchMissedActivity(context.Background())
		}
	}
}
