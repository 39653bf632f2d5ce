package views

import (
	"time"

	"video-quality-dashboard/internal/controllers"
)

// eventQueue hands events from UI callbacks to the controller goroutine.
// Events arriving while the queue is full are dropped.
type eventQueue struct {
	events chan controllers.Event
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{events: make(chan controllers.Event, size)}
}

func (q *eventQueue) push(ev controllers.Event) bool {
	select {
	case q.events <- ev:
		return true
	default:
		return false
	}
}

func (q *eventQueue) Poll(wait time.Duration) controllers.Event {
	if wait <= 0 {
		select {
		case ev := <-q.events:
			return ev
		default:
			return controllers.Event{}
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ev := <-q.events:
		return ev
	case <-timer.C:
		return controllers.Event{}
	}
}
