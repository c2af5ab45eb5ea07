package matchmaker

import "sync"

// playOutcome carries the resolution of a single play request.
type playOutcome struct {
	game Game
	err  error
}

// playRequest is one caller waiting for a seat. The outcome channel is
// buffered so the dispatcher never blocks on a caller that gave up.
type playRequest struct {
	userID  string
	outcome chan playOutcome
}

func newPlayRequest(userID string) *playRequest {
	return &playRequest{
		userID:  userID,
		outcome: make(chan playOutcome, 1),
	}
}

func (r *playRequest) resolve(game Game, err error) {
	r.outcome <- playOutcome{game: game, err: err}
}

// pendingQueue accumulates play requests between dispatcher wakeups.
// Requests are drained in arrival order, up to the batch cap per take.
type pendingQueue struct {
	mu   sync.Mutex
	reqs []*playRequest
	wake chan struct{}
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{
		wake: make(chan struct{}, 1),
	}
}

// push appends a request and signals the dispatcher. Returns the queue
// length after the append.
func (q *pendingQueue) push(r *playRequest) int {
	q.mu.Lock()
	q.reqs = append(q.reqs, r)
	n := len(q.reqs)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return n
}

// take removes and returns up to max requests in arrival order. When
// requests remain the wake signal is re-armed so the dispatcher comes
// straight back for the next batch.
func (q *pendingQueue) take(max int) []*playRequest {
	q.mu.Lock()
	n := len(q.reqs)
	if n == 0 {
		q.mu.Unlock()
		return nil
	}
	if n > max {
		n = max
	}
	batch := q.reqs[:n:n]
	q.reqs = q.reqs[n:]
	remaining := len(q.reqs)
	q.mu.Unlock()

	if remaining > 0 {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	return batch
}

// drain removes and returns everything still queued.
func (q *pendingQueue) drain() []*playRequest {
	q.mu.Lock()
	reqs := q.reqs
	q.reqs = nil
	q.mu.Unlock()
	return reqs
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.reqs)
}
