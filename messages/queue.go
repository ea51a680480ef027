package messages

import "sync"

// Queue is the ordered list of messages pending for one session during one
// request. It is safe for concurrent use by goroutines spawned from a handler.
//
// Appends always succeed. Consume is the only way to remove messages.
type Queue struct {
	mu       sync.Mutex
	msgs     []Message
	loaded   int
	pushed   int
	consumed int
	modified bool

	last    FlushStats
	flushed bool
}

// NewQueue returns a queue holding msgs in order.
func NewQueue(msgs ...Message) *Queue {
	return &Queue{msgs: append([]Message(nil), msgs...), loaded: len(msgs)}
}

// Push appends a message and returns the queue for chaining.
func (q *Queue) Push(level Level, text string) *Queue {
	q.mu.Lock()
	q.msgs = append(q.msgs, Message{Level: level, Text: text})
	q.pushed++
	q.modified = true
	q.mu.Unlock()
	return q
}

func (q *Queue) Debug(text string) *Queue   { return q.Push(LevelDebug, text) }
func (q *Queue) Info(text string) *Queue    { return q.Push(LevelInfo, text) }
func (q *Queue) Success(text string) *Queue { return q.Push(LevelSuccess, text) }
func (q *Queue) Warning(text string) *Queue { return q.Push(LevelWarning, text) }
func (q *Queue) Error(text string) *Queue   { return q.Push(LevelError, text) }

// Consume returns every queued message in insertion order and drains the
// queue. Later reads in the same request see only messages pushed afterwards.
func (q *Queue) Consume() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.msgs
	q.msgs = nil
	if len(out) > 0 {
		q.consumed += len(out)
		q.modified = true
	}
	return out
}

// Peek returns a copy of the queued messages without draining them.
func (q *Queue) Peek() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.msgs...)
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

// FlushStats summarizes what happened to a queue during one request.
type FlushStats struct {
	Loaded    int // messages read from the session
	Pushed    int // messages appended during the request
	Consumed  int // messages handed out by Consume
	Remaining int // messages written back to the session
	Persisted bool // the session holding the queue was saved
}

// LastFlush returns the stats of the queue's write-back once the session has
// been saved. ok is false until then.
func (q *Queue) LastFlush() (st FlushStats, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last, q.flushed
}

func (q *Queue) setLastFlush(st FlushStats) {
	q.mu.Lock()
	q.last, q.flushed = st, true
	q.mu.Unlock()
}

// drain snapshots the queue for persistence and clears it.
func (q *Queue) drain() (msgs []Message, modified bool, st FlushStats) {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs, modified = q.msgs, q.modified
	st = FlushStats{Loaded: q.loaded, Pushed: q.pushed, Consumed: q.consumed, Remaining: len(q.msgs)}
	q.msgs = nil
	q.modified = false
	q.loaded, q.pushed, q.consumed = 0, 0, 0
	return msgs, modified, st
}
