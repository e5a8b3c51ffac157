package dataflow

import (
	"fpgabridge/constants"
	"fpgabridge/progress"
	"fpgabridge/ring"
)

// Channel is an intra-worker pipeline edge. Both ends run on the worker
// goroutine, so the ring grows instead of refusing a push.
type Channel struct {
	q *ring.Ring[Message]
}

// NewChannel allocates a channel with the default ring size.
func NewChannel() *Channel {
	return &Channel{q: ring.New[Message](constants.ChannelCapacity)}
}

// Push enqueues m.
func (c *Channel) Push(m *Message) {
	c.q.PushGrow(m)
}

// Pop dequeues the oldest message or nil.
func (c *Channel) Pop() *Message {
	return c.q.Pop()
}

// Len is the number of queued messages.
func (c *Channel) Len() int {
	return c.q.Len()
}

// ───────────────────────────── Counting endpoints ───────────────────────────

// PullCounter reads a channel and records one consumed message per Next at
// the message's time.
type PullCounter struct {
	ch       *Channel
	consumed progress.ChangeBatch
}

// NewPullCounter wraps the receiving end of ch.
func NewPullCounter(ch *Channel) *PullCounter {
	return &PullCounter{ch: ch}
}

// Next returns the next message or nil.
func (p *PullCounter) Next() *Message {
	m := p.ch.Pop()
	if m != nil {
		p.consumed.Update(m.Time, 1)
	}
	return m
}

// Pending reports whether a message is waiting.
func (p *PullCounter) Pending() bool {
	return p.ch.Len() > 0
}

// Consumed is the batch of consumption counts not yet extracted.
func (p *PullCounter) Consumed() *progress.ChangeBatch {
	return &p.consumed
}

// PushBuffer collects records for one time and flushes them downstream as a
// single message, recording one produced message per flush.
type PushBuffer struct {
	ch       *Channel
	time     progress.Time
	open     bool
	buf      []uint64
	produced progress.ChangeBatch
}

// NewPushBuffer wraps the sending end of ch.
func NewPushBuffer(ch *Channel) *PushBuffer {
	return &PushBuffer{ch: ch}
}

// Session opens (or continues) a session at t. Switching times flushes the
// previous one.
func (p *PushBuffer) Session(t progress.Time) Session {
	if p.open && p.time != t {
		p.flush()
	}
	p.time, p.open = t, true
	return Session{p: p}
}

// Cease flushes any buffered records.
func (p *PushBuffer) Cease() {
	p.flush()
	p.open = false
}

func (p *PushBuffer) flush() {
	if len(p.buf) == 0 {
		return
	}
	data := make([]uint64, len(p.buf))
	copy(data, p.buf)
	p.buf = p.buf[:0]
	p.ch.Push(&Message{Time: p.time, Data: data})
	p.produced.Update(p.time, 1)
}

// Produced is the batch of production counts not yet extracted.
func (p *PushBuffer) Produced() *progress.ChangeBatch {
	return &p.produced
}

// Session appends records at one time.
type Session struct {
	p *PushBuffer
}

// Give appends one record.
func (s Session) Give(v uint64) {
	s.p.buf = append(s.p.buf, v)
}

// GiveVec appends every record of vs.
func (s Session) GiveVec(vs []uint64) {
	s.p.buf = append(s.p.buf, vs...)
}
