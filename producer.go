package sampleflow

import (
	"sync"

	"github.com/google/uuid"
)

// Consumer is the receiving capability of the graph: anything that can be
// connected downstream of an Emitter. Concrete consumers and filters satisfy it
// by embedding Node and implementing Consume.
//
// Consume is invoked directly on the goroutine that published the triggering
// sample; nothing is dispatched to a pool on the node's behalf. The sample is
// immutable: receivers must not modify it, because siblings connected to the
// same emitter observe the same backing data.
type Consumer[T any] interface {
	// Consume processes one sample together with its auxiliary data.
	Consume(sample T, aux AuxiliaryData)

	node() *Node
}

// Emitter is the publishing capability of the graph. Producers embed it and
// call Emit from their own logic; filters embed it for their downstream side.
//
// The zero value is ready to use and has no subscribers.
type Emitter[T any] struct {
	mu    sync.RWMutex
	edges map[uuid.UUID]*edge[T]
}

type edge[T any] struct {
	target Consumer[T]

	// inflight counts deliveries currently executing across this edge. Close
	// waits on it after unhooking the edge, which is what makes teardown safe
	// while publishers are running.
	inflight sync.WaitGroup
}

// Connection is the handle to one directed edge of the graph. Closing it
// removes the edge and then waits for all deliveries already dispatched across
// it to finish. Close is idempotent.
type Connection struct {
	ID     uuid.UUID
	once   sync.Once
	detach func()
}

// Close disconnects and flushes the edge.
func (c *Connection) Close() {
	c.once.Do(c.detach)
}

// Connect subscribes a consumer to this emitter and returns the edge handle.
// The connection is also tracked by the consumer so that its Close tears the
// edge down if the caller never does.
//
// Connecting is only valid before or between production runs; a sample emitted
// before a subscriber connects is simply never seen by it. Connecting the same
// consumer to the same emitter twice returns ErrAlreadyConnected.
func (e *Emitter[T]) Connect(to Consumer[T]) (*Connection, error) {
	e.mu.Lock()
	if e.edges == nil {
		e.edges = make(map[uuid.UUID]*edge[T])
	}
	for _, ed := range e.edges {
		if ed.target == to {
			e.mu.Unlock()
			return nil, ErrAlreadyConnected
		}
	}
	id := uuid.New()
	ed := &edge[T]{target: to}
	e.edges[id] = ed
	e.mu.Unlock()

	conn := &Connection{
		ID: id,
		detach: func() {
			e.mu.Lock()
			delete(e.edges, id)
			e.mu.Unlock()
			ed.inflight.Wait()
		},
	}
	to.node().track(conn)
	return conn, nil
}

// Subscribers returns the number of currently connected edges.
func (e *Emitter[T]) Subscribers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.edges)
}

// Emit pushes one sample to every currently connected subscriber, invoking each
// handler on the calling goroutine. Each subscriber receives its own copy of
// the auxiliary data; the sample itself is shared and must be treated as
// immutable by receivers, and must not be mutated later by the caller either.
//
// With purely synchronous subscribers, Emit returns only after all of them have
// fully processed the sample.
func (e *Emitter[T]) Emit(sample T, aux AuxiliaryData) {
	e.mu.RLock()
	if len(e.edges) == 0 {
		e.mu.RUnlock()
		return
	}
	targets := make([]*edge[T], 0, len(e.edges))
	for _, ed := range e.edges {
		ed.inflight.Add(1)
		targets = append(targets, ed)
	}
	e.mu.RUnlock()

	for _, ed := range targets {
		deliver(ed.target, sample, aux.Clone())
		ed.inflight.Done()
	}
}

// deliver invokes one handler, honoring the target's ParallelMode: a node that
// did not declare Asynchronous gets mutual exclusion across all invocations,
// regardless of which emitters they come from.
func deliver[T any](to Consumer[T], sample T, aux AuxiliaryData) {
	n := to.node()
	if !n.mode.Has(Asynchronous) {
		n.serial.Lock()
		defer n.serial.Unlock()
	}
	to.Consume(sample, aux)
}
