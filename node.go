package sampleflow

import (
	"sync"
)

// Node holds the graph-membership state every receiving node carries: its
// declared ParallelMode, the serialization lock used when that mode demands
// mutual exclusion, and the registry of incoming connections so the node can be
// torn down with a flush. Concrete filters and consumers embed it.
type Node struct {
	mode ParallelMode

	// serial guards handler invocations of nodes that did not declare
	// Asynchronous. It is taken by the delivery path, never by the node itself.
	serial sync.Mutex

	mu       sync.Mutex
	incoming []*Connection
}

// NewNode returns node state declaring the given ParallelMode.
func NewNode(mode ParallelMode) Node {
	return Node{mode: mode}
}

// Mode returns the node's declared ParallelMode.
func (n *Node) Mode() ParallelMode {
	return n.mode
}

// node anchors the Receiver interface to this package; it also gives the
// delivery path access to the serialization lock through embedding.
func (n *Node) node() *Node {
	return n
}

// track records an incoming connection so Close can find and flush it.
func (n *Node) track(c *Connection) {
	n.mu.Lock()
	n.incoming = append(n.incoming, c)
	n.mu.Unlock()
}

// Close disconnects the node from all of its upstream emitters and flushes:
// it only returns once every delivery already dispatched toward this node has
// finished executing. After Close the node has no incoming edges, so no further
// delivery can start. Closing twice is a no-op.
//
// Call it on every exit path before the node's accumulator state goes away;
// aggregates remain readable afterwards.
func (n *Node) Close() error {
	n.mu.Lock()
	conns := n.incoming
	n.incoming = nil
	n.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}
