// Package consumers provides the terminal nodes of a sample graph: each folds
// the samples it receives into a running aggregate that can be read through its
// Get method at any time, including while samples are still being delivered.
// Get returns the most recently fully-committed aggregate; it is not required
// to reflect deliveries that have not finished yet.
package consumers
