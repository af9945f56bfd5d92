// Package filters provides the stock intermediate nodes of a sample graph:
// nodes that subscribe to one upstream, compute zero or one output sample per
// input, and publish onward. All of them are constructors around
// sampleflow.Filter and declare the ParallelMode their state can handle.
package filters
