// Package producers provides the sample-generating nodes of a graph. Its
// centerpiece is the Differential-Evolution Metropolis-Hastings sampler, which
// runs several coupled Markov chains, parallelizes their posterior evaluations
// through a worker pool, and publishes every chain state it settles on.
package producers
