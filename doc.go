/*
sampleflow wires graphs of sample producers, filters and consumers and pushes
Monte Carlo samples through them from any number of publishing goroutines.

A graph is built from three roles:

- A Producer generates samples and emits them to everything connected to it. The
Differential-Evolution Metropolis-Hastings sampler in the producers package is
the main producer of this module.

- A Filter receives samples from exactly one upstream node, computes zero or one
output sample per input (possibly of a different type), and emits the result
further downstream. Returning no output drops the sample from that branch only.

- A Consumer is a terminal node that folds samples into a running aggregate (a
mean, a histogram, a covariance matrix, ...) which can be read at any time while
samples are still flowing.

Samples travel with an AuxiliaryData map carrying per-sample metadata (chain
index, accept flag, log likelihood). Nodes may read or add entries; entries they
do not understand are passed downstream untouched.

Every node declares a ParallelMode stating whether its handler tolerates
concurrent invocation. The delivery machinery enforces the declaration: a node
that is only safe synchronously has all of its deliveries serialized, no matter
how many goroutines publish into it.

Delivery happens on the publishing goroutine; nothing is queued. Because of
that, tearing a node down while publishers are active would be a use-after-free
waiting to happen, so disconnection always flushes: Connection.Close and
Node.Close only return once every delivery already dispatched toward the node
has finished. Closing a node removes its edges, which makes publishing to a
closed node impossible by construction rather than a runtime error.

The expensive part of a sampling run, evaluating the posterior density of a
candidate sample, is parallelized through the pool package: a fixed-size worker
pool with an enqueue/join-all fork-join contract that degrades to inline
execution when no concurrency is available, so the same binary runs both
sequentially and in parallel without code forks.
*/

package sampleflow
