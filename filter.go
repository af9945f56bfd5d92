package sampleflow

// FilterFunc computes zero or one output sample from an input sample. Returning
// ok == false drops the sample from this branch of the graph; nothing is
// emitted downstream. The returned auxiliary data travels with the output
// sample, so a filter that has nothing to add should hand the incoming map
// straight back.
type FilterFunc[In, Out any] func(sample In, aux AuxiliaryData) (out Out, outAux AuxiliaryData, ok bool)

// Filter is a node that is both a consumer of its upstream and an emitter for
// its downstream: every received sample is run through the filter function and,
// if one was produced, the result is emitted further. The concrete filters in
// the filters package are thin constructors around this type.
type Filter[In, Out any] struct {
	Node
	Emitter[Out]

	fn FilterFunc[In, Out]
}

// NewFilter builds a filter node from a filter function and the ParallelMode
// the function is safe under. A pure function should declare AnyMode; a
// function with unguarded internal state must declare Synchronous.
func NewFilter[In, Out any](mode ParallelMode, fn FilterFunc[In, Out]) *Filter[In, Out] {
	return &Filter[In, Out]{Node: NewNode(mode), fn: fn}
}

// Consume feeds one sample through the filter function.
func (f *Filter[In, Out]) Consume(sample In, aux AuxiliaryData) {
	if out, outAux, ok := f.fn(sample, aux); ok {
		f.Emit(out, outAux)
	}
}
