// Package forward contains the forward models whose outputs drive the
// likelihood of an inverse problem.
//
// A forward model maps a vector of physical coefficients to a vector of
// predicted measurements. The sampler itself never sees the model; callers
// compose it into a log posterior density and hand that closure to
// [producers.DifferentialEvolutionMH.Sample]. Keeping the model behind the
// small [Model] interface lets benchmarks swap an expensive PDE solve for the
// cheap reference collaborators in this package without touching the sampling
// code.
package forward
