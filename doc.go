// Package hitgen synthesizes timestamped sensor-hit streams for an array of detector
// modules.
//
// For every module the generator draws exponential inter-arrival times in batches of
// BatchWidth lanes, turns them into absolute times with a lane-parallel prefix sum,
// carries the last time of a batch into the next, lets an Injector add correlated
// coincidence bursts, and attaches one packed 32-bit value per hit:
//
//	bits [0,8)   pulse width (ToT), Gaussian via Box-Muller, clamped to 0..255
//	bits [8,13)  sensor id within the module, uniform in 0..31
//	bits [13,32) module code 100*(dom+1) + (mod+1)
//
// # Usage
//
//	g, err := hitgen.New(
//		hitgen.Layout{NDom: 115, NMod: 18, Capacity: 1 << 23},
//		hitgen.Params{TauL0: 4608, ToTMean: 26.5, ToTSigma: 10.5},
//	)
//	gens, err := hitgen.NewGenerators(1, 2, hitgen.DefaultRates())
//	res, err := g.Generate(0, 100_000_000, gens)
//	for t, rec := range res.All() { ... }
//
// # Determinism
//
// Identical seeds, layout, parameters, window, backend and stream mode give
// bit-identical output. With StreamPerModule the output also does not depend on the
// number of workers.
//
// # Capacity
//
// The output buffers never grow beyond Layout.Capacity. A module that runs out of its
// planned share stops early; this is reported in ModuleReport.Truncated and is not an
// error.
package hitgen
