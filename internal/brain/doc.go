// Package brain implements a spiking neural tissue: neurons placed in a 3D
// ball, wired by delayed synapses, and stepped forward in discrete ticks.
//
// A Brain is not safe for concurrent use. Callers that share one across
// goroutines serialize access themselves; independent brains can run in
// parallel freely. Every mutating operation either completes or leaves the
// brain exactly as it was.
package brain
