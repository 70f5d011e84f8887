// Package simulation drives a brain through a timeline and records one Frame
// per tick.
//
// A Runner owns its brain for the duration of Run. Independent runs can be
// executed in parallel with RunBatch, which bounds concurrency and cancels the
// remaining jobs on the first failure.
//
// Usage:
//
//	r := simulation.NewRunner(b, timeline.Default(), simulation.Options{Seed: 1})
//	result, err := r.Run(ctx, 500)
//	if err != nil {
//	    return err
//	}
//	err = simulation.WriteCSV(w, result.Frames)
package simulation
