// Package prof wires the runtime profilers behind CLI flags.
package prof

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Stop ends a running profiler and closes its output file.
type Stop func()

// StartCPU enables CPU profiling into path.
func StartCPU(path string) (Stop, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

// StartTrace enables runtime execution tracing into path.
func StartTrace(path string) (Stop, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		trace.Stop()
		_ = f.Close()
	}, nil
}

// WriteMem captures a heap profile to path after forcing a collection.
func WriteMem(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
