// Package profile provides optional runtime profiling for deflang.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag every [Profiler] is a no-op, [Modes] is empty, and the
// profiling flags are absent from the command line.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Path: dir, Quiet: true}
//	defer p.Start().Stop()
//
// Profile data is written to Path with a name matching the mode, e.g.
// cpu.pprof. The command line enables it with:
//
//	deflang --pprof-mode cpu --pprof-dir ./profiles eval -f big.def
//
// The default directory is "pprof" under the user cache directory
// ($XDG_CACHE_HOME/deflang/pprof on Linux).
//
// # Analysis
//
//	go tool pprof -http=: ./profiles/cpu.pprof
//	go tool pprof -base=old.pprof new.pprof
//	go tool trace ./profiles/trace.out
package profile
