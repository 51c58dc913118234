package profile

import "slices"

// Tag is the build tag required to enable profiling.
const Tag = "pprof"

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler configures one profiling session.
type Profiler struct {
	Mode  string // one of [Modes]; empty disables profiling
	Path  string // output directory; empty selects the working directory
	Quiet bool   // suppress the profiler's own log output
}

// Start begins profiling and returns the [Stopper] that ends it.
//
// Start returns a no-op Stopper if p.Mode is empty or unsupported, which is
// always the case in builds without the pprof tag. Only one session may run
// at a time.
func (p Profiler) Start() Stopper {
	if !Supported(p.Mode) {
		return nop{}
	}

	return start(p)
}

// Supported reports whether mode is a profiling mode of this build.
func Supported(mode string) bool {
	return mode != "" && slices.Contains(Modes(), mode)
}

type nop struct{}

func (nop) Stop() {}
