//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// Enabled reports whether the binary was built with profiling support.
const Enabled = true

var mode = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes returns the sorted names of the supported profiling modes.
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(mode))
})

// option appends a pkg/profile option derived from one Profiler field.
type option func([]func(*profile.Profile)) []func(*profile.Profile)

func start(p Profiler) Stopper {
	var opts []func(*profile.Profile)

	for _, o := range []option{withMode(p.Mode), withPath(p.Path), withQuiet(p.Quiet)} {
		opts = o(opts)
	}

	// The CLI stops the profiler itself when its context is canceled.
	opts = append(opts, profile.NoShutdownHook)

	return profile.Start(opts...)
}

func withMode(m string) option {
	return func(opts []func(*profile.Profile)) []func(*profile.Profile) {
		return append(opts, mode[m])
	}
}

func withPath(path string) option {
	return func(opts []func(*profile.Profile)) []func(*profile.Profile) {
		if path == "" {
			return opts
		}

		return append(opts, profile.ProfilePath(path))
	}
}

func withQuiet(quiet bool) option {
	return func(opts []func(*profile.Profile)) []func(*profile.Profile) {
		if !quiet {
			return opts
		}

		return append(opts, profile.Quiet)
	}
}
