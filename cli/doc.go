// Package cli contains the command line interface for deflang.
//
// # Usage
//
//	deflang [flags] [eval] [-f FILE]... [-o yaml|json|native]
//	deflang query [-f FILE]... EXPR
//	deflang tokens|ast [-f FILE]...
//	deflang repl [-f FILE]...
//	deflang init [--force]
//
// Without a command, the program read from the source files (standard input
// by default) is evaluated and its output keys printed as YAML.
//
// # Configuration
//
// Flag defaults may be set in a configuration file written in deflang
// itself, at $XDG_CONFIG_HOME/deflang/config. Each output key names a flag
// with underscores in place of hyphens:
//
//	def level := q(debug) ;
//	log_level = level ;
//	output = q(json) ;
//
// A JSON file at the same path with a ".json" extension is also read.
// The init command writes the current flag values to the configuration
// file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// Log records are written to standard error.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
// The profiling flags are:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     $XDG_CACHE_HOME/deflang/pprof)
package cli
