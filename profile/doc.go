// Package profile provides optional runtime profiling for pebble.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] to provide runtime profiling
// with conditional compilation. Profiling must be enabled at build time using
// the "pprof" build tag:
//
//	go build -tags pprof .
//
// When built without the tag, all operations are no-ops with zero runtime
// overhead and [Modes] returns nil.
//
// # Available Profiling Modes
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Usage
//
//	ctrl := profile.New(
//	    profile.WithMode("cpu"),
//	    profile.WithPath("/tmp/profiles"),
//	).Start()
//	defer ctrl.Stop()
//
// Profile files are written to the given directory with names matching the
// profiling mode (e.g., cpu.pprof, mem.pprof).
//
// The pebble command exposes the same settings as flags:
//
//	pebble --pprof-mode cpu --pprof-dir ./profiles run program.peb
//
// The default output directory is the pprof subdirectory of the user cache
// directory, for example $XDG_CACHE_HOME/pebble/pprof.
//
// # Analyzing Profile Data
//
//	go tool pprof ./pebble ./profiles/cpu.pprof
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// When built with the pprof tag, this package also imports [net/http/pprof],
// which registers HTTP handlers at /debug/pprof/ for programs that serve
// HTTP.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
