package profile

// Profiler holds the settings of one profiling session.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option configures a [Profiler].
type Option func(*Profiler)

// New returns a Profiler with the given options applied.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// WithMode sets the profiling mode. See [Modes].
func WithMode(mode string) Option {
	return func(p *Profiler) { p.Mode = mode }
}

// WithPath sets the directory profiles are written to.
func WithPath(path string) Option {
	return func(p *Profiler) { p.Path = path }
}

// WithQuiet suppresses the profiler's own log messages.
func WithQuiet(quiet bool) Option {
	return func(p *Profiler) { p.Quiet = quiet }
}

// Start begins profiling and returns a handle for stopping it.
//
// If the pprof build tag or the mode are unset, or the mode is unknown, Start
// returns a no-op implementation. Both Start and Stop are always safely
// callable.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
