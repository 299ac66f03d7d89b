package baggage

import (
	"fmt"
	"runtime"
)

// SourceLocation is the place in the code a TODO baggage was created.
type SourceLocation struct {
	File     string
	Line     int
	Function string
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Caller returns the location of the function skip frames above its caller.
// Caller(0) is the function calling Caller.
func Caller(skip int) SourceLocation {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return SourceLocation{File: "unknown"}
	}

	loc := SourceLocation{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		loc.Function = fn.Name()
	}
	return loc
}

// TODOLocation is the value recorded under TODOKey.
type TODOLocation struct {
	SourceLocation
	Reason string
}

func (t TODOLocation) String() string {
	return fmt.Sprintf("%s (%s)", t.SourceLocation, t.Reason)
}

// TODOKey marks baggage created where context propagation was skipped.
// It is an ordinary entry and may be read, replaced or deleted.
type TODOKey struct{ Of[TODOLocation] }

func (TODOKey) Name() string { return "todo" }

// TODOFrom reports where b was created by TODO, if it was.
func TODOFrom(b Baggage) (TODOLocation, bool) {
	return Get[TODOKey, TODOLocation](b)
}

// TODOError is the panic value raised by a Factory configured to crash on TODO.
type TODOError struct {
	TODOLocation
}

func (e *TODOError) Error() string {
	return "baggage: TODO baggage created at " + e.TODOLocation.String()
}

// Config is resolved once at process start and handed to NewFactory.
type Config struct {
	// CrashOnTODO turns every Factory.TODO call into a panic. Meant for
	// development builds, to find call chains that drop their baggage.
	CrashOnTODO bool `yaml:"crash_on_todo" mapstructure:"crash_on_todo"`
}

type Factory struct {
	cfg    Config
	onTODO []func(TODOLocation)
}

type FactoryOption func(*Factory)

// WithTODOHook registers fn to observe every TODO baggage the factory creates.
// Hooks run before the crash check.
func WithTODOHook(fn func(TODOLocation)) FactoryOption {
	return func(f *Factory) {
		f.onTODO = append(f.onTODO, fn)
	}
}

func NewFactory(cfg Config, opts ...FactoryOption) *Factory {
	f := &Factory{cfg: cfg}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Config() Config {
	return f.cfg
}

func (f *Factory) TopLevel() Baggage {
	return TopLevel()
}

// TODO returns an empty baggage tagged with the caller's location and reason.
func (f *Factory) TODO(reason string) Baggage {
	return f.TODOAt(reason, Caller(1))
}

func (f *Factory) TODOAt(reason string, loc SourceLocation) Baggage {
	todo := TODOLocation{SourceLocation: loc, Reason: reason}
	for _, fn := range f.onTODO {
		fn(todo)
	}

	if f.cfg.CrashOnTODO {
		panic(&TODOError{TODOLocation: todo})
	}

	var b Baggage
	Set[TODOKey](&b, todo)
	return b
}

var defaultFactory = NewFactory(Config{})

// TODO is the package level TODO factory. It never crashes; use a Factory
// built from Config for that.
func TODO(reason string) Baggage {
	return defaultFactory.TODOAt(reason, Caller(1))
}

func TODOAt(reason string, loc SourceLocation) Baggage {
	return defaultFactory.TODOAt(reason, loc)
}
