package casync

import (
	"fmt"
	"strings"
)

// Option is a single casync flag. It's rendered as `--name=value`.
type Option struct {
	Name  string
	Value string
}

// Options is an ordered list of flags. The order is preserved on the command
// line.
type Options []Option

// Store returns the option that selects the chunk store.
func Store(path string) Option {
	return Option{Name: "store", Value: path}
}

// With returns an option that enables a metadata feature, e.g. "2sec-time".
func With(feature string) Option {
	return Option{Name: "with", Value: feature}
}

// TwoSecondTime makes digests tolerant of filesystems that round
// modification times to two seconds.
var TwoSecondTime = With("2sec-time")

// knownOptions are the long options accepted by `casync make`, `extract`,
// `digest` and `gc`.
var knownOptions = map[string]struct{}{
	"store":             {},
	"extra-store":       {},
	"seed":              {},
	"seed-output":       {},
	"cache":             {},
	"cache-auto":        {},
	"chunk-size":        {},
	"digest":            {},
	"compression":       {},
	"with":              {},
	"without":           {},
	"what":              {},
	"exclude-nodump":    {},
	"exclude-submounts": {},
	"exclude-file":      {},
	"rate-limit-bps":    {},
	"undo-immutable":    {},
	"delete":            {},
	"punch-holes":       {},
	"reflink":           {},
	"hardlink":          {},
	"uid-shift":         {},
	"uid-range":         {},
	"recursive":         {},
	"mkdir":             {},
	"dry-run":           {},
	"verbose":           {},
}

// InvalidOptionError is returned when an Option can't be rendered into a
// valid casync flag.
type InvalidOptionError struct {
	Option Option
	Reason string
}

func (err InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid casync option %q: %s", err.Option.Name, err.Reason)
}

// Args renders the options as command line flags.
func (opts Options) Args() ([]string, error) {
	args := make([]string, 0, len(opts))
	for _, opt := range opts {
		if err := opt.validate(); err != nil {
			return nil, err
		}
		args = append(args, fmt.Sprintf("--%s=%s", opt.Name, opt.Value))
	}
	return args, nil
}

// Append returns a copy of opts with `more` appended. The receiver is never
// modified, so shared defaults can't be mutated by callers.
func (opts Options) Append(more ...Option) Options {
	combined := make(Options, 0, len(opts)+len(more))
	combined = append(combined, opts...)
	return append(combined, more...)
}

func (opt Option) validate() error {
	if opt.Name == "" {
		return InvalidOptionError{opt, "empty name"}
	}
	if _, ok := knownOptions[opt.Name]; !ok {
		return InvalidOptionError{opt, "unknown option"}
	}
	if opt.Value == "" {
		return InvalidOptionError{opt, "empty value"}
	}
	if strings.ContainsAny(opt.Value, "\x00\n\r") {
		return InvalidOptionError{opt, "value contains control characters"}
	}
	return nil
}
