package contract

import (
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

// Snapshot captures a value before the body runs so that postconditions can
// compare against it under OLD.<name>.
type Snapshot struct {
	name     string
	capture  *condition.Condition
	enabled  bool
	location string
}

// NewSnapshot creates a snapshot descriptor. Without Named, the capture must
// read exactly one argument, whose name is used.
func NewSnapshot(capture *condition.Condition, opts ...Option) (*Snapshot, error) {
	o := apply(opts, 2)
	if capture == nil {
		return nil, &errs.ConfigurationError{Subject: "snapshot", Reason: "the capture must not be nil", Location: o.location}
	}
	name := o.name
	if name == "" {
		params := capture.Params()
		if len(params) != 1 {
			return nil, &errs.ConfigurationError{
				Subject:  "snapshot " + capture.Text(),
				Reason:   "the capture reads zero or more than one argument; please specify the name explicitly",
				Location: o.location,
			}
		}
		name = params[0]
	}
	return &Snapshot{name: name, capture: capture, enabled: o.isEnabled(), location: o.location}, nil
}

func (s *Snapshot) Name() string                  { return s.name }
func (s *Snapshot) Capture() *condition.Condition { return s.capture }
func (s *Snapshot) Enabled() bool                 { return s.enabled }
func (s *Snapshot) Location() string              { return s.location }
func (s *Snapshot) Args() []string                { return s.capture.Params() }
