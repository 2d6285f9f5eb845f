// Package contestant provides contestant-side implementations of the mega
// collaborators.
//
// A contestant supplies the solver, encoder and decoder. The encoder and
// decoder call back into the driver through mega.Host.
package contestant

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/mega/internal/mega"
)

// Contestant bundles the three collaborators a driver needs.
type Contestant struct {
	Name    string
	Solver  mega.Solver
	Encoder mega.Encoder
	Decoder mega.Decoder
}

// Collaborators returns the contestant as driver collaborators.
func (c *Contestant) Collaborators() mega.Collaborators {
	return mega.Collaborators{
		Solver:  c.Solver,
		Encoder: c.Encoder,
		Decoder: c.Decoder,
	}
}

// Factory builds a contestant bound to host with the given row width.
type Factory func(host mega.Host, columns int) *Contestant

// Built-in contestant names.
const (
	Reference = "reference"
	Identity  = "identity"
)

var factories = map[string]Factory{
	Reference: NewReference,
	Identity:  NewIdentity,
}

// Names returns the registered contestant names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named contestant.
func New(name string, host mega.Host, columns int) (*Contestant, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown contestant %q: must be one of %v", name, Names())
	}
	return f(host, columns), nil
}

// Sum adds the five inputs left to right, widening one step at a time:
// a+b in int32, +c in int64, +d in float32 and +e in float64. Integer steps
// wrap and the float32 step rounds.
func Sum(_ context.Context, a int16, b int32, c int64, d float32, e float64) (float64, error) {
	ab := int32(a) + b
	abc := int64(ab) + c
	abcd := float32(abc) + d
	return float64(abcd) + e, nil
}
