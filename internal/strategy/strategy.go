package strategy

import (
	"fmt"

	"github.com/mselser95/polymarket-trader/pkg/types"
)

// Strategy turns a market snapshot into a trade intent. Implementations
// must be pure with respect to ledger and risk state: they see only the
// SignalInput and return only a Signal. They are treated as untrusted;
// the Guard wraps every call.
type Strategy interface {
	Name() string
	Evaluate(input types.SignalInput) (types.Signal, error)
}

// Params are free-form strategy parameters from configuration.
type Params map[string]float64

// Float reads a parameter with a default.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// factories maps strategy names to constructors.
//
//nolint:gochecknoglobals // registry, populated at init
var factories = map[string]func(Params) Strategy{
	"threshold": func(p Params) Strategy { return NewThreshold(p) },
	"momentum":  func(p Params) Strategy { return NewMomentum(p) },
}

// New builds a registered in-process strategy by name.
func New(name string, params Params) (Strategy, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
	return factory(params), nil
}

// Names lists the registered in-process strategies.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
