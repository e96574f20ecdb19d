package detectors

import (
	"fmt"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
)

// Spec names one ensemble member and the settings its factory needs.
type Spec struct {
	Name     string
	Type     string
	Settings map[string]interface{}
}

type Factory interface {
	Type() string
	ValidateConfig(settings map[string]interface{}) error
	WithSettings(name string, settings map[string]interface{}) (admission.Detector, error)
}

type LocatorOption func(*Locator)

func WithFactory(factory Factory) LocatorOption {
	return func(l *Locator) {
		if l.factories == nil {
			l.factories = make(map[string]Factory)
		}
		l.factories[factory.Type()] = factory
	}
}

type Locator struct {
	factories map[string]Factory
}

func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		factories: make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locator) Validate(spec Spec) error {
	if spec.Name == "" {
		return domain.NewConfigurationError("detector name is required")
	}
	factory, ok := l.factories[spec.Type]
	if !ok {
		return domain.NewConfigurationError("unknown detector type '%s' for detector '%s'", spec.Type, spec.Name)
	}
	if err := factory.ValidateConfig(spec.Settings); err != nil {
		return fmt.Errorf("%w: detector '%s': %w", domain.ErrConfiguration, spec.Name, err)
	}
	return nil
}

func (l *Locator) Build(spec Spec) (admission.Detector, error) {
	if err := l.Validate(spec); err != nil {
		return nil, err
	}
	detector, err := l.factories[spec.Type].WithSettings(spec.Name, spec.Settings)
	if err != nil {
		return nil, fmt.Errorf("%w: detector '%s': %w", domain.ErrConfiguration, spec.Name, err)
	}
	return detector, nil
}

// BuildAll builds every spec in order, so vote order follows configuration order.
func (l *Locator) BuildAll(specs []Spec) ([]admission.Detector, error) {
	out := make([]admission.Detector, 0, len(specs))
	for _, spec := range specs {
		d, err := l.Build(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
