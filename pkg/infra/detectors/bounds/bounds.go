package bounds

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/NeuralTrust/TrustShield/pkg/infra/detectors"
)

const DetectorType = "bounds"

// Config is an inclusive per-feature envelope learned from normal traffic.
type Config struct {
	ModelPath string    `mapstructure:"model_path"`
	Lower     []float64 `mapstructure:"lower"`
	Upper     []float64 `mapstructure:"upper"`
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() string {
	return DetectorType
}

func (f *Factory) ValidateConfig(settings map[string]interface{}) error {
	_, err := loadConfig(settings)
	return err
}

func (f *Factory) WithSettings(name string, settings map[string]interface{}) (admission.Detector, error) {
	conf, err := loadConfig(settings)
	if err != nil {
		return nil, err
	}
	return &Detector{name: name, lower: conf.Lower, upper: conf.Upper}, nil
}

func loadConfig(settings map[string]interface{}) (Config, error) {
	var conf Config
	if err := detectors.DecodeSettings(settings, &conf); err != nil {
		return conf, fmt.Errorf("invalid bounds config: %w", err)
	}
	if conf.ModelPath != "" {
		var model Config
		if err := detectors.LoadModelFile(conf.ModelPath, &model); err != nil {
			return conf, err
		}
		conf.Lower = model.Lower
		conf.Upper = model.Upper
	}
	if len(conf.Lower) == 0 {
		return conf, errors.New("bounds lower and upper limits are required")
	}
	if len(conf.Lower) != len(conf.Upper) {
		return conf, fmt.Errorf("bounds has %d lower limits but %d upper limits", len(conf.Lower), len(conf.Upper))
	}
	for i := range conf.Lower {
		if conf.Lower[i] > conf.Upper[i] {
			return conf, fmt.Errorf("bounds lower limit %d is greater than its upper limit", i)
		}
	}
	return conf, nil
}

type Detector struct {
	name  string
	lower []float64
	upper []float64
}

func (d *Detector) Name() string {
	return d.name
}

func (d *Detector) Predict(_ context.Context, features admission.FeatureVector) (bool, error) {
	if err := detectors.CheckArity(len(d.lower), len(features)); err != nil {
		return false, err
	}
	for i, x := range features {
		if x < d.lower[i] || x > d.upper[i] {
			return true, nil
		}
	}
	return false, nil
}
