package zscore

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/NeuralTrust/TrustShield/pkg/infra/detectors"
)

const (
	DetectorType       = "zscore"
	defaultMaxZ        = 3.0
	defaultMinFeatures = 1
)

// Config describes a per-feature gaussian profile. A sample is an outlier when
// at least MinFeatures of its features sit more than MaxZ deviations away.
type Config struct {
	ModelPath   string    `mapstructure:"model_path"`
	Means       []float64 `mapstructure:"means"`
	StdDevs     []float64 `mapstructure:"stddevs"`
	MaxZ        float64   `mapstructure:"max_z"`
	MinFeatures int       `mapstructure:"min_features"`
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
	return &Detector{
		name:        name,
		means:       conf.Means,
		stdDevs:     conf.StdDevs,
		maxZ:        conf.MaxZ,
		minFeatures: conf.MinFeatures,
	}, nil
}

func loadConfig(settings map[string]interface{}) (Config, error) {
	var conf Config
	if err := detectors.DecodeSettings(settings, &conf); err != nil {
		return conf, fmt.Errorf("invalid zscore config: %w", err)
	}
	if conf.ModelPath != "" {
		var model Config
		if err := detectors.LoadModelFile(conf.ModelPath, &model); err != nil {
			return conf, err
		}
		conf.Means = model.Means
		conf.StdDevs = model.StdDevs
	}
	if conf.MaxZ == 0 {
		conf.MaxZ = defaultMaxZ
	}
	if conf.MinFeatures == 0 {
		conf.MinFeatures = defaultMinFeatures
	}

	if len(conf.Means) == 0 {
		return conf, errors.New("zscore means are required")
	}
	if len(conf.Means) != len(conf.StdDevs) {
		return conf, fmt.Errorf("zscore has %d means but %d stddevs", len(conf.Means), len(conf.StdDevs))
	}
	for i, sd := range conf.StdDevs {
		if !(sd > 0) {
			return conf, fmt.Errorf("zscore stddev %d must be positive", i)
		}
	}
	if conf.MaxZ < 0 {
		return conf, errors.New("zscore max_z must be positive")
	}
	if conf.MinFeatures < 1 || conf.MinFeatures > len(conf.Means) {
		return conf, fmt.Errorf("zscore min_features must be between 1 and %d", len(conf.Means))
	}
	return conf, nil
}

type Detector struct {
	name        string
	means       []float64
	stdDevs     []float64
	maxZ        float64
	minFeatures int
}

func (d *Detector) Name() string {
	return d.name
}

func (d *Detector) Predict(_ context.Context, features admission.FeatureVector) (bool, error) {
	if err := detectors.CheckArity(len(d.means), len(features)); err != nil {
		return false, err
	}
	deviating := 0
	for i, x := range features {
		if math.Abs(x-d.means[i])/d.stdDevs[i] > d.maxZ {
			deviating++
		}
	}
	return deviating >= d.minFeatures, nil
}
