package detectors

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DecodeSettings decodes a detector settings map into out, accepting duration
// strings such as "500ms".
func DecodeSettings(settings map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(settings)
}

// LoadModelFile reads model parameters exported by the training pipeline.
// JSON and YAML files are accepted.
func LoadModelFile(path string, out interface{}) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to decode model file %s: %w", path, err)
	}
	return nil
}

func CheckArity(expected, got int) error {
	if expected != got {
		return fmt.Errorf("feature arity mismatch: model expects %d features, got %d", expected, got)
	}
	return nil
}
