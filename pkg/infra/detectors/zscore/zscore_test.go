package zscore

import (
	"context"
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalProfile() map[string]interface{} {
	return map[string]interface{}{
		"means":   []interface{}{12, 300, 0.5, 0.04, 0.04},
		"stddevs": []interface{}{3, 50, 0.5, 0.05, 0.015},
	}
}

func TestValidateConfig(t *testing.T) {
	f := NewFactory()

	tests := []struct {
		name     string
		settings map[string]interface{}
		wantErr  bool
	}{
		{name: "valid", settings: normalProfile()},
		{name: "missing means", settings: map[string]interface{}{}, wantErr: true},
		{name: "length mismatch", settings: map[string]interface{}{
			"means": []interface{}{1, 2}, "stddevs": []interface{}{1},
		}, wantErr: true},
		{name: "zero stddev", settings: map[string]interface{}{
			"means": []interface{}{1}, "stddevs": []interface{}{0},
		}, wantErr: true},
		{name: "min features above arity", settings: map[string]interface{}{
			"means": []interface{}{1}, "stddevs": []interface{}{1}, "min_features": 2,
		}, wantErr: true},
		{name: "wrong type", settings: map[string]interface{}{"means": "twelve"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.ValidateConfig(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPredict(t *testing.T) {
	d, err := NewFactory().WithSettings("gaussian", normalProfile())
	require.NoError(t, err)
	assert.Equal(t, "gaussian", d.Name())

	outlier, err := d.Predict(context.Background(), admission.FeatureVector{12, 300, 0, 0, 12.0 / 301.0})
	require.NoError(t, err)
	assert.False(t, outlier)

	outlier, err = d.Predict(context.Background(), admission.FeatureVector{80, 20, 5, 5.0 / 81.0, 80.0 / 21.0})
	require.NoError(t, err)
	assert.True(t, outlier)
}

func TestPredict_MinFeatures(t *testing.T) {
	settings := normalProfile()
	settings["min_features"] = 2
	d, err := NewFactory().WithSettings("strict", settings)
	require.NoError(t, err)

	// only requests_per_min deviates
	outlier, err := d.Predict(context.Background(), admission.FeatureVector{40, 300, 0, 0, 0.04})
	require.NoError(t, err)
	assert.False(t, outlier)
}

func TestPredict_ArityMismatch(t *testing.T) {
	d, err := NewFactory().WithSettings("gaussian", normalProfile())
	require.NoError(t, err)

	_, err = d.Predict(context.Background(), admission.FeatureVector{12, 300})
	assert.ErrorContains(t, err, "arity")
}
