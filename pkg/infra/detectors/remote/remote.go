package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/NeuralTrust/TrustShield/pkg/infra/detectors"
	"github.com/NeuralTrust/TrustShield/pkg/infra/httpx"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

const (
	DetectorType          = "remote"
	defaultTimeout        = time.Second
	defaultOpenTimeout    = 30 * time.Second
	defaultMaxFailures    = 5
	sklearnOutlierLabel   = -1
	sklearnInlierLabel    = 1
	predictionFieldName   = "prediction"
	outlierFieldName      = "outlier"
	featuresFieldName     = "features"
	detectorNameFieldName = "detector"
)

// Config points a detector at a model server. The server receives
// {"detector": name, "features": [...]} and answers either {"outlier": bool}
// or {"prediction": -1|1} with -1 meaning outlier.
type Config struct {
	URL         string            `mapstructure:"url"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	MaxFailures uint32            `mapstructure:"max_failures"`
	OpenTimeout time.Duration     `mapstructure:"open_timeout"`
	Headers     map[string]string `mapstructure:"headers"`
}

type Option func(*Factory)

func WithClient(client httpx.Doer) Option {
	return func(f *Factory) {
		f.client = client
	}
}

type Factory struct {
	client httpx.Doer
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = httpx.NewFastHTTPClient()
	}
	return f
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
		name:    name,
		cfg:     conf,
		client:  f.client,
		breaker: httpx.NewCircuitBreaker(name, conf.OpenTimeout, conf.MaxFailures),
	}, nil
}

func loadConfig(settings map[string]interface{}) (Config, error) {
	var conf Config
	if err := detectors.DecodeSettings(settings, &conf); err != nil {
		return conf, fmt.Errorf("invalid remote config: %w", err)
	}
	if conf.URL == "" {
		return conf, errors.New("remote url is required")
	}
	u, err := url.Parse(conf.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return conf, fmt.Errorf("remote url '%s' must be an absolute http(s) url", conf.URL)
	}
	if conf.Timeout <= 0 {
		conf.Timeout = defaultTimeout
	}
	if conf.OpenTimeout <= 0 {
		conf.OpenTimeout = defaultOpenTimeout
	}
	if conf.MaxFailures == 0 {
		conf.MaxFailures = defaultMaxFailures
	}
	return conf, nil
}

var (
	arenaPool  fastjson.ArenaPool
	parserPool fastjson.ParserPool
)

type Detector struct {
	name    string
	cfg     Config
	client  httpx.Doer
	breaker httpx.CircuitBreaker
}

func (d *Detector) Name() string {
	return d.name
}

func (d *Detector) Predict(ctx context.Context, features admission.FeatureVector) (bool, error) {
	timeout := d.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var outlier bool
	err := d.breaker.Execute(func() error {
		var callErr error
		outlier, callErr = d.call(features, timeout)
		return callErr
	})
	if err != nil {
		return false, err
	}
	return outlier, nil
}

func (d *Detector) call(features admission.FeatureVector, timeout time.Duration) (bool, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.cfg.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	for k, v := range d.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.SetBodyRaw(d.encode(features))

	if err := d.client.DoTimeout(req, resp, timeout); err != nil {
		return false, fmt.Errorf("model server request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return false, fmt.Errorf("model server returned status %d", resp.StatusCode())
	}
	return decode(resp.Body())
}

func (d *Detector) encode(features admission.FeatureVector) []byte {
	a := arenaPool.Get()
	defer arenaPool.Put(a)

	values := a.NewArray()
	for i, f := range features {
		values.SetArrayItem(i, a.NewNumberFloat64(f))
	}
	body := a.NewObject()
	body.Set(detectorNameFieldName, a.NewString(d.name))
	body.Set(featuresFieldName, values)
	return body.MarshalTo(nil)
}

func decode(body []byte) (bool, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return false, fmt.Errorf("invalid model server response: %w", err)
	}
	if field := v.Get(outlierFieldName); field != nil {
		outlier, err := field.Bool()
		if err != nil {
			return false, fmt.Errorf("invalid '%s' field: %w", outlierFieldName, err)
		}
		return outlier, nil
	}
	if field := v.Get(predictionFieldName); field != nil {
		label, err := field.Int()
		if err != nil {
			return false, fmt.Errorf("invalid '%s' field: %w", predictionFieldName, err)
		}
		switch label {
		case sklearnOutlierLabel:
			return true, nil
		case sklearnInlierLabel:
			return false, nil
		}
		return false, fmt.Errorf("unknown '%s' label %d", predictionFieldName, label)
	}
	return false, fmt.Errorf("model server response has neither '%s' nor '%s'", outlierFieldName, predictionFieldName)
}
