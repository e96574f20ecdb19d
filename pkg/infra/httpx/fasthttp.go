package httpx

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 2 * time.Second
	DefaultMaxConnsPerHost     = 512
	DefaultMaxIdleConnDuration = 30 * time.Second
	DefaultMaxResponseBodySize = 1024 * 1024
)

//go:generate mockery --name=Doer --dir=. --output=./mocks --filename=doer_mock.go --case=underscore --with-expecter
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

type FastHTTPClientOptions struct {
	Timeout             time.Duration
	InsecureSkipVerify  bool
	TLSConfig           *tls.Config
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	MaxResponseBodySize int
	// Dial overrides the default dialer; tests use it with in-memory listeners.
	Dial fasthttp.DialFunc
}

type FastHTTPClientOption func(*FastHTTPClientOptions)

func WithTimeout(timeout time.Duration) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.Timeout = timeout
	}
}

func WithInsecureSkipVerify(skip bool) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.InsecureSkipVerify = skip
	}
}

func WithTLSConfig(conf *tls.Config) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.TLSConfig = conf
	}
}

func WithMaxConnsPerHost(max int) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.MaxConnsPerHost = max
	}
}

func WithDial(dial func(addr string) (net.Conn, error)) FastHTTPClientOption {
	return func(o *FastHTTPClientOptions) {
		o.Dial = dial
	}
}

// NewFastHTTPClient builds the client used to reach model servers.
func NewFastHTTPClient(opts ...FastHTTPClientOption) *fasthttp.Client {
	options := &FastHTTPClientOptions{
		Timeout:             DefaultTimeout,
		MaxConnsPerHost:     DefaultMaxConnsPerHost,
		MaxIdleConnDuration: DefaultMaxIdleConnDuration,
		MaxResponseBodySize: DefaultMaxResponseBodySize,
	}
	for _, opt := range opts {
		opt(options)
	}

	client := &fasthttp.Client{
		ReadTimeout:                   options.Timeout,
		WriteTimeout:                  options.Timeout,
		MaxConnsPerHost:               options.MaxConnsPerHost,
		MaxIdleConnDuration:           options.MaxIdleConnDuration,
		MaxResponseBodySize:           options.MaxResponseBodySize,
		NoDefaultUserAgentHeader:      true,
		DisableHeaderNamesNormalizing: true,
		Dial:                          options.Dial,
	}
	switch {
	case options.TLSConfig != nil:
		client.TLSConfig = options.TLSConfig.Clone()
	case options.InsecureSkipVerify:
		client.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // intentionally configurable
		}
	}
	return client
}
