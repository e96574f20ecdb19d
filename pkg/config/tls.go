package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ServerTLSConfig enables TLS on the gate and admin listeners when both files are set.
type ServerTLSConfig struct {
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	ClientCA   string `mapstructure:"client_ca"`
	MaxVersion string `mapstructure:"max_version"`
}

func (c ServerTLSConfig) Enabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// ClientTLSConfig is used when calling remote model servers.
type ClientTLSConfig struct {
	CACert             string `mapstructure:"ca_cert"`
	ClientCert         string `mapstructure:"client_cert"`
	ClientKey          string `mapstructure:"client_key"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
	MaxVersion         string `mapstructure:"max_version"`
}

func (c ClientTLSConfig) Configured() bool {
	return c.CACert != "" || c.ClientCert != "" || c.InsecureSkipVerify
}

func BuildServerTLSConfig(cfg ServerTLSConfig) (*tls.Config, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load X509 key pair: %w", err)
	}
	conf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tlsVersion(cfg.MaxVersion),
	}
	if cfg.ClientCA != "" {
		pool, err := loadCertPool(cfg.ClientCA, x509.NewCertPool())
		if err != nil {
			return nil, err
		}
		conf.ClientCAs = pool
		conf.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return conf, nil
}

func BuildClientTLSConfig(cfg ClientTLSConfig) (*tls.Config, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	conf := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, // #nosec G402
		MinVersion:         tls.VersionTLS12,
		MaxVersion:         tlsVersion(cfg.MaxVersion),
	}
	if cfg.ClientCert != "" || cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate/key: %w", err)
		}
		conf.Certificates = []tls.Certificate{cert}
	}
	if cfg.CACert != "" {
		system, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("failed to load system CA pool: %w", err)
		}
		pool, err := loadCertPool(cfg.CACert, system)
		if err != nil {
			return nil, err
		}
		conf.RootCAs = pool
	}
	return conf, nil
}

func loadCertPool(path string, pool *x509.CertPool) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	if ok := pool.AppendCertsFromPEM(pem); !ok {
		return nil, fmt.Errorf("failed to append CA certificate from %s", path)
	}
	return pool, nil
}

func tlsVersion(version string) uint16 {
	switch version {
	case "TLS12":
		return tls.VersionTLS12
	default:
		return tls.VersionTLS13
	}
}
