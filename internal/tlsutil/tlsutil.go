// Package tlsutil builds client and server TLS configurations from PEM files.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ClientOptions describes the TLS settings of an outgoing connection.
type ClientOptions struct {
	CAFile             string // optional, system roots when empty
	CertFile           string // client certificate for mTLS, paired with KeyFile
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// ServerOptions describes the TLS settings of a listening server.
type ServerOptions struct {
	CertFile   string
	KeyFile    string
	CAFile     string // optional, enables client certificate verification
	ClientAuth tls.ClientAuthType
	MinVersion uint16 // default TLS 1.2
}

// ClientConfig returns a TLS 1.2+ client configuration.
func ClientConfig(opts ClientOptions) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.InsecureSkipVerify, // #nosec G402
	}

	if opts.CAFile != "" {
		pool, err := LoadCertPool(opts.CAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	switch {
	case opts.CertFile != "" && opts.KeyFile != "":
		cert, err := LoadKeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	case opts.CertFile != "" || opts.KeyFile != "":
		return nil, errors.New("both TLS cert and key files must be provided for mTLS")
	}

	return tlsConfig, nil
}

// ServerConfig returns a server configuration presenting CertFile/KeyFile.
func ServerConfig(opts ServerOptions) (*tls.Config, error) {
	if opts.CertFile == "" {
		return nil, errors.New("server certificate file is required")
	}
	if opts.KeyFile == "" {
		return nil, errors.New("server key file is required")
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ClientAuth: opts.ClientAuth,
	}
	if opts.MinVersion > 0 {
		tlsConfig.MinVersion = opts.MinVersion
	}

	cert, err := LoadKeyPair(opts.CertFile, opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server certificate: %w", err)
	}
	tlsConfig.Certificates = []tls.Certificate{cert}

	if opts.CAFile != "" {
		pool, err := LoadCertPool(opts.CAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.ClientCAs = pool
	}

	return tlsConfig, nil
}

// LoadCertPool reads a PEM bundle into a new certificate pool.
func LoadCertPool(path string) (*x509.CertPool, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errors.New("failed to parse CA certificate")
	}
	return pool, nil
}

// LoadKeyPair reads a PEM certificate and its private key.
func LoadKeyPair(certFile, keyFile string) (tls.Certificate, error) {
	certPEM, err := ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read certificate file: %w", err)
	}

	keyPEM, err := ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read key file: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("parse certificate: %w", err)
	}
	return cert, nil
}

// ReadFile reads path through os.OpenInRoot so that the base name cannot
// escape its directory.
func ReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("empty file path")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}

	f, err := os.OpenInRoot(filepath.Dir(abs), filepath.Base(abs))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
