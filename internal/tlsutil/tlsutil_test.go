package tlsutil

import (
	"crypto/tls"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AmmannChristian/go-gsatoken/testutil"
)

func writeFixtures(t *testing.T) (caFile, certFile, keyFile string) {
	t.Helper()

	dir := t.TempDir()
	caFile = filepath.Join(dir, "ca.crt")
	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")

	testutil.WriteTestCACert(t, caFile)
	testutil.WriteTestCertAndKey(t, certFile, keyFile)
	return caFile, certFile, keyFile
}

func TestClientConfig(t *testing.T) {
	caFile, certFile, keyFile := writeFixtures(t)

	cfg, err := ClientConfig(ClientOptions{
		CAFile:     caFile,
		CertFile:   certFile,
		KeyFile:    keyFile,
		ServerName: "oauth2.googleapis.com",
	})
	if err != nil {
		t.Fatalf("ClientConfig failed: %v", err)
	}

	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected TLS 1.2 minimum, got %d", cfg.MinVersion)
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs should be set")
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("expected one client certificate, got %d", len(cfg.Certificates))
	}
	if cfg.ServerName != "oauth2.googleapis.com" {
		t.Errorf("unexpected server name %q", cfg.ServerName)
	}
}

func TestClientConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	badCA := filepath.Join(dir, "bad.crt")
	if err := os.WriteFile(badCA, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		opts ClientOptions
		want string
	}{
		{name: "missing CA", opts: ClientOptions{CAFile: filepath.Join(dir, "missing.crt")}, want: "read CA file"},
		{name: "invalid CA", opts: ClientOptions{CAFile: badCA}, want: "failed to parse CA certificate"},
		{name: "cert without key", opts: ClientOptions{CertFile: "tls.crt"}, want: "both TLS cert and key files"},
		{name: "key without cert", opts: ClientOptions{KeyFile: "tls.key"}, want: "both TLS cert and key files"},
		{name: "bad pair", opts: ClientOptions{CertFile: badCA, KeyFile: badCA}, want: "load client certificate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClientConfig(tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestServerConfig(t *testing.T) {
	caFile, certFile, keyFile := writeFixtures(t)

	cfg, err := ServerConfig(ServerOptions{
		CertFile:   certFile,
		KeyFile:    keyFile,
		CAFile:     caFile,
		ClientAuth: tls.RequireAndVerifyClientCert,
		MinVersion: tls.VersionTLS13,
	})
	if err != nil {
		t.Fatalf("ServerConfig failed: %v", err)
	}

	if cfg.MinVersion != tls.VersionTLS13 {
		t.Errorf("expected TLS 1.3 minimum, got %d", cfg.MinVersion)
	}
	if cfg.ClientCAs == nil {
		t.Error("ClientCAs should be set")
	}
	if cfg.ClientAuth != tls.RequireAndVerifyClientCert {
		t.Errorf("unexpected client auth %v", cfg.ClientAuth)
	}

	if _, err := ServerConfig(ServerOptions{KeyFile: keyFile}); err == nil {
		t.Error("expected error for missing certificate")
	}
	if _, err := ServerConfig(ServerOptions{CertFile: certFile}); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestReadFile(t *testing.T) {
	if _, err := ReadFile(""); err == nil {
		t.Error("expected error for empty path")
	}

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}
