package httpserver

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})
	s := New(Config{ReadHeaderTimeout: time.Second}, h)
	if s.TLS() {
		t.Fatal("TLS() = true without certificates")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() after shutdown = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after Shutdown")
	}
}

func TestServer_TLS(t *testing.T) {
	tests := []struct {
		cert, key string
		want      bool
	}{
		{"", "", false},
		{"cert.pem", "", false},
		{"", "key.pem", false},
		{"cert.pem", "key.pem", true},
	}

	for _, tt := range tests {
		s := New(Config{TLSCertFile: tt.cert, TLSKeyFile: tt.key}, http.NotFoundHandler())
		if got := s.TLS(); got != tt.want {
			t.Errorf("TLS() with cert=%q key=%q = %v, want %v", tt.cert, tt.key, got, tt.want)
		}
	}
}

func TestServer_TLSConfig(t *testing.T) {
	s := New(Config{TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12}}, http.NotFoundHandler())
	if !s.TLS() {
		t.Error("TLS() = false with a TLS config")
	}
}

func TestServer_ListenAndServeBadAddr(t *testing.T) {
	s := New(Config{Addr: "256.0.0.1:http"}, http.NotFoundHandler())
	if err := s.ListenAndServe(); err == nil {
		t.Error("ListenAndServe() error = nil for invalid address")
	}
}
