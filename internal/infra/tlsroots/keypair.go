package tlsroots

import (
	"crypto/tls"
	"fmt"
	"sync"
)

// Keypair holds a server certificate loaded from disk. Reload swaps it
// without restarting the listener.
type Keypair struct {
	certFile string
	keyFile  string

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewKeypair loads the certificate and key.
func NewKeypair(certFile, keyFile string) (*Keypair, error) {
	kp := &Keypair{certFile: certFile, keyFile: keyFile}
	if err := kp.Reload(); err != nil {
		return nil, err
	}
	return kp, nil
}

// Reload re-reads both files. On failure the previous certificate stays
// in use.
func (kp *Keypair) Reload() error {
	cert, err := tls.LoadX509KeyPair(kp.certFile, kp.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}

	kp.mu.Lock()
	kp.cert = &cert
	kp.mu.Unlock()
	return nil
}

// Files returns the certificate and key paths.
func (kp *Keypair) Files() (certFile, keyFile string) {
	return kp.certFile, kp.keyFile
}

// GetCertificate implements tls.Config.GetCertificate.
func (kp *Keypair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	kp.mu.RLock()
	defer kp.mu.RUnlock()
	return kp.cert, nil
}

// ServerConfig returns a server TLS config backed by this keypair.
func (kp *Keypair) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: kp.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}
