// Package tlsroots provides TLS material for opslab binaries.
//
//   - Pool: trusted roots for clients (system roots plus extra CA files)
//   - Keypair: a server certificate that can be reloaded in place, served
//     through tls.Config.GetCertificate
package tlsroots
