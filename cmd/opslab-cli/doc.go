// Package main provides the entry point for opslab-cli.
//
// opslab-cli probes and exercises a running opslab-server:
//
//	opslab-cli health
//	opslab-cli -o json metrics --filter app_
//	opslab-cli traffic --rate 10 --count 200 --endpoint /simulate-error
package main
