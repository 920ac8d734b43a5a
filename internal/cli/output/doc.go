// Package output provides output formatting for opslab-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables (text/tabwriter)
//   - json.go, yaml.go: machine-readable output
//   - progress.go: request progress for long-running commands
//
// Commands hand formatters a value that implements Tabular; JSON and YAML
// encode the value itself, the table formatter renders its Table.
package output
