package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/opslab-go/internal/cli/connection"
	"github.com/yndnr/opslab-go/internal/cli/output"
	"github.com/yndnr/opslab-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "opslab-cli",
		Usage:   "Probe and exercise an opslab-server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			HealthCommand(),
			MetricsCommand(),
			TrafficCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "opslab-server address (e.g., localhost:5000 or https://host:5443)",
			EnvVars: []string{"OPSLAB_SERVER"},
			Value:   "localhost:5000",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Bearer token for the metrics endpoint",
			EnvVars: []string{"OPSLAB_METRICS_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM bundle trusted in addition to the system roots",
			EnvVars: []string{"OPSLAB_CA_FILE"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Token   string
	CAFile  string
	Timeout time.Duration
	Output  output.Format
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Server:  c.String("server"),
		Token:   c.String("token"),
		CAFile:  c.String("ca-file"),
		Timeout: c.Duration("timeout"),
		Output:  format,
	}
}

// NewClient builds the HTTP client from the global flags.
func NewClient(c *cli.Context) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)
	return connection.NewHTTPClient(connection.Options{
		Server:  flags.Server,
		Token:   flags.Token,
		CAFile:  flags.CAFile,
		Timeout: flags.Timeout,
	})
}

// Print writes data to the app's writer in the selected format.
func Print(c *cli.Context, data any) error {
	return output.NewFormatter(ParseGlobalFlags(c).Output).Format(c.App.Writer, data)
}
