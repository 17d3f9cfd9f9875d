package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/logger"
	"github.com/ajitpratap0/keepice/pkg/manager"
	"github.com/ajitpratap0/keepice/pkg/observability"
)

var version = "0.1.0"

// app carries the state shared by every command
type app struct {
	v        *viper.Viper
	factory  *manager.Factory
	manager  *manager.TableManager
	shutdown observability.ShutdownFunc
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("KEEPICE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "keepice",
		Short: "keepice - Iceberg table management over Spark, Athena or an Iceberg catalog",
		Long: `keepice manages Apache Iceberg databases and tables through one of three engines:
a Spark Connect session (spark_iceberg), Amazon Athena (athena) or an Iceberg REST
catalog (pyiceberg). Connectors are configured in config/connectors_config.yaml.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("connector", "c", "spark_iceberg", "Connector type (spark_iceberg, athena, pyiceberg)")
	flags.String("config", "", "Path to connectors_config.yaml (default: search for a config folder)")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringP("output", "o", "table", "Output format (table, json)")
	flags.Bool("trace", false, "Write OpenTelemetry spans to stderr")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newVersionCommand(),
		a.databasesCommand(),
		a.tablesCommand(),
		a.createDatabaseCommand(),
		a.ddlCommand(),
		a.createTableCommand(),
		a.dropTableCommand(),
		a.propertyCommand(),
		a.loadCommand(),
		a.upsertCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "keepice v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// setup initializes logging and tracing and binds a manager to the selected
// connector.
func (a *app) setup(cmd *cobra.Command) error {
	if err := logger.Init(logger.Config{Level: a.v.GetString("log-level"), Encoding: "console"}); err != nil {
		return err
	}

	if a.v.GetBool("trace") {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "keepice",
			ServiceVersion: version,
			SamplingRate:   1,
			Output:         cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		a.shutdown = shutdown
	}

	var opts []manager.FactoryOption
	if path := a.v.GetString("config"); path != "" {
		opts = append(opts, manager.WithConfigPath(path))
	}
	factory, err := manager.NewFactory(opts...)
	if err != nil {
		return err
	}
	a.factory = factory

	tm, err := factory.GetManager(cmd.Context(), a.v.GetString("connector"))
	if err != nil {
		return err
	}
	a.manager = tm
	return nil
}

// teardown closes the session and flushes logs and spans. It also runs
// after a failed setup, releasing whatever setup got to open.
func (a *app) teardown(cmd *cobra.Command) {
	if a.factory != nil {
		if err := a.factory.Close(); err != nil {
			logger.Get().Warn("failed to close connectors", zap.Error(err))
		}
		a.factory, a.manager = nil, nil
	}
	if a.shutdown != nil {
		_ = a.shutdown(context.WithoutCancel(cmd.Context()))
		a.shutdown = nil
	}
	_ = logger.Sync()
}

// run wraps a command body with setup and teardown
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown(cmd)
		if err := a.setup(cmd); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}
