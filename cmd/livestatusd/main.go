package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/api/livestatus"
	"github.com/oceanplexian/livestatusd/internal/config"
	"github.com/oceanplexian/livestatusd/internal/extcmd"
	"github.com/oceanplexian/livestatusd/internal/logging"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

func main() {
	root := &cobra.Command{
		Use:          "livestatusd",
		Short:        "Livestatus query server for monitoring core state",
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("livestatusd %s\n", livestatus.Version)
			fmt.Printf("Go version: %s\n", runtime.Version())
		},
	})

	var configFile, snapshotFile string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve livestatus queries",
		Long: `Load the object snapshot and answer LQL requests on the configured
unix socket and/or TCP address until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile, snapshotFile)
		},
	}
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to YAML settings file")
	serveCmd.Flags().StringVar(&snapshotFile, "snapshot", "", "Object snapshot file (overrides the snapshot setting)")
	root.AddCommand(serveCmd)

	root.AddCommand(newQueryCommand())
	root.AddCommand(newColumnsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadProvider builds the core state from the snapshot at path. An empty
// path yields an empty core.
func loadProvider(path string, opts api.Options) (*api.StateProvider, error) {
	snap := &objects.Snapshot{}
	if path != "" {
		var err error
		if snap, err = objects.LoadSnapshot(path); err != nil {
			return nil, err
		}
	}
	return api.FromSnapshot(snap, opts)
}

func providerOptions(s *config.Settings) (api.Options, error) {
	serviceAuth, err := api.ParseAuthorization(s.ServiceAuthorization)
	if err != nil {
		return api.Options{}, fmt.Errorf("service_authorization: %w", err)
	}
	groupAuth, err := api.ParseAuthorization(s.GroupAuthorization)
	if err != nil {
		return api.Options{}, fmt.Errorf("group_authorization: %w", err)
	}
	return api.Options{
		MaxResponseSize:      s.MaxResponseSize,
		ServiceAuthorization: serviceAuth,
		GroupAuthorization:   groupAuth,
		MkLogwatchPath:       s.MkLogwatchPath,
		LogFile:              s.LogFile,
	}, nil
}

func runServe(configFile, snapshotFile string) error {
	settings, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if snapshotFile != "" {
		settings.Snapshot = snapshotFile
	}

	logger, err := logging.New(logging.Config{
		Level:     settings.Log.Level,
		Encoding:  settings.Log.Encoding,
		Verbosity: settings.Log.Verbosity,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := providerOptions(settings)
	if err != nil {
		return err
	}
	provider, err := loadProvider(settings.Snapshot, opts)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	provider.Logger = logger
	logger.Info("snapshot loaded",
		zap.String("path", settings.Snapshot),
		zap.Int("hosts", len(provider.Hosts())),
		zap.Int("services", len(provider.Services())))

	if err := provider.OpenHistory(); err != nil {
		return err
	}
	defer provider.History.Close()
	if err := provider.History.InitialStates(provider.Hosts(), provider.Services()); err != nil {
		logger.Warn("failed to write initial states", zap.Error(err))
	}

	srv := livestatus.New(livestatus.Config{
		SocketPath:   settings.Socket,
		TCPAddr:      settings.TCP,
		MetricsAddr:  settings.MetricsAddr,
		QueryTimeout: settings.QueryTimeout,
		IdleTimeout:  settings.IdleTimeout,
	}, livestatus.NewRegistry(provider), provider.Metrics, logger)

	dispatcher := extcmd.NewDispatcher(provider, logger)
	srv.SetCommandSink(dispatcher.Dispatch)
	srv.SetBatchCommandSink(dispatcher.DispatchBatch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return srv.Serve(ctx) })
	if settings.CommandPipe != "" {
		pipe := extcmd.NewPipe(settings.CommandPipe, dispatcher.Apply, logger)
		group.Go(func() error { return pipe.Run(ctx) })
	}
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		provider.Terminate()
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

func newColumnsCommand() *cobra.Command {
	var snapshotFile string
	cmd := &cobra.Command{
		Use:   "columns [table]",
		Short: "Print the columns table without starting a server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := loadProvider(snapshotFile, api.Options{})
			if err != nil {
				return err
			}
			srv := livestatus.New(livestatus.Config{}, livestatus.NewRegistry(provider), nil, nil)
			request := "GET columns\nColumns: table name type description\nColumnHeaders: on\n"
			if len(args) == 1 {
				request += "Filter: table = " + args[0] + "\n"
			}
			_, err = cmd.OutOrStdout().Write(srv.Query(request))
			return err
		},
	}
	cmd.Flags().StringVar(&snapshotFile, "snapshot", "", "Object snapshot file")
	return cmd
}
