package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/brizzai/swapi/internal/config"
	"github.com/brizzai/swapi/internal/logger"
	"github.com/brizzai/swapi/internal/parser"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/brizzai/swapi/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "swapi-mcp",
	Short: "Serve an OpenAPI described API as MCP tools",
	Long: `swapi-mcp reads an OpenAPI 3 or Swagger 2 document and exposes every operation
as an MCP tool. Tool calls are sent to the API through the swapi requester.`,
	SilenceUsage: true,
	RunE:         runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.Flags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.Mode == config.ServerModeSTDIO || cfg.Server.Mode == "" {
		cfg.Logging.Stderr = true
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		config.Module,
		logger.Module,
		requester.Module,
		parser.Module,
		server.Module,
		fx.Invoke(startServer),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return err
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", sig.ExitCode)
	}
	return nil
}

// startServer runs the MCP server for the lifetime of the fx app. The app
// shuts down when the server returns, e.g. when stdin closes in stdio mode.
func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *server.Server) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(ctx); err != nil {
					logger.Error("MCP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
