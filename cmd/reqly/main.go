package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiowebux/reqly/internal/cli"
	"github.com/studiowebux/reqly/internal/config"
	"github.com/studiowebux/reqly/internal/logging"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reqly",
	Short: "reqly - interactive API testing engine",
	Long: `reqly issues one-shot HTTP requests and maintains persistent
bidirectional connections (WebSocket, TCP, UDP) addressed by handle.

Examples:
  reqly run https://api.example.com/users            # GET request
  reqly run https://api.example.com/users \
    -X POST -H "Content-Type: application/json" \
    -d '{"name":"John"}'                             # POST with body
  reqly run https://api.example.com/users --query "[].name"
  reqly connect ws://localhost:8765/echo             # interactive session
  reqly history -n 20                                # recent requests`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Execute a one-shot HTTP request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		opts := cli.RunOptions{
			URL:     args[0],
			Method:  flagMethod,
			Headers: flagHeaders,
			Body:    flagBody,
			Query:   flagQuery,
			Timeout: flagTimeout,
			Full:    flagFull,
		}
		return cli.Run(cmd.Context(), cfg, logger, opts)
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect <url>",
	Short: "Open a persistent connection (ws/wss, tcp or udp by scheme)",
	Long: `Open a managed connection and run an interactive session: lines
read from stdin are sent to the peer, received frames are printed. The
session ends on EOF, peer disconnect, or Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		opts := cli.ConnectOptions{
			URL:     args[0],
			Headers: flagHeaders,
		}
		return cli.Connect(ctx, cfg, logger, opts)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent request history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		return cli.History(cfg, os.Stdout, flagHistoryLimit)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := setup(); err != nil {
			return err
		}
		return cli.HistoryClear()
	},
}

var (
	flagMethod       string
	flagHeaders      []string
	flagBody         string
	flagQuery        string
	flagTimeout      time.Duration
	flagFull         bool
	flagVerbose      bool
	flagHistoryLimit int
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	runCmd.Flags().StringVarP(&flagMethod, "method", "X", "GET", "HTTP method (any token is sent verbatim)")
	runCmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", []string{}, "Header line 'Name: Value', can be repeated")
	runCmd.Flags().StringVarP(&flagBody, "data", "d", "", "Request body")
	runCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath expression applied to the response body")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Request timeout (overrides config)")
	runCmd.Flags().BoolVarP(&flagFull, "full", "f", false, "Show status line and headers")

	connectCmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", []string{}, "Handshake header 'Name: Value' (ws/wss only)")

	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 50, "Number of entries to show")
	historyCmd.AddCommand(historyClearCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(historyCmd)
}

// setup initializes the config directory and builds the logger.
func setup() (*config.Config, *slog.Logger, error) {
	if err := config.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if flagVerbose {
		level = slog.LevelDebug
	}
	format := logging.FormatText
	if cfg.LogFormat == string(logging.FormatJSON) {
		format = logging.FormatJSON
	}

	logger := logging.New(logging.Config{Level: level, Format: format})
	return cfg, logger, nil
}
