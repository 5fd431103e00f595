// Package cli implements the command-line invocation surface: one-shot
// request execution and interactive connection sessions. It is a thin
// bridge over the executor and connection manager.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/reqly/internal/config"
	"github.com/studiowebux/reqly/internal/conn"
	"github.com/studiowebux/reqly/internal/executor"
	"github.com/studiowebux/reqly/internal/filter"
	"github.com/studiowebux/reqly/internal/history"
	"github.com/studiowebux/reqly/internal/transport"
	"github.com/studiowebux/reqly/internal/types"
)

// RunOptions configure a one-shot request execution.
type RunOptions struct {
	URL     string
	Method  string
	Headers []string // raw "Name: Value" lines
	Body    string
	Query   string // optional JMESPath expression applied to the body
	Timeout time.Duration
	Full    bool // print status and headers, not just the body

	Out io.Writer // defaults to os.Stdout
}

// Run executes one HTTP request, prints the response and records it in the
// history database when enabled.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts RunOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	method := opts.Method
	if method == "" {
		method = "GET"
	}

	req := &types.Request{
		URL:     opts.URL,
		Method:  method,
		Headers: opts.Headers,
		Body:    opts.Body,
	}

	timeout := time.Duration(cfg.RequestTimeout)
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	start := time.Now()
	resp, err := executor.Execute(ctx, req, &executor.Options{Timeout: timeout})
	duration := time.Since(start)

	saveHistory(cfg, logger, req, resp, err, duration)

	if err != nil {
		return err
	}

	body := resp.Body
	if opts.Query != "" {
		body, err = filter.Query(resp.Body, opts.Query)
		if err != nil {
			return err
		}
	}

	if opts.Full {
		for _, line := range resp.Headers {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, body)
	return nil
}

// saveHistory records the execution; failures are logged, never returned.
func saveHistory(cfg *config.Config, logger *slog.Logger, req *types.Request, resp *types.Response, execErr error, duration time.Duration) {
	if cfg.HistoryEnabled == nil || !*cfg.HistoryEnabled || config.DatabasePath == "" {
		return
	}
	hm, err := history.NewManager(config.DatabasePath)
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	defer hm.Close()
	if err := hm.Save(req, resp, execErr, duration); err != nil {
		logger.Warn("failed to save history", "error", err)
	}
}

// ConnectOptions configure an interactive connection session.
type ConnectOptions struct {
	URL     string
	Headers []string // handshake headers for ws/wss URLs

	In  io.Reader // defaults to os.Stdin
	Out io.Writer // defaults to os.Stdout
}

// Connect opens a managed connection to opts.URL (ws/wss, tcp or udp by
// scheme) and runs an interactive session: lines read from In are sent to
// the peer, frames received from the peer are printed to Out. The session
// ends on EOF, peer disconnect, or ctx cancellation.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ConnectOptions) error {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	header, err := headerFromLines(opts.Headers)
	if err != nil {
		return err
	}

	mgr := conn.NewManager(conn.Config{
		Logger: logger,
		Transport: &transport.Options{
			HandshakeTimeout: time.Duration(cfg.HandshakeTimeout),
			Header:           header,
		},
	})
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mgr.Shutdown(sctx)
	}()

	handle, err := mgr.Connect(ctx, opts.URL)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "connected to %s (handle %d)\n", opts.URL, handle)

	// A blocked network read only unblocks when its stream closes, so tear
	// the manager down as soon as the session context ends.
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mgr.Shutdown(sctx)
	}()

	// Reading In cannot be interrupted, so the scanner runs detached and
	// feeds the sender through a channel.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			msg, err := mgr.Receive(gctx, handle)
			if err != nil {
				if gctx.Err() == nil && !errors.Is(err, conn.ErrUnknownHandle) {
					logger.Debug("session ended", "error", err)
				}
				return nil
			}
			fmt.Fprintf(out, "< %s\n", msg)
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					// EOF: close the connection; the receive pump
					// observes the closed stream and exits.
					return mgr.Close(gctx, handle)
				}
				if line == "" {
					continue
				}
				if err := mgr.Send(gctx, handle, []byte(line)); err != nil {
					if errors.Is(err, conn.ErrClosed) {
						return nil
					}
					return err
				}
			}
		}
	})

	return g.Wait()
}

// History prints the most recent history entries.
func History(cfg *config.Config, out io.Writer, limit int) error {
	hm, err := history.NewManager(config.DatabasePath)
	if err != nil {
		return err
	}
	defer hm.Close()

	entries, err := hm.List(limit)
	if err != nil {
		return err
	}

	for _, e := range entries {
		status := fmt.Sprintf("%d", e.ResponseStatus)
		if e.Error != "" {
			status = "ERR"
		}
		fmt.Fprintf(out, "%s  %-7s %-4s %s (%dms)\n",
			e.Timestamp, e.Method, status, e.URL, e.Duration)
	}
	return nil
}

// HistoryClear deletes all history entries.
func HistoryClear() error {
	hm, err := history.NewManager(config.DatabasePath)
	if err != nil {
		return err
	}
	defer hm.Close()
	return hm.Clear()
}

// headerFromLines converts raw "Name: Value" lines into an http.Header for
// the WebSocket handshake.
func headerFromLines(lines []string) (http.Header, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	header := http.Header{}
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return header, nil
}
