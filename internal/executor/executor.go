package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/studiowebux/reqly/internal/types"
)

// DefaultTimeout bounds a request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Kind classifies an execution failure.
type Kind int

const (
	// KindRequest covers request construction failures: malformed URL,
	// invalid method token, bad header line.
	KindRequest Kind = iota + 1
	// KindTransport covers DNS, TLS, connect, timeout and read failures.
	KindTransport
	// KindDecode covers a response body that is not valid UTF-8.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error wraps an execution failure with its failure class. No partial
// response ever accompanies an Error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure class of err, or 0 if err did not come from
// this package.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return 0
}

// Options control transport behavior for a single execution.
type Options struct {
	// Timeout bounds the whole transfer. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Execute performs one HTTP request and returns the response.
//
// The method token is forwarded verbatim; anything outside the well-known
// verb set becomes a custom method on the wire. Headers are appended in the
// given order, duplicates included. The call blocks until the transfer
// completes, fails, or ctx is done.
func Execute(ctx context.Context, req *types.Request, opts *Options) (*types.Response, error) {
	timeout := DefaultTimeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = bytes.NewBufferString(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	for _, line := range req.Headers {
		name, value, err := splitHeaderLine(line)
		if err != nil {
			return nil, &Error{Kind: KindRequest, Err: err}
		}
		httpReq.Header.Add(name, value)
	}

	client := &http.Client{Timeout: timeout}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if !utf8.Valid(bodyBytes) {
		return nil, &Error{Kind: KindDecode, Err: errors.New("response body is not valid UTF-8")}
	}

	return &types.Response{
		Status:  resp.StatusCode,
		Headers: headerLines(resp),
		Body:    string(bodyBytes),
	}, nil
}

// splitHeaderLine parses a raw "Name: Value" header line.
func splitHeaderLine(line string) (string, string, error) {
	name, value, ok := strings.Cut(line, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("invalid header line %q", line)
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), nil
}

// headerLines rebuilds the response header block as individual lines:
// status line first, then one "Name: Value" line per header value. Value
// order within a name is preserved; names are sorted because net/http does
// not expose wire order. Empty lines never appear.
func headerLines(resp *http.Response) []string {
	lines := []string{fmt.Sprintf("%s %s", resp.Proto, resp.Status)}

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range resp.Header[name] {
			lines = append(lines, fmt.Sprintf("%s: %s", name, value))
		}
	}
	return lines
}
