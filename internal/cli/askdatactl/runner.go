// Package askdatactl is the command-line client for the askdata API.
package askdatactl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

// errRequestFailed marks failures that reached the server or the network, as
// opposed to usage mistakes.
var errRequestFailed = errors.New("request failed")

type settings struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// Run executes one command and returns the process exit code: 0 on success,
// 1 when the request failed, 2 on usage errors.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	s := &settings{client: defaults.HTTPClient}
	root := newRootCommand(s, defaults)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errRequestFailed):
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	default:
		_, _ = fmt.Fprintf(stderr, "error: %v\n\n", err)
		if cmd == nil {
			cmd = root
		}
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
		return 2
	}
}

func newRootCommand(s *settings, defaults Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "askdatactl",
		Short:         "Ask questions about your data through the askdata API",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if s.client == nil {
				s.client = &http.Client{Timeout: s.timeout}
			}
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			return errors.New("a command is required")
		},
	}
	root.PersistentFlags().StringVar(&s.baseURL, "base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "askdata API base URL")
	root.PersistentFlags().DurationVar(&s.timeout, "timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 30s)")

	root.AddCommand(
		newGetCommand(s, "health", "Show service info (GET /)", "/"),
		newGetCommand(s, "ready", "Check readiness (GET /ready)", "/ready"),
		newAskCommand(s),
	)
	return root
}

func newGetCommand(s *settings, name, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := s.do(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return renderRaw(cmd.OutOrStdout(), body)
		},
	}
}

func newAskCommand(s *settings) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question in natural language (POST /ask)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("unsupported format %q: want json or table", format)
			}
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return errors.New("question is required")
			}
			body, err := s.do(cmd.Context(), http.MethodPost, "/ask", map[string]string{"question": question})
			if err != nil {
				return err
			}
			if format == "table" {
				return renderTable(cmd.OutOrStdout(), body)
			}
			return renderRaw(cmd.OutOrStdout(), body)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or table")
	return cmd
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
