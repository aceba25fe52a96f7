package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc"
	ensemblerpc "github.com/swcstudio/fsl-continuum-sub003/internal/rpc/ensemble"
)

type requestFlags struct {
	domain    string
	tier      string
	backends  []string
	preferred string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.domain, "domain", "", "Task domain (e.g. coding, security, ai_research)")
	cmd.Flags().StringVar(&f.tier, "tier", "", "Force a tier instead of the computed one")
	cmd.Flags().StringSliceVar(&f.backends, "backends", nil, "Explicit backend ids, in call order (repeatable or comma-separated)")
	cmd.Flags().StringVar(&f.preferred, "prefer", "", "Preferred backend; caps the tier at what it supports")
}

func (f *requestFlags) request(task string) ensemble.Request {
	return ensemble.Request{
		Task:             task,
		Domain:           f.domain,
		Tier:             f.tier,
		Backends:         f.backends,
		PreferredBackend: f.preferred,
	}
}

// NewRunCmd runs the full ensemble locally or against a daemon.
func NewRunCmd(opts *Options) *cobra.Command {
	var flags requestFlags
	var remote string
	var transport string
	var outputPath string
	var format string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run \"<task>\"",
		Short: "Classify, route and aggregate a task across backends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Output.Format
			}
			req := flags.request(args[0])

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var res *ensemble.Result
			if remote != "" {
				if transport == "" {
					transport = cfg.Server.Transport
				}
				client := ensemblerpc.NewClient(daemonURL(remote), transport)
				res, err = client.Run(ctx, req, func(ev rpc.RunEnsembleEvent) {
					if !quiet && ev.Type == ensemble.EventResponse && ev.Response.Failed() {
						fmt.Fprintf(cmd.ErrOrStderr(), "[backend %s] %s\n", ev.Response.BackendID, ev.Response.Error)
					}
				})
				if err != nil {
					return err
				}
			} else {
				logger, err := newLogger(cfg)
				if err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck // best-effort

				engine, _, err := ensemble.FromConfig(cfg, logger, nil)
				if err != nil {
					return err
				}
				local, err := engine.Run(ctx, req)
				if err != nil {
					logger.Debug("run rejected", zap.Error(err))
					return err
				}
				res = &local
			}

			if err := writeOutput(cmd.OutOrStdout(), outputPath, res, format, cfg.Output.Pretty); err != nil {
				return err
			}
			if !quiet {
				printSummary(cmd.ErrOrStderr(), res)
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&remote, "remote", "", "Daemon address (e.g. :8080); runs in-process when empty")
	cmd.Flags().StringVar(&transport, "transport", "", "Remote transport: connect or ndjson (default: server.transport)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml (default: output.format)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the summary line")
	return cmd
}

func daemonURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
