package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/swcstudio/fsl-continuum-sub003/internal/complexity"
	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	ensemblerpc "github.com/swcstudio/fsl-continuum-sub003/internal/rpc/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

// NewClassifyCmd prints the complexity analysis of a task.
func NewClassifyCmd(opts *Options) *cobra.Command {
	var domain string
	var format string

	cmd := &cobra.Command{
		Use:   "classify \"<task>\"",
		Short: "Score a task's complexity without calling any backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			engine, _, err := ensemble.FromConfig(cfg, nil, nil)
			if err != nil {
				return err
			}

			analysis, err := engine.Classifier().Analyze(args[0], domain)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Output.Format
			}
			return encode(cmd.OutOrStdout(), struct {
				Tier                tier.Tier `json:"tier" yaml:"tier"`
				complexity.Analysis `yaml:",inline"`
			}{Tier: tier.FromScore(analysis.Score), Analysis: analysis}, format, cfg.Output.Pretty)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Task domain")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml")
	return cmd
}

// NewRouteCmd prints the routing decision for a task.
func NewRouteCmd(opts *Options) *cobra.Command {
	var flags requestFlags
	var format string

	cmd := &cobra.Command{
		Use:   "route \"<task>\"",
		Short: "Show which tier and backends a task would be sent to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			engine, _, err := ensemble.FromConfig(cfg, nil, nil)
			if err != nil {
				return err
			}

			_, decision, err := engine.Plan(flags.request(args[0]))
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Output.Format
			}
			return encode(cmd.OutOrStdout(), decision, format, cfg.Output.Pretty)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml")
	return cmd
}

// NewBackendsCmd lists configured backends.
func NewBackendsCmd(opts *Options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List configured backends, cheapest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			engine, reg, err := ensemble.FromConfig(cfg, nil, nil)
			if err != nil {
				return err
			}
			table := ensemblerpc.BackendTable(reg, engine.Router())

			if format != "" {
				return encode(cmd.OutOrStdout(), table, format, cfg.Output.Pretty)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tCOST\tQUALITY\tMAX TIER\tTIERS")
			for _, b := range table {
				names := make([]string, 0, len(b.Tiers))
				for _, t := range b.Tiers {
					names = append(names, t.String())
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
					b.ID, b.Type, b.CostPerUnit, b.QualityScore, b.SupportsUpTo(), strings.Join(names, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml (default: table)")
	return cmd
}
