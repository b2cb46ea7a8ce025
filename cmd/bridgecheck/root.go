package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/xbridge/atom"
	"github.com/wippyai/xbridge/conformance"
	"github.com/wippyai/xbridge/heap"
	"github.com/wippyai/xbridge/marshal"
)

type rootOptions struct {
	config   string
	backend  string
	groups   []string
	parallel int
	verbose  bool
	format   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bridgecheck",
		Short: "Cross-language value bridge conformance checker",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.format)
			}
			return setupLogging(opts.verbose)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "heap backend (arena|wazero)")
	cmd.PersistentFlags().StringSliceVarP(&opts.groups, "group", "g", nil, "case groups to run (default all)")
	cmd.PersistentFlags().IntVarP(&opts.parallel, "parallel", "p", 0, "number of concurrent sessions")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newHeaderCommand())
	cmd.AddCommand(newAtomsCommand())
	cmd.AddCommand(newInteractiveCommand(opts))

	return cmd
}

func setupLogging(verbose bool) error {
	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	heap.SetLogger(log)
	marshal.SetLogger(log)
	conformance.SetLogger(log.Named("conformance"))
	return nil
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the conformance suite",
		Long: `Run the conformance suite in one or more fresh sessions.

Exit codes:
  0 - every case passed and nothing leaked
  1 - a case failed or a session leaked
  2 - command error (bad config, unknown backend)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			reports, err := conformance.RunParallel(cmd.Context(), cfg, cfg.Parallel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(reports); err != nil {
					return err
				}
			} else {
				fmt.Fprint(out, renderReports(reports, isTerminal(out)))
			}

			for _, r := range reports {
				if !r.OK() {
					return &exitError{code: 1}
				}
			}
			return nil
		},
	}
}

func newHeaderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "header",
		Short: "Print the native declarations of the suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigs := conformance.Signatures()
			if err := conformance.Bind(sigs, conformance.Suite()); err != nil {
				return err
			}
			out, err := marshal.Header(sigs)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newAtomsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "atoms",
		Short: "List the type atoms and their spellings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), renderAtoms(atom.All(), isTerminal(cmd.OutOrStdout())))
			return nil
		},
	}
}

func newInteractiveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Pick and run case groups in a TUI",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), cfg)
		},
	}
}

// load reads the config file, if any, and applies flag overrides.
func (o *rootOptions) load() (*conformance.Config, error) {
	cfg := &conformance.Config{}
	if o.config != "" {
		data, err := os.ReadFile(o.config)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = parseConfig(data); err != nil {
			return nil, err
		}
	}
	if o.backend != "" {
		cfg.Heap.Backend = heap.Backend(strings.ToLower(o.backend))
	}
	if len(o.groups) > 0 {
		cfg.Groups = nil
	}
	for _, g := range o.groups {
		cfg.Groups = append(cfg.Groups, conformance.Group(g))
	}
	if o.parallel > 0 {
		cfg.Parallel = o.parallel
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	return cfg, nil
}
