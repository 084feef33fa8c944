package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/modelspace/internal/tui"
)

var (
	dataDir    string
	storeKind  string
	logLevel   string
	configFile string

	preset      string
	sets        []string
	origSets    []string
	lengths     []string
	free        []string
	fixed       []string
	reparamKind string
	reparamArgs []string

	scanFrom    float64
	scanTo      float64
	scanPoints  int
	scanMetric  string
	integrator  string
	dt          float64
	duration    float64
	workers     int
	note        string
	logParams   bool
	saveOnClose bool
)

// modelFlags are shared by every command that builds an instance.
func modelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "working parameter NAME=VALUE")
	cmd.Flags().StringArrayVar(&origSets, "orig", nil, "original parameter NAME=VALUE")
	cmd.Flags().StringArrayVar(&lengths, "len", nil, "vector length NAME=N")
	cmd.Flags().StringSliceVar(&free, "free", nil, "parameters to mark free")
	cmd.Flags().StringSliceVar(&fixed, "fixed", nil, "parameters to mark fixed")
	cmd.Flags().StringVar(&reparamKind, "reparam", "", "reparametrization kind")
	cmd.Flags().StringSliceVar(&reparamArgs, "reparam-params", nil, "parameters the reparametrization acts on")
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "modelspace",
		Short:         "schema-driven model parameters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "snapshot store backend (dir, sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "list model types",
		Args:  cobra.NoArgs,
		RunE:  listTypes,
	}

	describeCmd := &cobra.Command{
		Use:   "describe [type]",
		Short: "show a type's property layout",
		Args:  cobra.ExactArgs(1),
		RunE:  describeType,
	}

	showCmd := &cobra.Command{
		Use:   "show [type]",
		Short: "show an instance's working parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  showModel,
	}
	modelFlags(showCmd)
	showCmd.Flags().BoolVar(&logParams, "log", false, "write parameters as structured log records")

	checkCmd := &cobra.Command{
		Use:   "check [type]",
		Short: "check bounds and validity",
		Args:  cobra.ExactArgs(1),
		RunE:  checkModel,
	}
	modelFlags(checkCmd)

	scanCmd := &cobra.Command{
		Use:   "scan [type] [param]",
		Short: "profile the simulated energy drift over one parameter",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  scanModel,
	}
	modelFlags(scanCmd)
	scanCmd.Flags().Float64Var(&scanFrom, "from", 0, "first value")
	scanCmd.Flags().Float64Var(&scanTo, "to", 0, "last value")
	scanCmd.Flags().IntVar(&scanPoints, "points", 0, "number of points")
	scanCmd.Flags().StringVar(&scanMetric, "metric", "", "metric to minimize (default energy drift)")
	scanCmd.Flags().StringVar(&integrator, "integrator", "", "integrator")
	scanCmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	scanCmd.Flags().Float64Var(&duration, "time", 0, "duration")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default all CPUs)")

	saveCmd := &cobra.Command{
		Use:   "save [type]",
		Short: "store a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  saveModel,
	}
	modelFlags(saveCmd)
	saveCmd.Flags().StringVar(&note, "note", "", "note stored with the snapshot")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored snapshots",
		Args:  cobra.NoArgs,
		RunE:  listSnapshots,
	}

	loadCmd := &cobra.Command{
		Use:   "load [id]",
		Short: "restore a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  loadSnapshot,
	}

	exportCmd := &cobra.Command{
		Use:   "export [type]",
		Short: "write an instance snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportModel,
	}
	modelFlags(exportCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [type]",
		Short: "list available presets for a type",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	editCmd := &cobra.Command{
		Use:   "edit [type]",
		Short: "edit parameters interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(args[0])
			if err != nil {
				return err
			}
			if err := tui.Run(env.model, env.cfg.Scan.Experiment()); err != nil {
				return err
			}
			if saveOnClose {
				return env.save(cmd.Context(), "edited")
			}
			return nil
		},
	}
	modelFlags(editCmd)
	editCmd.Flags().BoolVar(&saveOnClose, "save", false, "store a snapshot on exit")

	rootCmd.AddCommand(typesCmd, describeCmd, showCmd, checkCmd, scanCmd, saveCmd, listCmd, loadCmd, exportCmd, presetsCmd, editCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
