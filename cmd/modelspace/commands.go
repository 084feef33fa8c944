package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/modelspace/internal/config"
	"github.com/san-kum/modelspace/internal/experiment"
	"github.com/san-kum/modelspace/internal/logging"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/optim"
	"github.com/san-kum/modelspace/internal/reparam"
	"github.com/san-kum/modelspace/internal/serial"
	"github.com/san-kum/modelspace/internal/storage"
	"github.com/san-kum/modelspace/internal/viz"
)

type runEnv struct {
	cfg    *config.Config
	reg    *experiment.Registry
	logger *slog.Logger
	model  *model.Model
}

// loadRuntime resolves the config file, MODELSPACE_* variables and the global
// flags, in increasing priority.
func loadRuntime() (*runEnv, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if storeKind != "" {
		cfg.Store = storeKind
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}
	reg, err := experiment.NewRegistry()
	if err != nil {
		return nil, err
	}
	return &runEnv{cfg: cfg, reg: reg, logger: logger}, nil
}

// setup builds an instance of typ from the runtime config, the preset and
// the model flags.
func setup(typ string) (*runEnv, error) {
	env, err := loadRuntime()
	if err != nil {
		return nil, err
	}
	cfg := env.cfg

	if preset != "" {
		p := config.GetPreset(typ, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(typ))
		}
		cfg = cfg.Apply(p)
	}
	cfg.Model = typ

	if err := mergeValues(&cfg.Params, sets); err != nil {
		return nil, err
	}
	if err := mergeValues(&cfg.OrigParams, origSets); err != nil {
		return nil, err
	}
	for _, kv := range lengths {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("expected NAME=N, got %q", kv)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("length %s: %w", name, err)
		}
		if cfg.VectorLengths == nil {
			cfg.VectorLengths = make(map[string]int)
		}
		cfg.VectorLengths[name] = n
	}
	cfg.Free = append(cfg.Free, free...)
	cfg.Fixed = append(cfg.Fixed, fixed...)
	if reparamKind != "" {
		cfg.Reparam = &config.ReparamConfig{Kind: reparamKind, Options: reparam.Options{Params: reparamArgs}}
	}

	m, err := config.Build(cfg, env.reg.Models)
	if err != nil {
		return nil, err
	}
	env.cfg = cfg
	env.model = m
	env.logger.Debug("model built", "type", typ, "params", m.Len(), "free", m.FreeParamsLen())
	return env, nil
}

func mergeValues(dst *map[string]float64, assignments []string) error {
	for _, kv := range assignments {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("expected NAME=VALUE, got %q", kv)
		}
		x, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("value of %s: %w", name, err)
		}
		if *dst == nil {
			*dst = make(map[string]float64)
		}
		(*dst)[name] = x
	}
	return nil
}

func (e *runEnv) store() (storage.Store, error) {
	return storage.Open(e.cfg.Store, e.cfg.DataDir)
}

func (e *runEnv) save(ctx context.Context, note string) error {
	st, err := e.store()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Save(ctx, e.model, note)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", meta.ID)
	if meta.Reparam != "" {
		fmt.Printf("note: the %s reparametrization is recorded but not part of the snapshot\n", meta.Reparam)
	}
	return nil
}

func listTypes(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNICK\tPARENT\tSCALAR\tVECTOR\tDEFAULT LEN")
	for _, name := range env.reg.ListModels() {
		s, _ := env.reg.Models.Schema(name)
		parent := "-"
		if s.Parent() != nil {
			parent = s.Parent().Name()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n", s.Name(), s.Nick(), parent, s.SparamLen(), s.VparamLen(), s.DefaultLen())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nreparametrizations: %s\n", strings.Join(reparam.Kinds(), ", "))
	fmt.Printf("integrators: %s\n", strings.Join(env.reg.ListIntegrators(), ", "))
	return nil
}

func describeType(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}
	s, err := env.reg.Models.Schema(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.LayoutTable(s))
	return nil
}

func showModel(cmd *cobra.Command, args []string) error {
	env, err := setup(args[0])
	if err != nil {
		return err
	}
	if logParams {
		env.model.LogParams(slog.New(slog.NewTextHandler(os.Stdout, nil)))
		return nil
	}
	fmt.Println(viz.ParamTable(env.model))
	return nil
}

func checkModel(cmd *cobra.Command, args []string) error {
	env, err := setup(args[0])
	if err != nil {
		return err
	}
	m := env.model

	ok := true
	for i, name := range m.ParamNames() {
		x := m.ParamGet(i)
		switch {
		case !m.ParamFinite(i):
			fmt.Printf("  %s = %g is not finite\n", name, x)
			ok = false
		case x < m.ParamLowerBound(i) || x > m.ParamUpperBound(i):
			fmt.Printf("  %s = %g outside [%g, %g]\n", name, x, m.ParamLowerBound(i), m.ParamUpperBound(i))
			ok = false
		}
	}
	if !m.ParamsValid() {
		fmt.Println("  parameters rejected by the model type")
		ok = false
	}
	if !ok {
		return errors.New("check failed")
	}
	fmt.Println("ok")
	return nil
}

func scanModel(cmd *cobra.Command, args []string) error {
	env, err := setup(args[0])
	if err != nil {
		return err
	}
	scan := env.cfg.Scan
	if len(args) > 1 {
		scan.Param = args[1]
	}
	flags := cmd.Flags()
	if flags.Changed("from") {
		scan.From = scanFrom
	}
	if flags.Changed("to") {
		scan.To = scanTo
	}
	if flags.Changed("points") {
		scan.Points = scanPoints
	}
	if flags.Changed("metric") {
		scan.Metric = scanMetric
	}
	if flags.Changed("integrator") {
		scan.Integrator = integrator
	}
	if flags.Changed("dt") {
		scan.Dt = dt
	}
	if flags.Changed("time") {
		scan.Duration = duration
	}

	cfg := env.cfg
	build := func() (*model.Model, error) { return config.Build(cfg, env.reg.Models) }
	obj := optim.ExperimentObjective(scan.Experiment(), scan.Metric, env.logger)

	g := optim.NewGridSearch(optim.Axis{Param: scan.Param, Values: optim.Linspace(scan.From, scan.To, scan.Points)})
	g.SetWorkers(workers)
	g.SetLogger(env.logger)

	result, err := g.Search(cmd.Context(), build, obj)
	if err != nil && !errors.Is(err, optim.ErrNoValidSample) {
		return err
	}
	fmt.Println(viz.ScanPlot(result, 60, 12))

	failed := 0
	for _, s := range result.Samples {
		if s.Err != nil {
			failed++
			env.logger.Debug("sample failed", "point", s.Point, "err", s.Err)
		}
	}
	if failed > 0 {
		fmt.Printf("%d of %d samples failed\n", failed, len(result.Samples))
	}
	return err
}

func saveModel(cmd *cobra.Command, args []string) error {
	env, err := setup(args[0])
	if err != nil {
		return err
	}
	return env.save(cmd.Context(), note)
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}
	st, err := env.store()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no snapshots found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tPARAMS\tFREE\tREPARAM\tNOTE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Params,
			run.Free,
			run.Reparam,
			run.Note,
		)
	}
	return w.Flush()
}

func loadSnapshot(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}
	st, err := env.store()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	m, err := serial.Restore(env.reg.Models, snap)
	if err != nil {
		return err
	}
	fmt.Println(viz.ParamTable(m))
	if meta.Reparam != "" {
		fmt.Printf("saved under the %s reparametrization; values shown in the original space\n", meta.Reparam)
	}
	return nil
}

func exportModel(cmd *cobra.Command, args []string) error {
	env, err := setup(args[0])
	if err != nil {
		return err
	}
	data, err := serial.Marshal(env.model)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for model: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
