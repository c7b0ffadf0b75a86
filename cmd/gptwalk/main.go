package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/gptwalk/internal/automation"
	"github.com/san-kum/gptwalk/internal/config"
	"github.com/san-kum/gptwalk/internal/export"
	"github.com/san-kum/gptwalk/internal/logger"
	"github.com/san-kum/gptwalk/internal/scores"
	"github.com/san-kum/gptwalk/internal/storage"
	"github.com/san-kum/gptwalk/internal/tui"
	"github.com/san-kum/gptwalk/internal/viz"
	"github.com/san-kum/gptwalk/internal/walkthrough"
)

var (
	configFile string
	preset     string
	theme      string
	autoplay   bool
	startStep  int
	logFile    string
	dataDir    string
	save       bool
	resume     bool
	force      bool
	output     string
	kind       string
	script     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "gptwalk",
		Short:        "animated walkthrough of a GPT transformer",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "pacing preset")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "", "color theme")
	rootCmd.PersistentFlags().BoolVar(&autoplay, "autoplay", false, "start playing immediately")
	rootCmd.PersistentFlags().IntVar(&startStep, "step", 1, "step to start from (1-8)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path, - for stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "session directory (default from config)")
	rootCmd.PersistentFlags().BoolVar(&save, "save", false, "record the session")
	rootCmd.PersistentFlags().BoolVar(&resume, "resume", false, "start from where the last saved session ended")

	stepsCmd := &cobra.Command{
		Use:   "steps",
		Short: "list the walkthrough steps",
		RunE:  listSteps,
	}

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "narrate the walkthrough without the TUI",
		RunE:  runPlay,
	}
	playCmd.Flags().StringVar(&script, "script", "", "scenario file (yaml) to drive instead of autoplay")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list pacing presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTEP\tPHASE\tSCROLL")
			for _, name := range config.ListPresets() {
				t := config.Presets[name]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, t.StepDwell, t.PhaseInterval, t.ScrollDelay)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configInitCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	scoresCmd := &cobra.Command{
		Use:   "scores [head]",
		Short: "print the attention scores of one head",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printScores,
	}

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list saved sessions",
		RunE:  listSessions,
	}

	exportCmd := &cobra.Command{
		Use:   "export [head]",
		Short: "write the attention heatmap of one head, or the vector bars, as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "attention.svg", "output file")
	exportCmd.Flags().StringVar(&kind, "kind", "matrix", "what to draw: matrix or vectors")

	rootCmd.AddCommand(stepsCmd, playCmd, presetsCmd, configCmd, scoresCmd, sessionsCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the preset, the config file and the flags, in that
// order of precedence from lowest to highest.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(cfg, configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("autoplay") {
		cfg.Autoplay = autoplay
	}
	if flags.Changed("step") {
		cfg.StartStep = startStep - 1
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	return cfg, cfg.Validate()
}

// session is one controller run plus its optional recording.
type session struct {
	cfg   *config.Config
	ctrl  *walkthrough.Controller
	store *storage.Store
	rec   *storage.Recorder
}

func setup(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	catalog, err := cfg.GetCatalog()
	if err != nil {
		return nil, err
	}

	st := storage.New(cfg.DataDir)
	initial := cfg.GetInitState()
	if resume {
		last, err := st.Latest()
		if err != nil {
			return nil, err
		}
		logger.L().Info("resuming session", zap.String("id", last.ID), zap.Stringer("state", last.Final))
		initial = last.Final
	}

	ctrl, err := walkthrough.NewController(catalog,
		walkthrough.WithTiming(cfg.GetTiming()),
		walkthrough.WithState(initial),
		walkthrough.WithLogger(logger.L().Named("controller")),
	)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, ctrl: ctrl, store: st}
	if save {
		s.rec = storage.NewRecorder(ctrl, nil)
	}
	return s, nil
}

// finish stores the recording, if any.
func (s *session) finish(mode string) error {
	if s.rec == nil {
		return nil
	}
	s.rec.Stop()
	if err := s.store.Init(); err != nil {
		return err
	}
	id, err := s.store.Save(mode, s.cfg.Theme, s.rec)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	logger.L().Info("session saved", zap.String("id", id))
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.L().Info("starting walkthrough", zap.String("theme", s.cfg.Theme), zap.Bool("autoplay", s.cfg.Autoplay))
	if err := tui.Run(s.ctrl, tui.OptionsFrom(s.cfg, logger.L().Named("tui"))); err != nil {
		return err
	}
	return s.finish("tui")
}

func runPlay(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctrl := s.ctrl

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := tui.NewNarrator(os.Stdout)
	n.Attach(ctrl)
	defer n.Detach()

	r := walkthrough.NewRunner(ctrl, logger.L().Named("runner"))
	if script == "" {
		r.ExitOnFinish = true
		r.Send(walkthrough.Play())
	} else {
		scenario, err := automation.LoadScenario(script)
		if err != nil {
			return err
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := automation.RunScenario(ctx, scenario, r.Send); err == nil {
				cancel()
			}
		}()
	}

	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println()
		err = nil
	}
	if err != nil {
		return err
	}
	return s.finish("play")
}

func listSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sessions, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tTIME\tDURATION\tCHANGES\tENDED AT")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.Mode, s.Timestamp.Format("2006-01-02 15:04"), s.Duration.Round(time.Second),
			s.Transitions, walkthrough.DefaultCatalog().Get(s.Final.ActiveStep).Name)
	}
	return w.Flush()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	head, err := parseHead(args, cfg.Heads)
	if err != nil {
		return err
	}
	t := viz.GetTheme(cfg.Theme)

	var svg string
	switch kind {
	case "matrix":
		svg = export.MatrixToSVG(cfg.Tokens, scores.Matrix(head-1, len(cfg.Tokens)), t.SectionColor(walkthrough.SectionAttention), 48)
	case "vectors":
		svg = export.CanvasToSVG(viz.VectorBars(8, 7, true), 12, t.SectionColor(walkthrough.SectionEmbeddings))
	default:
		return fmt.Errorf("unknown kind: %s (available: matrix, vectors)", kind)
	}
	if err := os.WriteFile(output, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

// parseHead reads an optional 1-based head number.
func parseHead(args []string, heads int) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	head, err := strconv.Atoi(args[0])
	if err != nil || head < 1 || head > heads {
		return 0, fmt.Errorf("head must be in 1..%d, got %q", heads, args[0])
	}
	return head, nil
}

func listSteps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	catalog, err := cfg.GetCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSECTION\tNAME")
	for _, s := range catalog {
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID+1, s.Section(), s.Name)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "gptwalk.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func printScores(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	head, err := parseHead(args, cfg.Heads)
	if err != nil {
		return err
	}

	tokens := cfg.Tokens
	grid := scores.Matrix(head-1, len(tokens))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\t%s\t\n", strings.Join(tokens, "\t"))
	for i, row := range grid {
		cells := make([]string, len(row))
		for j, s := range row {
			cells[j] = fmt.Sprintf("%.2f", s)
		}
		fmt.Fprintf(w, "%s\t%s\t\n", tokens[i], strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	graph := asciigraph.Plot(scores.Row(head-1, 0, len(tokens)),
		asciigraph.Height(8),
		asciigraph.Width(48),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("head %d: attention from %q", head, tokens[0])),
	)
	fmt.Println(graph)
	return nil
}
