// Package main provides the CLI entrypoint for tuilate.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuilate/internal/api"
	"github.com/verte-zerg/tuilate/internal/config"
	"github.com/verte-zerg/tuilate/internal/logging"
	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/notify"
	"github.com/verte-zerg/tuilate/internal/session"
	"github.com/verte-zerg/tuilate/internal/stats"
	"github.com/verte-zerg/tuilate/internal/statsui"
	"github.com/verte-zerg/tuilate/internal/status"
	"github.com/verte-zerg/tuilate/internal/store"
	"github.com/verte-zerg/tuilate/internal/tui"
	"github.com/verte-zerg/tuilate/internal/widgets"
)

const (
	defaultServerURL    = "http://localhost:5000"
	defaultLangPair     = "en-fr"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultRateLimitRPS = 0
)

var (
	flagServer       string
	flagLangPair     string
	flagTimeout      time.Duration
	flagPollInterval time.Duration
	flagGPUNotice    string
	flagNoHistory    bool
	flagLogLevel     string

	statusWatch bool

	historyPair  string
	historySince string
	historyLast  int
	historyPlain bool
)

type settings struct {
	cfg       model.Config
	logLevel  string
	logFormat string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuilate",
		Short:         "Terminal client for a translation service",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUICmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServer, "server", defaultServerURL, "translation service base URL")
	flags.StringVar(&flagLangPair, "lang-pair", defaultLangPair, "language pair key (e.g. en-fr)")
	flags.DurationVar(&flagTimeout, "timeout", api.DefaultTimeout, "request timeout")
	flags.DurationVar(&flagPollInterval, "poll-interval", status.DefaultInterval, "model status poll interval")
	flags.StringVar(&flagGPUNotice, "gpu-notice", string(status.GPUNoticeOnce), "GPU notice policy: once, always or never")
	flags.BoolVar(&flagNoHistory, "no-history", false, "do not record translations in the history database")
	flags.StringVar(&flagLogLevel, "log-level", defaultLogLevel, "log level: debug, info, warn or error")

	rootCmd.AddCommand(newTranslateCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func resolveSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return settings{}, err
	}
	fileCfg = envCfg.Overlay(fileCfg)

	applyStringConfig(cmd, "server", &flagServer, fileCfg.Server.URL)
	applyStringConfig(cmd, "lang-pair", &flagLangPair, fileCfg.UI.LangPair)
	applySecondsConfig(cmd, "timeout", &flagTimeout, fileCfg.Server.TimeoutSeconds)
	applySecondsConfig(cmd, "poll-interval", &flagPollInterval, fileCfg.Server.PollIntervalSeconds)
	applyStringConfig(cmd, "gpu-notice", &flagGPUNotice, fileCfg.UI.GPUNotice)
	applyStringConfig(cmd, "log-level", &flagLogLevel, fileCfg.Log.Level)
	if fileCfg.History.Enabled != nil && !cmd.Flags().Changed("no-history") {
		flagNoHistory = !*fileCfg.History.Enabled
	}

	s := settings{
		cfg: model.Config{
			ServerURL:         strings.TrimRight(flagServer, "/"),
			LangPair:          flagLangPair,
			Timeout:           flagTimeout,
			PollInterval:      flagPollInterval,
			RequestsPerSecond: defaultRateLimitRPS,
			CharLimit:         widgets.DefaultCharLimit,
			NoticeDuration:    notify.DefaultDuration,
			GPUNotice:         flagGPUNotice,
			History:           !flagNoHistory,
		},
		logLevel:  flagLogLevel,
		logFormat: defaultLogFormat,
	}
	if v := fileCfg.Server.RequestsPerSecond; v != nil {
		s.cfg.RequestsPerSecond = *v
	}
	if v := fileCfg.UI.CharLimit; v != nil {
		s.cfg.CharLimit = *v
	}
	if v := fileCfg.UI.NotificationSeconds; v != nil {
		s.cfg.NoticeDuration = time.Duration(*v) * time.Second
	}
	if v := fileCfg.Log.Format; v != nil {
		s.logFormat = *v
	}
	if err := validateConfig(s.cfg); err != nil {
		return settings{}, err
	}
	return s, nil
}

func validateConfig(cfg model.Config) error {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("--server must be an http(s) URL, got %q", cfg.ServerURL)
	}
	if _, _, ok := model.SplitPair(cfg.LangPair); !ok {
		return fmt.Errorf("--lang-pair must look like src-tgt, got %q", cfg.LangPair)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("--poll-interval must be > 0")
	}
	if _, err := status.ParseGPUNotice(cfg.GPUNotice); err != nil {
		return fmt.Errorf("--gpu-notice: %w", err)
	}
	if cfg.CharLimit <= 0 {
		return fmt.Errorf("char-limit must be > 0")
	}
	if cfg.RequestsPerSecond < 0 {
		return fmt.Errorf("requests-per-second must be >= 0")
	}
	if cfg.NoticeDuration < 0 {
		return fmt.Errorf("notification-seconds must be >= 0")
	}
	return nil
}

func newClient(cfg model.Config) *api.Client {
	opts := []api.Option{api.WithTimeout(cfg.Timeout)}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, api.WithRateLimit(cfg.RequestsPerSecond, 1))
	}
	return api.New(cfg.ServerURL, opts...)
}

func openHistory(cfg model.Config, logger *slog.Logger) (*store.Store, func()) {
	if !cfg.History {
		return nil, func() {}
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logger.Warn("history disabled: failed to open db", "error", err)
		return nil, func() {}
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", "error", cerr)
		}
	}
}

func detectSpeaker(logger *slog.Logger) *widgets.Speaker {
	synth, ok := widgets.DetectSynthesizer()
	if !ok {
		logger.Info("no speech synthesizer found; speak is disabled")
		return widgets.NewSpeaker(nil, logger)
	}
	return widgets.NewSpeaker(synth, logger)
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(config.DefaultLogPath())
	var logWriter io.Writer = io.Discard
	if err != nil {
		logErrf("logging disabled: %v\n", err)
	} else {
		logWriter = logFile
		defer func() {
			if cerr := logFile.Close(); cerr != nil {
				// Best-effort log close.
				_ = cerr
			}
		}()
	}
	logger := logging.New(logWriter, s.logLevel, s.logFormat)
	slog.SetDefault(logger)

	st, closeStore := openHistory(s.cfg, logger)
	defer closeStore()

	opts := tui.Options{
		Config:    s.cfg,
		Service:   newClient(s.cfg),
		Speaker:   detectSpeaker(logger),
		Clipboard: widgets.SystemClipboard,
		Logger:    logger,
		SessionID: uuid.NewString(),
	}
	if st != nil {
		opts.Recorder = st
	}
	logger.Info("starting", "server", s.cfg.ServerURL, "pair", s.cfg.LangPair, "session", opts.SessionID)

	m := tui.NewModel(opts)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if m.Stats().Count() > 0 {
		if err := stats.RenderStatistics(cmd.OutOrStdout(), m.Stats()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text once and print the result",
		RunE:  runTranslateCmd,
	}
}

func runTranslateCmd(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, s.logLevel, s.logFormat)

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	st, closeStore := openHistory(s.cfg, logger)
	defer closeStore()

	client := newClient(s.cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := &streamNotifier{w: cmd.ErrOrStderr(), color: isTerminal(os.Stderr)}
	sc := session.Config{
		Translator: client,
		Notifier:   notifier,
		Logger:     logger,
		SessionID:  uuid.NewString(),
		CharLimit:  s.cfg.CharLimit,

		NoticeDuration: s.cfg.NoticeDuration,
	}
	if st != nil {
		sc.Recorder = st
	}
	controller := session.NewController(sc)
	if catalog, err := client.Languages(ctx); err != nil {
		logger.Debug("failed to load languages", "error", err)
	} else {
		controller.SetCatalog(catalog)
	}

	res, err := controller.Submit(ctx, text, s.cfg.LangPair)
	if err != nil {
		// The notifier already printed the failure.
		cmd.SilenceErrors = true
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), res.Text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	poller := status.New(client, nil, logger)
	if snap, err := poller.Poll(ctx); err == nil {
		logErrf("%s\n", formatSnapshot(snap))
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List language pairs offered by the service",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	catalog, err := newClient(s.cfg).Languages(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load languages: %w", err)
	}
	keys := catalog.Keys()
	if len(keys) == 0 {
		return fmt.Errorf("the service offers no language pairs")
	}
	for _, key := range keys {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", key, catalog.Label(key)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show loaded models and GPU availability",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
	cmd.Flags().BoolVar(&statusWatch, "watch", false, "keep polling until interrupted")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, s.logLevel, s.logFormat)
	client := newClient(s.cfg)
	out := cmd.OutOrStdout()
	notifier := &streamNotifier{w: cmd.ErrOrStderr(), color: isTerminal(os.Stderr)}

	policy, _ := status.ParseGPUNotice(s.cfg.GPUNotice)
	poller := status.New(client, notifier, logger, status.WithGPUNotice(policy))

	if !statusWatch {
		snap, err := poller.Poll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch model status: %w", err)
		}
		_, err = fmt.Fprintln(out, formatSnapshot(snap))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = poller.Run(ctx, s.cfg.PollInterval, func(snap status.Snapshot) {
		line := snap.FetchedAt.Format("15:04:05") + "  " + formatSnapshot(snap)
		if _, werr := fmt.Fprintln(out, line); werr != nil {
			logger.Warn("failed to write status", "error", werr)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func formatSnapshot(snap status.Snapshot) string {
	gpu := "not available"
	if snap.GPUAvailable {
		gpu = "available"
	}
	line := fmt.Sprintf("GPU: %s  Loaded models: %d  Preloading: %d", gpu, len(snap.LoadedModels), len(snap.PreloadingModels))
	if snap.HasLoadedModels() {
		line += "  [" + strings.Join(snap.LoadedModels, ", ") + "]"
	}
	return line
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show translation history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyPair, "pair", "", "language pair filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N translations")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a plain report instead of the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsui.ParseFilters(historyPair, historySince, fmt.Sprint(historyLast))
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if !historyPlain && isTerminal(os.Stdout) {
		program := tea.NewProgram(statsui.NewModel(st, cfg, nil), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderPairTable(out, report.Pairs, nil); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderTrend(out, report.Records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuilate configuration
# Uncomment a value to enable it. Environment variables override the file,
# CLI flags override both.

[server]
# url = %q
# timeout-seconds = %d
# poll-interval-seconds = %d
# requests-per-second = 0     # 0 disables client-side rate limiting

[ui]
# lang-pair = %q
# gpu-notice = "once"         # once, always or never
# char-limit = %d
# notification-seconds = %d

[history]
# enabled = true

[log]
# level = %q                  # debug, info, warn or error
# format = %q                 # text or json
`,
		defaultServerURL,
		int(api.DefaultTimeout/time.Second),
		int(status.DefaultInterval/time.Second),
		defaultLangPair,
		widgets.DefaultCharLimit,
		int(notify.DefaultDuration/time.Second),
		defaultLogLevel,
		defaultLogFormat,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySecondsConfig(cmd *cobra.Command, name string, target *time.Duration, seconds *int) {
	if seconds == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*seconds) * time.Second
}

// streamNotifier prints notifications for the non-interactive commands.
type streamNotifier struct {
	w     io.Writer
	color bool
}

func (n *streamNotifier) Notify(message string, severity notify.Severity, _ time.Duration) {
	prefix := "[" + severity.String() + "]"
	if n.color {
		prefix = notify.SeverityStyle(severity).Render(prefix)
	}
	if _, err := fmt.Fprintln(n.w, prefix, message); err != nil {
		// Best-effort notification output.
		_ = err
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
