package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sdejongh/folderextractor/internal/platform"
	"github.com/sdejongh/folderextractor/pkg/config"
	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/flatten"
	"github.com/sdejongh/folderextractor/pkg/logging"
	"github.com/sdejongh/folderextractor/pkg/models"
	"github.com/sdejongh/folderextractor/pkg/output"
	"github.com/sdejongh/folderextractor/pkg/storage"
)

// RunFlags holds run command flags
type RunFlags struct {
	Source     string
	Output     string
	NoProgress bool
	BufferSize int
	// Logging flags
	LogFile      string
	LogFormat    string
	LogLevel     string
	LogFormatSet bool
	LogLevelSet  bool
}

var runFlags RunFlags

// ExitError carries the exit status of a run that did not succeed.
// Its message has already been shown to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [SOURCE]",
		Short: "Flatten a directory tree into the music folder on the desktop",
		Long: `Copy every file found below SOURCE into <Desktop>/music.
Files are visited depth-first in name order; when two files share a base name
only the first one is copied and the others are counted as duplicates.
Files already in the music folder with the same name are overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFlatten,
	}

	cmd.Flags().StringVarP(&runFlags.Source, "source", "s", "", "source directory path")
	cmd.Flags().StringVarP(&runFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().BoolVar(&runFlags.NoProgress, "no-progress", false, "disable the progress bar")
	cmd.Flags().IntVar(&runFlags.BufferSize, "buffer-size", 0, "copy buffer size in bytes")

	// Logging flags
	cmd.Flags().StringVar(&runFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&runFlags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&runFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func runFlatten(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	source := runFlags.Source
	if source == "" && len(args) > 0 {
		source = args[0]
	}

	runFlags.LogFormatSet = cmd.Flags().Changed("log-format")
	runFlags.LogLevelSet = cmd.Flags().Changed("log-level")
	if err := validateRunFlags(); err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create logger
	logger, err := createLogger(cfg, errOut)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	req := models.NewRunRequest(source)
	if err := req.Validate(); err != nil {
		var selErr *models.SelectionError
		if errors.As(err, &selErr) {
			// Nothing chosen is not a failure
			if !cfg.Output.Quiet {
				fmt.Fprintln(out, "No source directory selected, nothing was copied.")
			}
			logger.Info(ctx, "Run skipped", logging.Fields{"reason": selErr.Reason})
			return nil
		}
		return err
	}

	formatter, err := createFormatter(cfg, out)
	if err != nil {
		return err
	}
	presenterOut := out
	if cfg.Output.Quiet {
		presenterOut = io.Discard
	}

	if err := platform.ValidateSource(source); err != nil {
		fsErr := models.NewFilesystemError(models.KindRead, "open source", source, err)
		return finish(output.NewPresenter(formatter, presenterOut), nil, fsErr, cfg, errOut)
	}

	desktop, err := platform.DesktopDir()
	if err != nil {
		return err
	}
	parent, err := storage.NewLocalAt(desktop)
	if err != nil {
		return fmt.Errorf("failed to create destination backend: %w", err)
	}
	parent.SetBufferSize(cfg.Performance.BufferSize)

	copier := flatten.NewCopier(parent, flatten.DestinationFolder, logger)

	// Ctrl-C stops the run between two copies
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan event.Event, 16)
	engine := flatten.NewEngine(copier, flatten.OpenLocal, logger, events)
	presenter := output.NewPresenter(formatter, presenterOut)

	done := make(chan error, 1)
	go func() {
		done <- presenter.Consume(events)
	}()

	result, runErr := engine.Run(ctx, req)
	close(events)
	if err := <-done; err != nil {
		logger.Warn(ctx, "Progress output failed", logging.Fields{"error": err.Error()})
	}

	return finish(presenter, result, runErr, cfg, errOut)
}

// finish reports the outcome and turns it into an exit status
func finish(presenter *output.Presenter, result *models.RunResult, runErr error, cfg *config.Config, errOut io.Writer) error {
	if err := presenter.Finish(result, runErr); err != nil {
		return err
	}

	if runErr != nil && cfg.Output.Quiet {
		fmt.Fprintf(errOut, "Error: %v\n", runErr)
	}

	switch {
	case result != nil && result.Status != models.StatusSuccess:
		return &ExitError{Code: result.Status.ExitCode(), Err: runErr}
	case runErr != nil:
		return &ExitError{Code: models.StatusFailed.ExitCode(), Err: runErr}
	}
	return nil
}

// createFormatter picks the formatter for the configured output
func createFormatter(cfg *config.Config, out io.Writer) (output.Formatter, error) {
	name := cfg.Output.Format
	if name != "json" && cfg.Output.Progress && !cfg.Output.Verbose {
		if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			name = "progress"
		}
	}

	formatter, err := output.New(name)
	if err != nil {
		return nil, err
	}
	if human, ok := formatter.(*output.HumanFormatter); ok {
		human.SetVerbose(cfg.Output.Verbose)
	}
	return formatter, nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg *config.Config, errOut io.Writer) (logging.Logger, error) {
	// Parse log format
	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	if !cfg.Logging.Enabled {
		if globalFlags.Verbose {
			return logging.NewWriterLogger(errOut, format, logging.DebugLevel), nil
		}
		return logging.NewNullLogger(), nil
	}

	path := cfg.Logging.File
	if path == "" {
		defaultPath, err := platform.DefaultLogPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	// Create file logger
	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       path,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}
