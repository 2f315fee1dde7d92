package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/linuxmatters/actlevel/internal/audio"
	"github.com/linuxmatters/actlevel/internal/cli"
	"github.com/linuxmatters/actlevel/internal/config"
	"github.com/linuxmatters/actlevel/internal/logging"
	"github.com/linuxmatters/actlevel/internal/processor"
	"github.com/linuxmatters/actlevel/internal/soxr"
	"github.com/linuxmatters/actlevel/internal/ui"
)

var (
	version = "0.0.1"
)

// versionFlag prints the styled version banner and exits.
type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong) error {
	cli.PrintVersion(app.Stdout, version)
	app.Exit(0)
	return nil
}

// Globals are the flags shared by every command.
type Globals struct {
	Version versionFlag     `short:"v" help:"Show version information"`
	Config  kong.ConfigFlag `short:"c" placeholder:"file" help:"Path to YAML config file (optional)"`

	BlockSize int   `default:"256" placeholder:"n" help:"Samples per block"`
	Bits      int   `default:"16" placeholder:"n" help:"Significant bits per sample"`
	Rate      int   `default:"16000" placeholder:"hz" help:"Sample rate of headerless .pcm input"`
	Start     int64 `default:"1" placeholder:"n" help:"First block to measure, counting from 1"`
	Blocks    int64 `default:"0" placeholder:"n" help:"Number of blocks to measure, 0 for all"`

	Log   string `type:"path" placeholder:"file" help:"Append one-line summaries to this file"`
	Quiet bool   `short:"q" help:"Print only the one-line summaries"`
	Plain bool   `help:"Plain text output even on a terminal"`
	Jobs  int    `short:"j" default:"1" placeholder:"n" help:"Files processed in parallel"`
	Debug bool   `help:"Write a debug log to actlevel-debug.log"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Measure   measureCmd   `cmd:"" help:"Measure the active speech level of files"`
	Normalize normalizeCmd `cmd:"" help:"Equalize files to a target active speech level"`
	Resample  resampleCmd  `cmd:"" help:"Change the sample rate of a mono 16-bit WAV file"`
}

type measureCmd struct {
	Files  []string `arg:"" name:"files" type:"path" help:"Audio files to measure (.wav or raw .pcm)"`
	Level  float64  `default:"-26" placeholder:"dBov" help:"Target level for --gain"`
	Gain   bool     `help:"Report the gain needed to reach --level"`
	RMS    bool     `name:"rms" help:"Use the long-term RMS level instead of the active level"`
	Long   bool     `help:"Print the full statistics block for each file"`
	Report bool     `help:"Write a detailed .p56.log report next to each file"`
}

type normalizeCmd struct {
	Files  []string `arg:"" name:"files" type:"path" help:"Audio files to equalize (.wav or raw .pcm)"`
	Output string   `short:"o" type:"path" placeholder:"file" help:"Output file, for a single input only"`
	Suffix string   `default:"-normalized" help:"Suffix added to output file names"`
	Level  float64  `default:"-26" placeholder:"dBov" help:"Target level"`
	RMS    bool     `name:"rms" help:"Equalize the long-term RMS level instead of the active level"`
	Long   bool     `help:"Print the full statistics block for each file"`
	Report bool     `help:"Write a detailed .p56.log report next to each output"`
}

type resampleCmd struct {
	Input   string `arg:"" type:"path" help:"Input WAV file"`
	Output  string `arg:"" type:"path" help:"Output WAV file"`
	To      int    `required:"" placeholder:"hz" help:"Output sample rate"`
	Quality string `enum:"quick,low,medium,high,very-high" default:"high" help:"Resampler quality (${enum})"`
}

var resampleQuality = map[string]int{
	"quick":     soxr.Quick,
	"low":       soxr.Low,
	"medium":    soxr.Medium,
	"high":      soxr.High,
	"very-high": soxr.VeryHigh,
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("actlevel"),
		kong.Description("ITU-T P.56 active speech level meter and equalizer"),
		kong.UsageOnError(),
		kong.Configuration(config.YAML, "~/.config/actlevel/config.yaml"),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := newApp(ctx, &cliArgs.Globals)
	if err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}

	err = kctx.Run(app)
	app.Close()
	if err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

// App carries the state shared by the commands of one invocation.
type App struct {
	*Globals

	ctx     context.Context
	stdout  io.Writer
	log     func(format string, args ...any)
	debug   *os.File
	logFile *os.File
	summary *logging.SummaryWriter
	tui     bool
}

func newApp(ctx context.Context, g *Globals) (*App, error) {
	a := &App{
		Globals: g,
		ctx:     ctx,
		stdout:  os.Stdout,
		log:     func(string, ...any) {},
	}

	if g.Debug {
		debugLog, err := os.Create("actlevel-debug.log")
		if err != nil {
			return nil, fmt.Errorf("failed to create debug log: %w", err)
		}
		a.debug = debugLog
		a.log = func(format string, args ...any) {
			fmt.Fprintf(debugLog, format+"\n", args...)
		}
		ui.SetDebugLog(debugLog)
	}

	if g.Log != "" {
		f, err := os.OpenFile(g.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			a.Close()
			return nil, audio.NewError(audio.KindOutputCreate, g.Log, err)
		}
		a.logFile = f
		a.summary = logging.NewSummaryWriter(f)
	}

	fd := os.Stdout.Fd()
	a.tui = !g.Quiet && !g.Plain && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	if g.Jobs < 1 {
		g.Jobs = 1
	}
	a.log("[MAIN] actlevel %s, tui=%v, jobs=%d", version, a.tui, g.Jobs)
	return a, nil
}

// Close releases the log files.
func (a *App) Close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
	if a.debug != nil {
		ui.SetDebugLog(nil)
		a.debug.Close()
	}
}

// processorConfig builds the processing configuration from the global flags.
func (a *App) processorConfig(level float64, rms, gain bool) *processor.Config {
	cfg := processor.DefaultConfig()
	cfg.BlockSize = a.BlockSize
	cfg.BitDepth = a.Bits
	cfg.SampleRate = a.Rate
	cfg.StartBlock = a.Start
	cfg.BlockCount = a.Blocks
	cfg.TargetLevel = level
	cfg.UseRMS = rms
	cfg.ReportGain = gain
	return cfg
}

func (c *measureCmd) Run(a *App) error {
	cfg := a.processorConfig(c.Level, c.RMS, c.Gain)
	if err := cfg.Validate(); err != nil {
		return err
	}

	work := func(ctx context.Context, i int, progress processor.ProgressFunc) (*outcome, error) {
		r, err := processor.Measure(ctx, c.Files[i], cfg, progress)
		if err != nil {
			return nil, err
		}
		return &outcome{Input: r}, nil
	}
	return a.runBatch(batch{
		mode:   ui.ModeMeasure,
		target: c.Level,
		inputs: c.Files,
		work:   work,
		long:   c.Long,
		report: c.Report,
	})
}

func (c *normalizeCmd) Run(a *App) error {
	cfg := a.processorConfig(c.Level, c.RMS, true)
	if err := cfg.Validate(); err != nil {
		return err
	}
	outputs, err := outputPaths(c.Files, c.Output, c.Suffix)
	if err != nil {
		return err
	}

	work := func(ctx context.Context, i int, progress processor.ProgressFunc) (*outcome, error) {
		res, err := processor.Normalize(ctx, c.Files[i], outputs[i], cfg, progress)
		if err != nil {
			return nil, err
		}
		return &outcome{
			Input:      res.Input,
			Output:     res.Output,
			Clipped:    res.Clipped,
			OutputPath: outputs[i],
		}, nil
	}
	return a.runBatch(batch{
		mode:   ui.ModeNormalize,
		target: c.Level,
		inputs: c.Files,
		work:   work,
		long:   c.Long,
		report: c.Report,
	})
}

func (c *resampleCmd) Run(a *App) error {
	if sameFile(c.Input, c.Output) {
		return fmt.Errorf("output %s would overwrite the input", c.Output)
	}
	a.log("[MAIN] Resampling %s -> %s at %d Hz, %s quality", c.Input, c.Output, c.To, c.Quality)
	conv := soxr.Converter{Quality: resampleQuality[c.Quality]}
	info, err := processor.ChangeSampleRate(a.ctx, conv, c.Input, c.Output, c.To)
	if err != nil {
		return err
	}
	if !a.Quiet {
		fmt.Fprintf(a.stdout, "%s -> %s: %d samples at %d Hz (%.1fs)\n",
			filepath.Base(c.Input), filepath.Base(c.Output), info.Samples, info.SampleRate, info.Duration())
	}
	return nil
}

// outputPaths names the normalised file for each input: the explicit
// output for a single input, otherwise the input name with suffix added
// before the extension.
func outputPaths(inputs []string, output, suffix string) ([]string, error) {
	if output != "" {
		if len(inputs) != 1 {
			return nil, fmt.Errorf("--output needs exactly one input file, got %d", len(inputs))
		}
		if sameFile(inputs[0], output) {
			return nil, fmt.Errorf("output %s would overwrite the input", output)
		}
		return []string{output}, nil
	}
	if suffix == "" {
		return nil, fmt.Errorf("an empty --suffix would overwrite the inputs")
	}

	outputs := make([]string, len(inputs))
	for i, in := range inputs {
		ext := filepath.Ext(in)
		outputs[i] = strings.TrimSuffix(in, ext) + suffix + ext
	}
	return outputs, nil
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
