package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/actlevel/internal/cli"
	"github.com/linuxmatters/actlevel/internal/logging"
	"github.com/linuxmatters/actlevel/internal/processor"
	"github.com/linuxmatters/actlevel/internal/ui"
)

// outcome is the result of processing one file.
type outcome struct {
	Input      *processor.Report
	Output     *processor.Report // nil when only measuring
	Clipped    int
	OutputPath string
}

// workFunc processes the input at index i.
type workFunc func(ctx context.Context, i int, progress processor.ProgressFunc) (*outcome, error)

// batch describes one command run over a list of files.
type batch struct {
	mode   ui.Mode
	target float64
	inputs []string
	work   workFunc
	long   bool
	report bool
}

// runBatch processes every input as an independent job, at most a.Jobs at a
// time. A failed file does not stop the others. The error of the first
// failed input is returned.
func (a *App) runBatch(b batch) error {
	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	var p *tea.Program
	if a.tui {
		p = tea.NewProgram(ui.NewModel(b.mode, b.target, b.inputs), tea.WithAltScreen())
	}
	send := func(msg tea.Msg) {
		if p != nil {
			p.Send(msg)
		}
	}

	errs := make([]error, len(b.inputs))
	var outMu sync.Mutex

	runJobs := func() {
		var g errgroup.Group
		g.SetLimit(a.Jobs)

		for i, inputPath := range b.inputs {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					return nil
				}
				fileStart := time.Now()

				a.log("[MAIN] Sending FileStartMsg for file %d: %s", i, inputPath)
				send(ui.FileStartMsg{FileIndex: i, FileName: inputPath})

				ph := &progressHandler{index: i, send: send, log: a.log}
				o, err := b.work(ctx, i, ph.callback)
				if err != nil {
					a.log("[MAIN] %s failed: %v", inputPath, err)
					errs[i] = err
					send(ui.FileCompleteMsg{FileIndex: i, Error: err})
					if p == nil {
						cli.PrintWarning(os.Stderr, err)
					}
					return nil
				}

				a.record(b, o, ph, fileStart, &outMu)

				a.log("[MAIN] Sending FileCompleteMsg for file %d", i)
				send(ui.FileCompleteMsg{
					FileIndex:  i,
					Input:      o.Input,
					Output:     o.Output,
					Clipped:    o.Clipped,
					OutputPath: o.OutputPath,
				})
				return nil
			})
		}
		_ = g.Wait()

		a.log("[MAIN] Sending AllCompleteMsg")
		send(ui.AllCompleteMsg{})
	}

	if p == nil {
		runJobs()
	} else {
		done := make(chan struct{})
		go func() {
			defer close(done)
			runJobs()
		}()

		_, err := p.Run()
		// Quitting the UI early cancels the remaining work.
		cancel()
		<-done
		if err != nil {
			return fmt.Errorf("UI error: %w", err)
		}
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// record writes the summary line, console output and optional report for a
// finished file.
func (a *App) record(b batch, o *outcome, ph *progressHandler, start time.Time, outMu *sync.Mutex) {
	logged := o.Input
	if o.Output != nil {
		logged = o.Output
	}
	if a.summary != nil {
		if err := a.summary.Write(logged); err != nil {
			a.log("[MAIN] Failed to write summary: %v", err)
		}
	}

	if !a.tui {
		outMu.Lock()
		switch {
		case a.Quiet:
			fmt.Fprint(a.stdout, logging.FormatSummary(logged))
		case b.long:
			logging.WriteLongSummary(a.stdout, o.Input)
			if o.Output != nil {
				fmt.Fprintln(a.stdout)
				logging.WriteLongSummary(a.stdout, o.Output)
				fmt.Fprintf(a.stdout, "\n  Number of clippings: .......... %7d []", o.Clipped)
			}
			fmt.Fprintln(a.stdout)
		case o.Output != nil:
			logging.DisplayNormalizeResult(a.stdout, &processor.NormalizeResult{Input: o.Input, Output: o.Output, Clipped: o.Clipped})
		default:
			logging.DisplayMeasurement(a.stdout, o.Input)
		}
		outMu.Unlock()
	}

	if b.report {
		path, err := logging.GenerateReport(logging.ReportData{
			InputPath:  o.Input.Path,
			OutputPath: o.OutputPath,
			StartTime:  start,
			EndTime:    time.Now(),
			Pass1Time:  ph.passTime[processor.PassMeasure],
			Pass2Time:  ph.passTime[processor.PassEqualize],
			Pass3Time:  ph.passTime[processor.PassVerify],
			Input:      o.Input,
			Output:     o.Output,
			Clipped:    o.Clipped,
		})
		if err != nil {
			a.log("[MAIN] Failed to generate log file: %v", err)
			if !a.tui {
				cli.PrintWarning(os.Stderr, err)
			}
			return
		}
		a.log("[MAIN] Wrote report %s", path)
	}
}

// progressHandler forwards progress updates from the processor to the UI
// and times each pass.
type progressHandler struct {
	index     int
	send      func(tea.Msg)
	log       func(string, ...any)
	passStart [4]time.Time
	passTime  [4]time.Duration
}

func (ph *progressHandler) callback(pass int, passName string, progress float64, level float64) {
	ph.log("[MAIN] Sending ProgressMsg: file %d, Pass %d (%s), Progress %.1f%%, Level %.1f dB", ph.index, pass, passName, progress*100, level)

	if pass > 0 && pass < len(ph.passStart) {
		if progress == 0.0 {
			ph.passStart[pass] = time.Now()
		} else if progress == 1.0 {
			ph.passTime[pass] = time.Since(ph.passStart[pass])
		}
	}

	ph.send(ui.ProgressMsg{
		FileIndex: ph.index,
		Pass:      pass,
		PassName:  passName,
		Progress:  progress,
		Level:     level,
	})
}
