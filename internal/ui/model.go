// Package ui provides the Bubbletea terminal user interface for actlevel
package ui

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/actlevel/internal/p56"
	"github.com/linuxmatters/actlevel/internal/processor"
)

var debugLog io.Writer

// SetDebugLog directs UI debug messages to w. A nil writer disables them.
func SetDebugLog(w io.Writer) {
	debugLog = w
}

func log(format string, args ...any) {
	if debugLog != nil {
		fmt.Fprintf(debugLog, format+"\n", args...)
	}
}

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusMeasuring
	StatusEqualizing
	StatusVerifying
	StatusComplete
	StatusError
)

// Mode selects what the UI reports for each file.
type Mode int

const (
	ModeMeasure Mode = iota
	ModeNormalize
)

// Passes returns the number of processing passes per file.
func (m Mode) Passes() int {
	if m == ModeNormalize {
		return 3
	}
	return 1
}

// FileProgress tracks progress for a single audio file
type FileProgress struct {
	InputPath  string
	OutputPath string
	Status     FileStatus

	// Phase tracking
	CurrentPass int
	PassName    string

	// Progress tracking (percentage-based)
	Progress    float64 // 0.0 to 1.0
	StartTime   time.Time
	ElapsedTime time.Duration

	// Running active speech level, p56.SilentLevel until speech is seen
	CurrentLevel float64

	// Completion results
	Input   *processor.Report
	Output  *processor.Report
	Clipped int

	// Error tracking
	Error error
}

// Model is the Bubbletea model for the processing UI
type Model struct {
	Mode   Mode
	Target float64 // dBov, normalise only

	// File queue
	Files          []FileProgress
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	// Global state
	StartTime time.Time
	Done      bool

	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(mode Mode, target float64, inputFiles []string) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath:    path,
			Status:       StatusQueued,
			CurrentLevel: p56.SilentLevel,
		}
	}

	return Model{
		Mode:       mode,
		Target:     target,
		Files:      files,
		TotalFiles: len(inputFiles),
		StartTime:  time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		log("[DEBUG] Window size: %dx%d", m.Width, m.Height)

	case tickMsg:
		if !m.Done {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}

	case ProgressMsg:
		log("[DEBUG] ProgressMsg received: file %d, Pass %d, %.1f%%", msg.FileIndex, msg.Pass, msg.Progress*100)
		if m.valid(msg.FileIndex) {
			m.Files[msg.FileIndex] = updateFileProgress(m.Files[msg.FileIndex], msg)
		}

	case FileStartMsg:
		log("[DEBUG] FileStartMsg received: index=%d, file=%s", msg.FileIndex, msg.FileName)
		if m.valid(msg.FileIndex) {
			m.Files[msg.FileIndex].Status = StatusMeasuring
			m.Files[msg.FileIndex].StartTime = time.Now()
		}

	case FileCompleteMsg:
		log("[DEBUG] FileCompleteMsg received: index=%d", msg.FileIndex)
		if m.valid(msg.FileIndex) {
			fp := &m.Files[msg.FileIndex]
			fp.Status = StatusComplete
			fp.Input = msg.Input
			fp.Output = msg.Output
			fp.Clipped = msg.Clipped
			fp.OutputPath = msg.OutputPath
			fp.Error = msg.Error
			fp.Progress = 1

			if msg.Error != nil {
				fp.Status = StatusError
				m.FailedFiles++
			} else {
				m.CompletedFiles++
			}
		}

	case AllCompleteMsg:
		log("[DEBUG] AllCompleteMsg received")
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) valid(i int) bool {
	return i >= 0 && i < len(m.Files)
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\n", len(m.Files))
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// updateFileProgress updates a FileProgress based on a ProgressMsg
func updateFileProgress(fp FileProgress, msg ProgressMsg) FileProgress {
	// Reset the start time when transitioning to a new pass
	if msg.Pass != fp.CurrentPass {
		fp.StartTime = time.Now()
		log("[UI] Pass transition: %d -> %d", fp.CurrentPass, msg.Pass)
	}

	fp.Progress = msg.Progress
	fp.CurrentPass = msg.Pass
	fp.PassName = msg.PassName
	fp.ElapsedTime = time.Since(fp.StartTime)

	if msg.Level != 0 && msg.Level > p56.SilentLevel {
		fp.CurrentLevel = msg.Level
	}

	switch msg.Pass {
	case processor.PassMeasure:
		fp.Status = StatusMeasuring
	case processor.PassEqualize:
		fp.Status = StatusEqualizing
	case processor.PassVerify:
		fp.Status = StatusVerifying
	}

	return fp
}
