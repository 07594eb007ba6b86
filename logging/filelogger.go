package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-runtests/types"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	SummaryFilename    = "summary.log"
	StepLogExt         = ".log"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileLogger writes a copy of every step's output into a per-run directory
type FileLogger struct {
	baseDir string // Base directory for logs
	logDir  string // Directory of this run
	runID   string
	mu      sync.Mutex
	files   []string // Step log files in the order they were opened
}

// NewFileLogger creates <baseDir>/testrun-<runID>
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &FileLogger{
		baseDir: baseDir,
		logDir:  logDir,
		runID:   runID,
	}, nil
}

// GetRunID returns the run ID the logger was created with
func (l *FileLogger) GetRunID() string {
	return l.runID
}

// GetDirectoryForRunID returns the directory of this run's logs
func (l *FileLogger) GetDirectoryForRunID() string {
	return l.logDir
}

// Files returns the step log files written so far
func (l *FileLogger) Files() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.files...)
}

// Open creates the log file for a step. Output written to it has ANSI escape
// sequences removed.
func (l *FileLogger) Open(step types.Step) (io.WriteCloser, string, error) {
	path := filepath.Join(l.logDir, StepLogFilename(step))

	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create step log %s: %w", path, err)
	}
	if _, err := fmt.Fprintf(f, "# step %d: %s\n# dir: %s\n# cmd: %s\n\n", step.Index, step.Name, step.Dir, step.String()); err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("failed to write step log header: %w", err)
	}

	l.mu.Lock()
	l.files = append(l.files, path)
	l.mu.Unlock()

	return NewANSIStripWriter(f), path, nil
}

// WriteSummary writes the rendered summary of a run to summary.log
func (l *FileLogger) WriteSummary(summary string) (string, error) {
	path := filepath.Join(l.logDir, SummaryFilename)
	if err := os.WriteFile(path, []byte(stripansi.Strip(summary)), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

// StepLogFilename returns e.g. "03-examples-gyro.log" for step 3 named "../examples/gyro"
func StepLogFilename(step types.Step) string {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(step.Name), "-"), "-")
	if slug == "" {
		slug = step.Kind.String()
	}
	return fmt.Sprintf("%02d-%s%s", step.Index, slug, StepLogExt)
}

// ANSIStripWriter removes ANSI escape sequences line by line before writing
// to the underlying writer. A partial last line is written on Close.
type ANSIStripWriter struct {
	w   io.Writer
	buf []byte
	mu  sync.Mutex
}

// NewANSIStripWriter wraps w. If w is an io.Closer it is closed by Close.
func NewANSIStripWriter(w io.Writer) *ANSIStripWriter {
	return &ANSIStripWriter{w: w}
}

func (s *ANSIStripWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, p...)
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			break
		}
		if _, err := io.WriteString(s.w, stripansi.Strip(string(s.buf[:i+1]))); err != nil {
			return 0, err
		}
		s.buf = s.buf[i+1:]
	}
	return len(p), nil
}

// Close flushes any buffered partial line
func (s *ANSIStripWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if len(s.buf) > 0 {
		_, err = io.WriteString(s.w, stripansi.Strip(string(s.buf)))
		s.buf = nil
	}
	if c, ok := s.w.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
