package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// StdIO prints to a writer and reads lines from a file, typically the
// process stdin/stdout. Masked reads on a terminal do not echo.
type StdIO struct {
	in     *os.File
	reader *bufio.Reader
	out    io.Writer
}

func NewStdIO(in *os.File, out io.Writer) *StdIO {
	return &StdIO{in: in, reader: bufio.NewReader(in), out: out}
}

func (s *StdIO) Print(str string) {
	fmt.Fprintln(s.out, str)
}

func (s *StdIO) ReadLine(prompt string, masked bool) (string, error) {
	fmt.Fprint(s.out, prompt)
	if masked && term.IsTerminal(int(s.in.Fd())) {
		b, err := term.ReadPassword(int(s.in.Fd()))
		fmt.Fprintln(s.out)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(b), nil
	}

	line, err := s.reader.ReadString('\n')
	if err != nil {
		// Handle EOF - io.EOF is returned when stdin is closed
		if errors.Is(err, io.EOF) {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// MemoryIO collects output and serves queued input lines. It is safe for
// concurrent use.
type MemoryIO struct {
	mu      sync.Mutex
	out     strings.Builder
	input   []string
	Prompts []string
}

func NewMemoryIO(input ...string) *MemoryIO {
	return &MemoryIO{input: input}
}

func (m *MemoryIO) Print(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out.WriteString(s)
	m.out.WriteByte('\n')
}

func (m *MemoryIO) ReadLine(prompt string, masked bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.input) == 0 {
		return "", io.EOF
	}
	line := m.input[0]
	m.input = m.input[1:]
	return line, nil
}

// Output returns everything printed so far.
func (m *MemoryIO) Output() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out.String()
}
