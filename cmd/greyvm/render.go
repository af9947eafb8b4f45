package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"greyvm/internal/ir"
	"greyvm/internal/token"
	"greyvm/internal/vm"
)

// newLogger writes human-readable logs to a terminal and JSON otherwise.
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	var w io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

type renderer struct {
	mu    sync.Mutex
	w     io.Writer
	bad   *color.Color
	faint *color.Color
	loc   *color.Color

	// source files read for snippets, by path
	sources map[string][]string
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{
		w:       w,
		bad:     color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
		loc:     color.New(color.FgCyan),
		sources: make(map[string][]string),
	}
}

// Error prints err with the offending source line when its location is
// known.
func (r *renderer) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ce *ir.CompileError
	var re *vm.RuntimeError
	switch {
	case errors.As(err, &ce):
		fmt.Fprintf(r.w, "%s %s\n", r.bad.Sprint("compile error:"), ce.Message)
		r.snippet(ce.Target, ce.Range)
	case errors.As(err, &re):
		fmt.Fprintf(r.w, "%s %s\n", r.bad.Sprint("runtime error:"), re.Message)
		if re.Instruction != nil {
			src := re.Instruction.Source
			r.snippet(src.Target, token.Range{Start: src.Start, End: src.End})
		}
		fmt.Fprint(r.w, r.faint.Sprint(re.Trace()))
	default:
		fmt.Fprintf(r.w, "%s %v\n", r.bad.Sprint("error:"), err)
	}
}

func (r *renderer) snippet(path string, rng token.Range) {
	fmt.Fprintf(r.w, "  %s %s:%s\n", r.faint.Sprint("-->"), r.loc.Sprint(path), rng.Start)

	lines := r.lines(path)
	n := rng.Start.Line
	if n < 1 || n > len(lines) {
		return
	}
	line := lines[n-1]
	gutter := fmt.Sprintf("%4d | ", n)
	fmt.Fprintf(r.w, "%s%s\n", r.faint.Sprint(gutter), line)

	start := max(rng.Start.Column, 1)
	end := start + 1
	if rng.End.Line == n && rng.End.Column > start {
		end = rng.End.Column
	}
	end = min(end, len(line)+2)
	pad := strings.Repeat(" ", len(gutter)+start-1)
	fmt.Fprintf(r.w, "%s%s\n", pad, r.bad.Sprint(strings.Repeat("^", max(end-start, 1))))
}

func (r *renderer) lines(path string) []string {
	if ls, ok := r.sources[path]; ok {
		return ls
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.sources[path] = nil
		return nil
	}
	ls := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	r.sources[path] = ls
	return ls
}

// Stats prints the counters of one finished VM.
func (r *renderer) Stats(name string, s vm.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rate := 0.0
	if s.Elapsed > 0 {
		rate = float64(s.Instructions) / s.Elapsed.Seconds()
	}
	fmt.Fprintf(r.w, "%s %s instructions, %s yields, depth %d, %s (%s)\n",
		r.loc.Sprint(name+":"),
		humanize.Comma(int64(s.Instructions)),
		humanize.Comma(int64(s.Yields)),
		s.MaxDepth,
		s.Elapsed.Round(time.Microsecond),
		humanize.SIWithDigits(rate, 1, "op/s"),
	)
}

// Break prints where a debugger paused.
func (r *renderer) Break(loc ir.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s %s in %s\n", r.loc.Sprint("break"), loc, loc.Name)
	if ls := r.lines(loc.Target); loc.Start.Line >= 1 && loc.Start.Line <= len(ls) {
		fmt.Fprintf(r.w, "%s%s\n", r.faint.Sprintf("%4d | ", loc.Start.Line), ls[loc.Start.Line-1])
	}
}
