package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"greyvm/internal/ast"
	"greyvm/internal/config"
	"greyvm/internal/ir"
	"greyvm/internal/parser"
	"greyvm/internal/runtime"
	"greyvm/internal/scheduler"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	var err error
	switch cmd {
	case "run":
		err = cmdRun(os.Args[2:])
	case "check":
		err = cmdCheck(os.Args[2:])
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	case "ast":
		err = cmdAST(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	case "version", "-v", "--version":
		fmt.Println("greyvm", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`greyvm: script runtime

Usage:
  greyvm run [flags] <file> [file...]
  greyvm check [flags] <file>
  greyvm disasm [flags] <file>
  greyvm ast <file>

Commands:
  version  Print the greyvm version
  run      Compile and run scripts; several files run interleaved
  check    Compile only and report errors
  disasm   Print the bytecode of a script
  ast      Print the syntax tree of a script

Flags:
  -config     Path to greyvm.toml (default: searched upward from the script)
  -debug      Pause on every statement (run only)
  -stats      Print execution statistics (run only)
  -log-level  trace|debug|info|warn|error (default: warn)`)
}

// errReported marks failures already shown through the error handler.
var errReported = errors.New("reported")

type common struct {
	configPath string
	logLevel   string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to greyvm.toml")
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level")
}

// session is what every subcommand needs: the loaded config and an Env
// bound to the OS filesystem.
type session struct {
	cfg    *config.Config
	env    *runtime.Env
	render *renderer
	log    zerolog.Logger
	failed bool
}

func (c *common) open(input string) (*session, error) {
	log, err := newLogger(c.logLevel)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if c.configPath != "" {
		cfg, err = config.Load(c.configPath)
	} else {
		cfg, err = config.FindAndLoad(filepath.Dir(input))
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Path != "" {
		log.Debug().Str("path", cfg.Path).Msg("config loaded")
	}

	s := &session{cfg: cfg, render: newRenderer(os.Stderr), log: log}
	s.env = runtime.NewEnv(
		runtime.WithLogger(log),
		runtime.WithFilesystem(osfs.New("/"), cfg.Modules.LibDirs...),
		runtime.WithEnvVars(cfg.Env),
		runtime.WithErrorHandler(func(err error) {
			s.failed = true
			s.render.Error(err)
		}),
	)
	if abs, err := filepath.Abs(input); err == nil {
		s.env.SetExecRoot(filepath.Dir(abs))
	}
	return s, nil
}

func (s *session) load(input string) (*ir.Program, error) {
	path, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}
	prog, err := s.env.Load(path, s.cfg.GeneratorOptions(path))
	if err != nil {
		s.env.ReportError(err)
		return nil, errReported
	}
	return prog, nil
}

// -------------- RUN --------------

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var c common
	var debug, stats bool
	c.register(fs)
	fs.BoolVar(&debug, "debug", false, "pause before every statement")
	fs.BoolVar(&stats, "stats", false, "print execution statistics")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("run: missing input file")
	}

	s, err := c.open(fs.Arg(0))
	if err != nil {
		return err
	}
	if debug {
		s.cfg.Generator.DebugMode = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loop := scheduler.New(
		scheduler.WithLogger(s.log.With().Str("component", "scheduler").Logger()),
		scheduler.WithOnDone(func(t *scheduler.Task) {
			if t.Err() != nil && !errors.Is(t.Err(), context.Canceled) {
				s.env.ReportError(t.Err())
			}
			if stats {
				s.render.Stats(t.Name, t.VM.Stats())
			}
		}),
	)

	for _, input := range fs.Args() {
		prog, err := s.load(input)
		if err != nil {
			return err
		}
		opts := s.cfg.VMOptions()
		if debug {
			opts.Debugger = newConsoleDebugger(os.Stdin, os.Stderr, s.render)
		}
		loop.Spawn(input, s.env.NewVM(prog, opts))
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}
	if s.failed {
		return errReported
	}
	return nil
}

// -------------- CHECK --------------

func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var c common
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("check: missing input file")
	}

	input := fs.Arg(0)
	s, err := c.open(input)
	if err != nil {
		return err
	}
	prog, err := s.load(input)
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d instructions)\n", input, len(prog.Code))
	return nil
}

// -------------- DISASM --------------

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var c common
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("disasm: missing input file")
	}

	input := fs.Arg(0)
	s, err := c.open(input)
	if err != nil {
		return err
	}
	prog, err := s.load(input)
	if err != nil {
		return err
	}
	ir.Fdisassemble(os.Stdout, prog.Code)
	return nil
}

// -------------- AST --------------

func cmdAST(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("ast: missing input file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	chunk, errs := parser.Parse(string(data))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%s:%s\n", args[0], e)
		}
		return fmt.Errorf("parsing failed with %d errors", len(errs))
	}
	fmt.Print(ast.Dump(chunk))
	return nil
}
