package ir

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"greyvm/internal/ast"
	"greyvm/internal/parser"
	"greyvm/internal/token"
)

// Resolver locates and loads the sources referenced by #import and #include.
type Resolver interface {
	ResolveRelative(source, ref string) (string, error)
	Fetch(path string) (string, error)
}

// Options configures a Generator.
type Options struct {
	Target   string
	Resolver Resolver
	Logger   *zerolog.Logger
	Cache    *ImportCache

	// DebugMode emits a BREAKPOINT before every statement.
	DebugMode bool
	// CaptureOuterOnAssign lets function literals assigned directly read the
	// locals of the enclosing function. Other literals never capture.
	CaptureOuterOnAssign bool
}

// Generator lowers a syntax tree into bytecode.
type Generator struct {
	opts Options
	log  zerolog.Logger

	scopes  []*scope // per-function code buffers
	targets []string // active targets, innermost last
	cache   *ImportCache
}

type loopPoint struct {
	start *Instruction // continue
	end   *Instruction // break
}

type scope struct {
	name  string
	code  []*Instruction
	loops []loopPoint
}

func New(opts Options) *Generator {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewImportCache()
	}
	if opts.Target == "" {
		opts.Target = "main"
	}
	return &Generator{
		opts:  opts,
		log:   log.With().Str("component", "generator").Logger(),
		cache: cache,
	}
}

// Compile parses and compiles src as the generator's target.
func Compile(src string, opts Options) (*Program, error) {
	return New(opts).Compile(src)
}

func (g *Generator) Compile(src string) (*Program, error) {
	chunk, err := g.parse(g.opts.Target, src)
	if err != nil {
		return nil, err
	}
	return g.CompileChunk(chunk)
}

// CompileChunk compiles an already parsed chunk as the root program.
func (g *Generator) CompileChunk(chunk *ast.Chunk) (*Program, error) {
	g.scopes = nil
	g.targets = []string{g.opts.Target}

	g.pushScope("global")
	if err := g.compileBody(chunk.Body); err != nil {
		return nil, err
	}
	g.emit(&Instruction{Op: OpHalt}, chunk)
	code := g.popScope()

	return &Program{Target: g.opts.Target, Code: code}, nil
}

// Cache returns the import cache shared by this generator.
func (g *Generator) Cache() *ImportCache {
	return g.cache
}

func (g *Generator) parse(target, src string) (*ast.Chunk, error) {
	chunk, errs := parser.Parse(src)
	if len(errs) == 0 {
		return chunk, nil
	}
	first := errs[0]
	msg := first.Msg
	if len(errs) > 1 {
		msg = fmt.Sprintf("%s (and %d more errors)", msg, len(errs)-1)
	}
	return nil, &CompileError{
		Message: msg,
		Target:  target,
		Range:   token.Range{Start: first.Pos, End: first.Pos},
		Err:     first,
	}
}

// ---------- code buffers ----------

func (g *Generator) pushScope(name string) {
	g.scopes = append(g.scopes, &scope{name: name})
}

func (g *Generator) popScope() []*Instruction {
	top := g.scopes[len(g.scopes)-1]
	g.scopes = g.scopes[:len(g.scopes)-1]
	return top.code
}

func (g *Generator) current() *scope {
	return g.scopes[len(g.scopes)-1]
}

func (g *Generator) target() string {
	return g.targets[len(g.targets)-1]
}

func (g *Generator) isActive(path string) bool {
	for _, t := range g.targets {
		if t == path {
			return true
		}
	}
	return false
}

// emit appends inst to the current buffer and fixes its position.
func (g *Generator) emit(inst *Instruction, node ast.Node) *Instruction {
	sc := g.current()
	inst.IP = len(sc.code)
	inst.Source = Source{
		Target: g.target(),
		Name:   sc.name,
		Start:  node.Pos(),
		End:    node.End(),
	}
	sc.code = append(sc.code, inst)
	return inst
}

func (g *Generator) op(op OpCode, node ast.Node) *Instruction {
	return g.emit(&Instruction{Op: op}, node)
}

// sentinel creates a NOOP jump target. Its IP is fixed once it is placed.
func (g *Generator) sentinel() *Instruction {
	return &Instruction{Op: OpNoop}
}

func (g *Generator) place(s *Instruction, node ast.Node) {
	g.emit(s, node)
}

func (g *Generator) jump(op OpCode, to *Instruction, node ast.Node) {
	g.emit(&Instruction{Op: op, Target: to}, node)
}

func (g *Generator) push(c Constant, node ast.Node) {
	g.emit(&Instruction{Op: OpPush, Value: c}, node)
}

func (g *Generator) pushLoop(start, end *Instruction) {
	sc := g.current()
	sc.loops = append(sc.loops, loopPoint{start: start, end: end})
}

func (g *Generator) popLoop() {
	sc := g.current()
	sc.loops = sc.loops[:len(sc.loops)-1]
}

func (g *Generator) innermostLoop() (loopPoint, bool) {
	sc := g.current()
	if len(sc.loops) == 0 {
		return loopPoint{}, false
	}
	return sc.loops[len(sc.loops)-1], true
}

// ---------- errors ----------

func (g *Generator) errorf(node ast.Node, format string, args ...interface{}) error {
	return &CompileError{
		Message: fmt.Sprintf(format, args...),
		Target:  g.target(),
		Range:   ast.RangeOf(node),
	}
}

// wrapTarget attributes a nested import/include failure to path, leaving
// errors that already carry their own location untouched.
func (g *Generator) wrapTarget(path string, node ast.Node, err error) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return err
	}
	return &CompileError{
		Message: fmt.Sprintf("cannot load %q: %v", path, err),
		Target:  g.target(),
		Range:   ast.RangeOf(node),
		Err:     err,
	}
}
