package ir

import (
	"errors"
	"sync"

	"golang.org/x/crypto/blake2b"

	"greyvm/internal/ast"
)

var ErrNoResolver = errors.New("no resolver configured")

// Fingerprint returns the BLAKE2b-256 digest of a module source.
func Fingerprint(src string) [32]byte {
	return blake2b.Sum256([]byte(src))
}

type cacheEntry struct {
	digest [32]byte
	code   []*Instruction
}

// ImportCache memoizes compiled import bodies per resolved path. An entry is
// reused only while the source it was compiled from is unchanged.
type ImportCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewImportCache() *ImportCache {
	return &ImportCache{entries: make(map[string]cacheEntry)}
}

func (c *ImportCache) Lookup(path string, digest [32]byte) ([]*Instruction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || e.digest != digest {
		return nil, false
	}
	return e.code, true
}

func (c *ImportCache) Store(path string, digest [32]byte, code []*Instruction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{digest: digest, code: code}
}

func (c *ImportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// load resolves ref against the current target and fetches its source.
func (g *Generator) load(node ast.Node, ref string) (string, string, error) {
	if g.opts.Resolver == nil {
		return "", "", g.wrapTarget(ref, node, ErrNoResolver)
	}
	path, err := g.opts.Resolver.ResolveRelative(g.target(), ref)
	if err != nil {
		return "", "", g.wrapTarget(ref, node, err)
	}
	if g.isActive(path) {
		return path, "", nil
	}
	src, err := g.opts.Resolver.Fetch(path)
	if err != nil {
		return "", "", g.wrapTarget(path, node, err)
	}
	return path, src, nil
}

func (g *Generator) warnCircular(kind, path string) {
	g.log.Warn().
		Str("target", g.target()).
		Str("path", path).
		Msgf("circular %s ignored", kind)
}

// compileImport binds the module's exports to s.Name in the current scope:
//
//	GET_LOCALS; PUSH name; FUNCTION_DEFINITION body; CALL 0; ASSIGN
func (g *Generator) compileImport(s *ast.ImportStmt) error {
	path, src, err := g.load(s, s.Path)
	if err != nil {
		return err
	}
	if g.isActive(path) {
		g.warnCircular("import", path)
		return nil
	}

	code, err := g.importBody(s, path, src)
	if err != nil {
		return err
	}

	g.op(OpGetLocals, s)
	g.push(StringConst(s.Name), s)
	g.emit(&Instruction{Op: OpFunctionDefinition, Func: &FuncDef{
		Name:        s.Name,
		Code:        code,
		IgnoreOuter: true,
	}}, s)
	g.emit(&Instruction{Op: OpCall}, s)
	g.op(OpAssign, s)
	return nil
}

// importBody compiles a module wrapped so that it returns module.exports.
func (g *Generator) importBody(s *ast.ImportStmt, path, src string) ([]*Instruction, error) {
	digest := Fingerprint(src)
	if code, ok := g.cache.Lookup(path, digest); ok {
		g.log.Debug().Str("path", path).Msg("import cache hit")
		return code, nil
	}

	chunk, err := g.parse(path, src)
	if err != nil {
		return nil, g.wrapTarget(path, s, err)
	}

	g.targets = append(g.targets, path)
	g.pushScope(s.Name)

	// module = {"exports": null}
	g.op(OpGetLocals, chunk)
	g.push(StringConst("module"), chunk)
	g.push(StringConst("exports"), chunk)
	g.push(NullConst(), chunk)
	g.emit(&Instruction{Op: OpConstructMap, Length: 1}, chunk)
	g.op(OpAssign, chunk)

	err = g.compileBody(chunk.Body)
	if err == nil {
		g.emit(&Instruction{Op: OpGetVariable, Name: "module"}, chunk)
		g.push(StringConst("exports"), chunk)
		g.emit(&Instruction{Op: OpGetProperty}, chunk)
		g.op(OpReturn, chunk)
	}

	code := g.popScope()
	g.targets = g.targets[:len(g.targets)-1]
	if err != nil {
		return nil, g.wrapTarget(path, s, err)
	}

	g.cache.Store(path, digest, code)
	return code, nil
}

// compileInclude splices the included file into the current code buffer.
func (g *Generator) compileInclude(s *ast.IncludeStmt) error {
	path, src, err := g.load(s, s.Path)
	if err != nil {
		return err
	}
	if g.isActive(path) {
		g.warnCircular("include", path)
		return nil
	}

	chunk, err := g.parse(path, src)
	if err != nil {
		return g.wrapTarget(path, s, err)
	}

	g.targets = append(g.targets, path)
	err = g.compileBody(chunk.Body)
	g.targets = g.targets[:len(g.targets)-1]
	if err != nil {
		return g.wrapTarget(path, s, err)
	}
	return nil
}
