package modules

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Ext is the extension added to import references that have none.
const Ext = ".src"

// MaxSourceSize bounds the size of a fetched script.
const MaxSourceSize = 16 << 20

var (
	ErrNotFound     = errors.New("script not found")
	ErrSourceTooBig = errors.New("script exceeds maximum size")
)

// Resolver resolves #import and #include references against a billy
// filesystem. A reference is looked up relative to the importing file,
// then under each library directory.
//
// Both a flat file (lib/util.src) and a folder form (lib/util/util.src)
// are accepted, in that order.
type Resolver struct {
	fs      billy.Filesystem
	libDirs []string
}

func NewResolver(fs billy.Filesystem, libDirs ...string) *Resolver {
	return &Resolver{fs: fs, libDirs: libDirs}
}

// ResolveRelative returns the path ref designates when written in source.
func (r *Resolver) ResolveRelative(source, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty import path")
	}
	if strings.HasPrefix(ref, "/") {
		return r.find(ref)
	}

	candidates := []string{path.Join(path.Dir(source), ref)}
	for _, dir := range r.libDirs {
		candidates = append(candidates, path.Join(dir, ref))
	}
	for _, c := range candidates {
		if p, err := r.find(c); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q (from %s)", ErrNotFound, ref, source)
}

func (r *Resolver) find(p string) (string, error) {
	p = path.Clean(p)
	var candidates []string
	if path.Ext(p) != "" {
		candidates = append(candidates, p)
	} else {
		base := path.Base(p)
		candidates = append(candidates, p+Ext, path.Join(p, base+Ext))
	}

	for _, c := range candidates {
		info, err := r.fs.Stat(c)
		if err == nil && !info.IsDir() {
			return c, nil
		}
	}

	// distinguish a folder missing its entry file from a missing module
	if info, err := r.fs.Stat(p); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: folder %q has no %s", ErrNotFound, p, path.Base(p)+Ext)
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, p)
}

// Fetch reads the script at p.
func (r *Resolver) Fetch(p string) (string, error) {
	info, err := r.fs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, p)
		}
		return "", err
	}
	if info.Size() > MaxSourceSize {
		return "", fmt.Errorf("%w: %q", ErrSourceTooBig, p)
	}
	data, err := util.ReadFile(r.fs, p)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", p, err)
	}
	return string(data), nil
}
