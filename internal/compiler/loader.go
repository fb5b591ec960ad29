package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"expresso/pkg/ast"
	"expresso/pkg/interpreter"
)

// ErrImportCycle is returned when modules import each other
var ErrImportCycle = errors.New("import cycle")

// Loader resolves import statements to source files and evaluates every
// dependency before the module importing it.
type Loader struct {
	opts    *Compiler
	paths   []string
	loading []string // modules being loaded, outermost first
}

// NewLoader searches dir first, then the configured search paths
func NewLoader(opts *Compiler, dir string) *Loader {
	l := &Loader{opts: opts}
	if dir != "" {
		l.paths = append(l.paths, dir)
	}
	l.paths = append(l.paths, opts.SearchPaths...)
	return l
}

// Resolve returns the file that defines module name
func (l *Loader) Resolve(name string) (string, error) {
	for _, dir := range l.paths {
		path := filepath.Join(dir, name+SourceExt)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("resolve module %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("module %s not found in %s", name, strings.Join(l.paths, ", "))
}

// Require loads every module mod imports into it
func (l *Loader) Require(it *interpreter.Interpreter, mod *ast.Module) error {
	for _, name := range interpreter.Imports(mod) {
		if err := l.Load(it, name); err != nil {
			return err
		}
	}
	return nil
}

// Load compiles and evaluates module name, after its own imports, and
// publishes its record. Modules are loaded once per interpreter.
func (l *Loader) Load(it *interpreter.Interpreter, name string) error {
	if _, ok := it.Modules()[name]; ok {
		return nil
	}
	for n, loading := range l.loading {
		if loading == name {
			chain := append(append([]string{}, l.loading[n:]...), name)
			return fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(chain, " -> "))
		}
	}

	path, err := l.Resolve(name)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	l.loading = append(l.loading, name)
	defer func() { l.loading = l.loading[:len(l.loading)-1] }()

	l.opts.logger().Debug("loading module", "name", name, "path", path)
	mod, err := l.opts.CompileModule(it, name, string(src))
	if err != nil {
		return err
	}
	if err := l.Require(it, mod); err != nil {
		return err
	}

	if _, err := it.Evaluate(mod); err != nil {
		return fmt.Errorf("evaluation of module %s failed: %w", name, err)
	}
	rec := it.Record()
	rec.Name = name
	it.Publish(name, rec)
	l.opts.logger().Debug("published module", "name", name, "members", len(rec.Members))
	return nil
}
