package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"expresso/pkg/color"
	"expresso/pkg/interpreter"
)

const (
	promptMain = "expresso> "
	promptCont = "     ...> "
)

// Session evaluates REPL entries one after another. Every entry is its own
// module; its top-level bindings become globals for later entries.
type Session struct {
	opts   *Compiler
	it     *interpreter.Interpreter
	loader *Loader
	count  int
}

func (opts *Compiler) NewSession() *Session {
	dir, _ := os.Getwd()
	return &Session{
		opts:   opts,
		it:     opts.NewInterpreter(),
		loader: NewLoader(opts, dir),
	}
}

// Eval runs one entry and returns the value to show: the value of a
// top-level return, or else of the last expression statement
func (s *Session) Eval(src string) (interpreter.Value, error) {
	s.count++
	name := fmt.Sprintf("repl%d", s.count)

	mod, err := s.opts.CompileModule(s.it, name, src)
	if err != nil {
		return interpreter.Null, err
	}
	if err := s.loader.Require(s.it, mod); err != nil {
		return interpreter.Null, err
	}

	v, err := s.it.Evaluate(mod)
	if err != nil {
		return interpreter.Null, err
	}
	for name, val := range s.it.Record().Bindings() {
		s.it.Define(name, val)
	}
	if v.IsNull() {
		v = s.it.LastValue()
	}
	return v, nil
}

// Repl reads entries from the terminal until EOF or :quit
func (opts *Compiler) Repl() error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if opts.HistoryFile != "" {
		if f, err := os.Open(opts.HistoryFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(opts.HistoryFile); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	fmt.Fprintln(opts.stdout(), color.GreenText("Expresso REPL")+color.GrayText(" (:quit to exit)"))
	s := opts.NewSession()
	for {
		src, err := readEntry(ln)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(opts.stdout())
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		v, err := s.Eval(src)
		if err != nil {
			fmt.Fprintln(opts.stderr(), color.Error(err.Error()))
			continue
		}
		if !v.IsNull() {
			fmt.Fprintln(opts.stdout(), color.CyanText(v.String()))
		}
	}
}

// readEntry keeps prompting while braces, brackets or parentheses are open
func readEntry(ln *liner.State) (string, error) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if Balanced(b.String()) {
			return b.String(), nil
		}
	}
}

// Balanced reports whether every opening delimiter outside string literals
// and comments is closed
func Balanced(src string) bool {
	depth := 0
	inString, escaped := false, false
	for n := 0; n < len(src); n++ {
		c := src[n]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && n+1 < len(src) && src[n+1] == '/':
			for n < len(src) && src[n] != '\n' {
				n++
			}
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		}
	}
	return depth <= 0 && !inString
}
