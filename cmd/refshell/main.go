package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/handle"
	"github.com/wippyai/scriptref/ref"
	"github.com/wippyai/scriptref/script"
	"github.com/wippyai/scriptref/world"
)

var logger = zap.NewNop()

type statements []string

func (s *statements) String() string { return strings.Join(*s, "; ") }

func (s *statements) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var exprs statements
	flag.Var(&exprs, "e", "Statement to run (repeatable)")
	var (
		wasmFile    = flag.String("wasm", "", "Guest module importing the scriptref host functions")
		funcName    = flag.String("func", "run", "Guest function to call with -wasm")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()
		installLoggers(l)
	}

	w := demoWorld()
	defer w.Close()
	sh := newShell(w, logger.Named("shell"))

	switch {
	case *wasmFile != "":
		return runGuest(w, *wasmFile, *funcName)
	case len(exprs) > 0:
		return runStatements(sh, exprs, os.Stdout)
	case *interactive || term.IsTerminal(int(os.Stdin.Fd())):
		return runInteractive(sh)
	default:
		return runScript(sh, os.Stdin, os.Stdout)
	}
}

// installLoggers routes every package logger through l. It must run before
// the demo world is built.
func installLoggers(l *zap.Logger) {
	logger = l
	access.SetLogger(l.Named("access"))
	world.SetLogger(l.Named("world"))
	ref.SetLogger(l.Named("ref"))
	handle.SetLogger(l.Named("handle"))
	script.SetLogger(l.Named("script"))
}

func runStatements(sh *shell, stmts []string, out io.Writer) error {
	for _, stmt := range stmts {
		res, err := sh.exec(stmt)
		if err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
		if res != "" {
			fmt.Fprintln(out, res)
		}
	}
	return nil
}

// runScript executes one statement per line, skipping blanks and # comments.
// Failing statements are reported and do not stop the script.
func runScript(sh *shell, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	failed := 0
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		res, err := sh.exec(line)
		if err != nil {
			failed++
			fmt.Fprintf(out, "line %d: %v\n", n, err)
			continue
		}
		if res != "" {
			fmt.Fprintln(out, res)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d statements failed", failed)
	}
	return nil
}

func runGuest(w *world.World, wasmFile, funcName string) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	sc := script.New(w, script.WithLogger(logger.Named("script")))
	defer sc.Close()

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := sc.Instantiate(ctx, rt); err != nil {
		return err
	}
	guest, err := rt.Instantiate(ctx, data)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	fn := guest.ExportedFunction(funcName)
	if fn == nil {
		return fmt.Errorf("guest does not export %q", funcName)
	}
	if n := len(fn.Definition().ParamTypes()); n != 0 {
		return fmt.Errorf("%s takes %d parameters, want none", funcName, n)
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	for i, t := range fn.Definition().ResultTypes() {
		fmt.Printf("result %d: %s\n", i, formatResult(t, results[i]))
	}
	if err := sc.LastError(); err != nil {
		fmt.Printf("last error: %v\n", err)
	}
	fmt.Printf("handles left: %d\n", sc.Handles().Len())
	return nil
}

func formatResult(t api.ValueType, v uint64) string {
	switch t {
	case api.ValueTypeI32:
		return fmt.Sprint(api.DecodeI32(v))
	case api.ValueTypeI64:
		return fmt.Sprint(int64(v))
	case api.ValueTypeF32:
		return fmt.Sprint(api.DecodeF32(v))
	case api.ValueTypeF64:
		return fmt.Sprint(api.DecodeF64(v))
	default:
		return fmt.Sprintf("%#x", v)
	}
}
