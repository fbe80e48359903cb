// styledump compiles a theme document and writes human readable dumps of the
// result: the compiled component tree and the rendered stylesheet. It is a
// development aid, regular compilation goes through "stylec compile".
//
// Program configuration defaults are used, palette and breakpoints come from
// the theme itself.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stylec/compile"
	"stylec/config"
	"stylec/state"
)

// writeDump writes data to <stem><suffix> placed next to the input file or
// into outDir when given.
func writeDump(inPath, outDir, suffix string, data []byte, overwrite bool) error {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(inPath)
	if outDir != "" {
		dir = outDir
	}
	outPath := filepath.Join(dir, stem+suffix)

	if _, err := os.Stat(outPath); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s (use -overwrite)", outPath)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	return nil
}

func main() {
	all := flag.Bool("all", false, "enable all dump flags (-tree, -css)")
	tree := flag.Bool("tree", false, "dump compiled component tree into <file>-dump.txt")
	css := flag.Bool("css", false, "dump rendered stylesheet into <file>-dump.css")
	overwrite := flag.Bool("overwrite", false, "overwrite existing output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: styledump [-all] [-tree] [-css] [-overwrite] <theme.yaml> [outdir]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles theme document and dumps the result for inspection.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	if *all {
		*tree = true
		*css = true
	}
	if !*tree && !*css {
		flag.Usage()
		os.Exit(2)
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	inPath := flag.Arg(0)
	outDir := ""
	if flag.NArg() == 2 {
		outDir = flag.Arg(1)
	}

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)

	var err error
	if env.Cfg, err = config.LoadConfiguration(""); err != nil {
		fmt.Fprintf(os.Stderr, "prepare configuration: %v\n", err)
		os.Exit(1)
	}
	if env.Log, err = env.Cfg.Logging.Prepare(nil); err != nil {
		fmt.Fprintf(os.Stderr, "prepare logs: %v\n", err)
		os.Exit(1)
	}
	defer env.Log.Sync()

	f, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", inPath, err)
		os.Exit(1)
	}
	defer f.Close()

	treeText, sheet, err := compile.DumpTheme(ctx, f, filepath.Base(inPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile %s: %v\n", inPath, err)
		os.Exit(1)
	}

	if *tree {
		if err := writeDump(inPath, outDir, "-dump.txt", []byte(treeText), *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "write tree dump: %v\n", err)
			os.Exit(1)
		}
	}
	if *css {
		if err := writeDump(inPath, outDir, "-dump.css", sheet, *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "write stylesheet dump: %v\n", err)
			os.Exit(1)
		}
	}
}
