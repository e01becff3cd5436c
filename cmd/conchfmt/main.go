// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// conchfmt formats conch shell scripts.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
	"github.com/pkg/diff"
	diffwrite "github.com/pkg/diff/write"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"mvdan.cc/editorconfig"

	"conchsh.dev/conch/diag"
	"conchsh.dev/conch/fileutil"
	"conchsh.dev/conch/parser"
	"conchsh.dev/conch/printer"
)

var (
	showVersion = flag.Bool("version", false, "")

	list    = flag.Bool("l", false, "")
	write   = flag.Bool("w", false, "")
	find    = flag.Bool("f", false, "")
	diffOut = flag.Bool("d", false, "")

	// useEditorConfig will be false if any parser or printer flags
	// were used.
	useEditorConfig = true

	posix    = flag.Bool("p", false, "")
	filename = flag.String("filename", "", "")
	indent   = flag.Uint("i", 0, "")

	out   io.Writer = os.Stdout
	outMu sync.Mutex
	color bool

	version = "(devel)" // to match the default from runtime/debug
)

func main() {
	os.Exit(main1())
}

func main1() int {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: conchfmt [flags] [path ...]

If the only argument is a dash ('-') or no arguments are given, standard input
will be used. If a given path is a directory, it will be recursively searched
for shell files - both by filename extension and by shebang.

  -version  show version and exit

  -l        list files whose formatting differs from conchfmt's
  -w        write result to file instead of stdout
  -d        error with a diff when the formatting differs

Parser options:

  -p             parse in strict POSIX mode
  -filename str  provide a name for the standard input file

Printer options:

  -i uint   indent: 0 for tabs (default), >0 for number of spaces

Utilities:

  -f        recursively find all shell files and print the paths

Shell-mode feature flags can also be set per tree in a .conchfmt.toml
file; see the project documentation.
`)
	}
	flag.Parse()

	if *showVersion {
		// don't overwrite the version if it was set by -ldflags=-X
		if info, ok := debug.ReadBuildInfo(); ok && version == "(devel)" {
			mod := &info.Main
			if mod.Replace != nil {
				mod = mod.Replace
			}
			version = mod.Version
		}
		fmt.Println(version)
		return 0
	}
	if os.Getenv("CONCHFMT_NO_EDITORCONFIG") == "true" {
		useEditorConfig = false
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p", "i":
			useEditorConfig = false
		}
	})

	if os.Getenv("FORCE_COLOR") == "true" {
		// Undocumented way to force color; used in the tests.
		color = true
	} else if os.Getenv("TERM") == "dumb" {
		// Equivalent to forcing color to be turned off.
	} else if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		color = true
	}
	if flag.NArg() == 0 || (flag.NArg() == 1 && flag.Arg(0) == "-") {
		name := "<standard input>"
		if *filename != "" {
			name = *filename
		}
		if err := formatStdin(name); err != nil {
			if err != errChangedWithDiff {
				reportErr(err)
			}
			return 1
		}
		return 0
	}
	if *filename != "" {
		fmt.Fprintln(os.Stderr, "-filename can only be used with stdin")
		return 1
	}
	status := 0
	for _, path := range flag.Args() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() && !*find {
			// When given paths to files directly, always format
			// them, no matter their extension or shebang.
			//
			// The only exception is the -f flag; in that case, we
			// do want to report whether the file is a shell script.
			if err := formatPath(path, false); err != nil {
				if err != errChangedWithDiff {
					reportErr(err)
				}
				status = 1
			}
			continue
		}
		paths, err := gatherPaths(path)
		if err != nil {
			reportErr(err)
			return 1
		}
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		var changed, failed bool
		var statusMu sync.Mutex
		for _, p := range paths {
			p := p
			g.Go(func() error {
				err := formatPath(p.path, p.checkShebang)
				if err == nil || os.IsNotExist(err) {
					return nil
				}
				statusMu.Lock()
				defer statusMu.Unlock()
				if err == errChangedWithDiff {
					changed = true
				} else {
					reportErr(err)
					failed = true
				}
				return nil
			})
		}
		g.Wait()
		if changed || failed {
			status = 1
		}
	}
	return status
}

var errChangedWithDiff = fmt.Errorf("")

// reportErr prints err to stderr, rendering parser diagnostics with
// their source excerpts.
func reportErr(err error) {
	var col *diag.Collector
	if errors.As(err, &col) {
		col.Render(os.Stderr, color && diag.TerminalColor(os.Stderr))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func formatStdin(name string) error {
	if *write {
		return fmt.Errorf("-w cannot be used on standard input")
	}
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	return formatBytes(src, name)
}

var vcsDir = regexp.MustCompile(`^\.(git|svn|hg)$`)

type candidate struct {
	path         string
	checkShebang bool
}

// gatherPaths walks root collecting the files worth formatting, so
// the formatting itself can run concurrently afterwards.
func gatherPaths(root string) ([]candidate, error) {
	var paths []candidate
	err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && vcsDir.MatchString(info.Name()) {
			return filepath.SkipDir
		}
		if useEditorConfig {
			props, err := ecQuery.Find(path)
			if err != nil {
				return err
			}
			if props.Get("ignore") == "true" {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		conf := fileutil.CouldBeScript(info)
		if conf == fileutil.ConfNotScript {
			return nil
		}
		paths = append(paths, candidate{path, conf == fileutil.ConfIfShebang})
		return nil
	})
	return paths, err
}

var ecQuery = editorconfig.Query{
	FileCache:   make(map[string]*editorconfig.File),
	RegexpCache: make(map[string]*regexp.Regexp),
}

// treeConfig is the optional per-tree .conchfmt.toml file, which
// carries the shell-mode feature flags that editorconfig has no
// vocabulary for.
type treeConfig struct {
	Posix    bool            `toml:"posix"`
	Indent   uint            `toml:"indent"`
	Features map[string]bool `toml:"features"`
}

var (
	treeConfMu    sync.Mutex
	treeConfCache = make(map[string]*treeConfig)
)

// findTreeConfig looks for .conchfmt.toml in the file's directory and
// its parents, caching per directory.
func findTreeConfig(path string) (*treeConfig, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	treeConfMu.Lock()
	defer treeConfMu.Unlock()
	for d := dir; ; d = filepath.Dir(d) {
		if tc, ok := treeConfCache[d]; ok {
			treeConfCache[dir] = tc
			return tc, nil
		}
		name := filepath.Join(d, ".conchfmt.toml")
		if _, err := os.Stat(name); err == nil {
			var tc treeConfig
			if _, err := toml.DecodeFile(name, &tc); err != nil {
				return nil, fmt.Errorf("%s: %v", name, err)
			}
			treeConfCache[d] = &tc
			treeConfCache[dir] = &tc
			return &tc, nil
		}
		if d == filepath.Dir(d) {
			break
		}
	}
	treeConfCache[dir] = nil
	return nil, nil
}

// options builds the parser options and printer config for one file.
func options(path string) ([]parser.Option, printer.Config, error) {
	var opts []parser.Option
	var pc printer.Config
	if tc, err := findTreeConfig(path); err != nil {
		return nil, pc, err
	} else if tc != nil {
		opts = append(opts, parser.PosixMode(tc.Posix))
		for name, on := range tc.Features {
			opts = append(opts, parser.Feature(name, on))
		}
		pc.Spaces = int(tc.Indent)
	}
	if useEditorConfig {
		props, err := ecQuery.Find(path)
		if err != nil {
			return nil, pc, err
		}
		if props.Get("indent_style") == "space" {
			pc.Spaces = 8
			if n := props.IndentSize(); n > 0 {
				pc.Spaces = n
			}
		}
	} else {
		opts = append(opts, parser.PosixMode(*posix))
		pc.Spaces = int(*indent)
	}
	return opts, pc, nil
}

func formatPath(path string, checkShebang bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var readBuf bytes.Buffer
	if checkShebang {
		var head [32]byte
		n, err := f.Read(head[:])
		if err != nil {
			return err
		}
		if !fileutil.HasShebang(head[:n]) {
			return nil
		}
		readBuf.Write(head[:n])
	}
	if *find {
		outMu.Lock()
		fmt.Fprintln(out, path)
		outMu.Unlock()
		return nil
	}
	if _, err := io.Copy(&readBuf, f); err != nil {
		return err
	}
	f.Close()
	return formatBytes(readBuf.Bytes(), path)
}

func formatBytes(src []byte, path string) error {
	opts, pc, err := options(path)
	if err != nil {
		return err
	}
	prog, err := parser.Parse(src, path, opts...)
	if err != nil {
		return err
	}
	var writeBuf bytes.Buffer
	if err := pc.Fprint(&writeBuf, prog); err != nil {
		return err
	}
	res := writeBuf.Bytes()
	if !bytes.Equal(src, res) {
		if *list {
			outMu.Lock()
			_, err := fmt.Fprintln(out, path)
			outMu.Unlock()
			if err != nil {
				return err
			}
		}
		if *write {
			info, err := os.Lstat(path)
			if err != nil {
				return err
			}
			perm := info.Mode().Perm()
			writeFile := func(path string, data []byte, perm os.FileMode) error {
				return renameio.WriteFile(path, data, perm)
			}
			// TODO: support atomic writes on Windows once renameio
			// supports it
			if runtime.GOOS == "windows" {
				writeFile = os.WriteFile
			}
			if err := writeFile(path, res, perm); err != nil {
				return err
			}
		}
		if *diffOut {
			opts := []diffwrite.Option{}
			if color {
				opts = append(opts, diffwrite.TerminalColor())
			}
			outMu.Lock()
			err := diff.Text(path+".orig", path, src, res, out, opts...)
			outMu.Unlock()
			if err != nil {
				return fmt.Errorf("computing diff: %s", err)
			}
			return errChangedWithDiff
		}
	}
	if !*list && !*write && !*diffOut {
		outMu.Lock()
		_, err := out.Write(res)
		outMu.Unlock()
		return err
	}
	return nil
}
