// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// Package fileutil holds the heuristics the command line tools use to
// decide which files look like shell scripts.
package fileutil

import (
	"io/fs"
	"regexp"
	"strings"
)

var (
	shebangRe = regexp.MustCompile(`^#!\s?/(usr/)?bin/(env\s+)?(sh|bash|conch)\s`)
	extRe     = regexp.MustCompile(`\.(sh|bash|conch)$`)
)

// HasShebang reports whether bs begins with a shell shebang line.
func HasShebang(bs []byte) bool {
	return shebangRe.Match(bs)
}

// ScriptConfidence is how certain CouldBeScript is that a file is a
// shell script.
type ScriptConfidence int

const (
	ConfNotScript ScriptConfidence = iota
	ConfIfShebang
	ConfIsScript
)

// CouldBeScript judges a file by its name, mode and size alone. A
// ConfIfShebang result means the caller should read the first line and
// check it with HasShebang.
func CouldBeScript(info fs.FileInfo) ScriptConfidence {
	name := info.Name()
	switch {
	case info.IsDir(), name[0] == '.', !info.Mode().IsRegular():
		return ConfNotScript
	case extRe.MatchString(name):
		return ConfIsScript
	case strings.Contains(name, "."):
		return ConfNotScript // different extension
	case info.Size() < int64(len("#/bin/sh\n")):
		return ConfNotScript // cannot possibly hold valid shebang
	default:
		return ConfIfShebang
	}
}
