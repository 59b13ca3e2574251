package mcp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/giantswarm/llm-bench/internal/server"
)

// errOutsideResultRoots is returned for names that escape every result root.
var errOutsideResultRoots = errors.New("file must be inside the output or scores directory")

// resultRoots lists the directories get_results may read from, output
// directory first. Score files live in ScoresDir when it is set.
func resultRoots(sc *server.ServerContext) []string {
	roots := []string{sc.OutputDir}
	if sc.ScoresDir != "" && filepath.Clean(sc.ScoresDir) != filepath.Clean(sc.OutputDir) {
		roots = append(roots, sc.ScoresDir)
	}
	return roots
}

func scoresRoot(sc *server.ServerContext) string {
	if sc.ScoresDir != "" {
		return sc.ScoresDir
	}
	return sc.OutputDir
}

// resolveResultFile maps a name from get_results to an existing file under
// one of the result roots. Relative names are tried against each root in
// order.
func resolveResultFile(sc *server.ServerContext, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("file is required")
	}

	var candidate string
	for _, root := range resultRoots(sc) {
		path, ok, err := underRoot(root, name)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", name, err)
		}
		if candidate == "" {
			candidate = path
		}
	}
	if candidate == "" {
		return "", errOutsideResultRoots
	}
	// Report the miss against the first root that could have held it.
	return candidate, nil
}

// underRoot resolves name against root and reports whether the result stays
// inside root.
func underRoot(root, name string) (string, bool, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", false, fmt.Errorf("resolve result root %s: %w", root, err)
	}
	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(rootAbs, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(rootAbs, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false, nil
	}
	return target, true, nil
}
