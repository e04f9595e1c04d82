// Package priority scores files for inclusion order under a token budget.
package priority

import (
	"path/filepath"
	"strings"
)

// Score rates a file; higher scores are included first when a budget is
// in force. READMEs rank highest (100), then entry points (90) and config
// files (80). Ordinary sources start at 70 and lose 10 per directory
// level, floored at 10. Tests score 30; fixtures, generated trees, and
// vendored code score 5 regardless of anything else in the path.
func Score(path, basePath string) int {
	fileName := strings.ToLower(filepath.Base(path))

	rel := path
	if r, err := filepath.Rel(basePath, path); err == nil && !strings.HasPrefix(r, "..") {
		rel = r
	}
	pathStr := strings.ToLower(filepath.ToSlash(rel))
	depth := strings.Count(pathStr, "/")

	switch {
	case isFixture(pathStr):
		return 5
	case isTest(pathStr, fileName):
		return 30
	case isReadme(fileName):
		return 100
	case isEntryPoint(fileName):
		return 90
	case isConfig(fileName):
		return 80
	}

	score := 70 - depth*10
	if score < 10 {
		score = 10
	}
	return score
}

func isReadme(fileName string) bool {
	return strings.HasPrefix(fileName, "readme")
}

func isEntryPoint(fileName string) bool {
	switch stem(fileName) {
	case "main", "index", "app", "lib", "mod":
		return true
	}
	return false
}

func isConfig(fileName string) bool {
	switch stem(fileName) {
	case "config", "settings", "package", "cargo", "tsconfig", "webpack",
		"vite", "eslint", "prettier", "jest", "pyproject", "setup",
		"makefile", "dockerfile", "docker-compose", "go":
		return true
	}
	return strings.HasSuffix(fileName, ".toml") ||
		strings.HasSuffix(fileName, ".yaml") ||
		strings.HasSuffix(fileName, ".yml") ||
		(strings.HasSuffix(fileName, ".json") && !strings.Contains(fileName, "test"))
}

func isTest(pathStr, fileName string) bool {
	return strings.Contains(pathStr, "test") ||
		strings.Contains(pathStr, "spec") ||
		strings.Contains(fileName, "test") ||
		strings.Contains(fileName, "spec")
}

func isFixture(pathStr string) bool {
	for _, marker := range []string{"fixture", "testdata", "test_data", "__snapshots__", "generated", "vendor"} {
		if strings.Contains(pathStr, marker) {
			return true
		}
	}
	return false
}

// stem is the file name up to the first dot, so "docker-compose.dev.yml"
// stems to "docker-compose" and "go.mod" to "go".
func stem(fileName string) string {
	if i := strings.IndexByte(fileName, '.'); i >= 0 {
		return fileName[:i]
	}
	return fileName
}
