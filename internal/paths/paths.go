// Package paths locates the .vmcp state directory and the files kept in it.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirName is the per-repository state directory.
	StateDirName = ".vmcp"
	// ConfigFileName is the config file inside the state directory.
	ConfigFileName = "config.json"
	// StoreFileName is the build-spec database inside the state directory.
	StoreFileName = "buildspec.db"
	// LogFileName is the build log inside the logs directory.
	LogFileName = "vmcp.log"
)

// GetStateDir returns <repoRoot>/.vmcp
func GetStateDir(repoRoot string) string {
	return filepath.Join(repoRoot, StateDirName)
}

// GetConfigPath returns <repoRoot>/.vmcp/config.json
func GetConfigPath(repoRoot string) string {
	return filepath.Join(GetStateDir(repoRoot), ConfigFileName)
}

// GetStorePath returns <repoRoot>/.vmcp/buildspec.db
func GetStorePath(repoRoot string) string {
	return filepath.Join(GetStateDir(repoRoot), StoreFileName)
}

// GetLogPath returns <repoRoot>/.vmcp/logs/vmcp.log
func GetLogPath(repoRoot string) string {
	return filepath.Join(GetStateDir(repoRoot), "logs", LogFileName)
}

// EnsureStateDir creates the state directory if needed and returns it.
func EnsureStateDir(repoRoot string) (string, error) {
	dir := GetStateDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureLogsDir creates the logs directory if needed and returns it.
func EnsureLogsDir(repoRoot string) (string, error) {
	dir := filepath.Dir(GetLogPath(repoRoot))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Returns forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = repoRoot
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// DisplayPath returns path relative to repoRoot when it lies inside it, and
// path unchanged otherwise. Generated files name their inputs this way so
// that output does not depend on the checkout location.
func DisplayPath(path string, repoRoot string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := CanonicalizePath(abs, root)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return filepath.ToSlash(path)
	}
	return rel
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	if filepath.IsAbs(canonicalPath) {
		return canonicalPath
	}
	parts := strings.Split(strings.ReplaceAll(canonicalPath, "\\", "/"), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
