// Package fsutil provides the filesystem helpers shared by stage
// preconditions and output path handling.
package fsutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// ExistsDir reports whether path names an existing directory.
func ExistsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ExistsFile reports whether path names an existing regular file.
func ExistsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// CheckDirWritable verifies that path exists, is a directory, and is
// readable, writable, and traversable by the current process.
func CheckDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: does not exist", path)
		}
		return fmt.Errorf("%s: stat: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: is not a directory", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%s: insufficient permissions: %w", path, err)
	}
	return nil
}

// TrimExt strips the extension from the final path component only, so dotted
// directory names never truncate the result. "/data/run.v2/model" keeps its
// full form; "/data/run.v2/model.bin" becomes "/data/run.v2/model".
func TrimExt(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return path
	}
	return strings.TrimSuffix(path, ext)
}

// ReadLines loads a newline-separated list file, trimming surrounding
// whitespace and dropping blank lines.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
