package main

import (
	"fmt"
	"os"
)

// isDirectory reports whether path exists and is a directory.
func isDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// exists checks whether a file or directory exists.
func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ensureDir creates path (and parents) if it doesn't already exist, for
// the -of/-op flags which §6 requires to be "created if absent".
func ensureDir(path string) error {
	ok, err := exists(path)
	if err != nil {
		return fmt.Errorf("could not stat %s: %w", path, err)
	}
	if ok {
		isDir, err := isDirectory(path)
		if err != nil {
			return fmt.Errorf("could not stat %s: %w", path, err)
		}
		if !isDir {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	return nil
}
