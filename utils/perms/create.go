// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package perms

import (
	"errors"
	"os"
)

// Create a file at [filename] that has [perm] permissions, truncating it if it
// already exists.
func Create(filename string, perm os.FileMode) (*os.File, error) {
	if err := chmodIfExists(filename, perm); err != nil {
		return nil, err
	}
	return os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
}

func chmodIfExists(filename string, perm os.FileMode) error {
	info, err := os.Stat(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode().Perm() == perm {
		return nil
	}
	return os.Chmod(filename, perm)
}
