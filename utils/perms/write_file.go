// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package perms

import (
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile writes [data] to [filename] and ensures that [filename] has [perm]
// permissions. The data is written to a temporary file and renamed into place,
// so readers never observe a partially written file.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	// renameio keeps the mode of an existing file, so fix it up first.
	if err := chmodIfExists(filename, perm); err != nil {
		return err
	}
	return renameio.WriteFile(filename, data, perm)
}
