// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package perms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	require := require.New(t)

	filename := filepath.Join(t.TempDir(), "key")
	require.NoError(WriteFile(filename, []byte("first"), ReadWrite))

	info, err := os.Stat(filename)
	require.NoError(err)
	require.Equal(os.FileMode(ReadWrite), info.Mode().Perm())

	require.NoError(WriteFile(filename, []byte("second"), ReadOnly))
	info, err = os.Stat(filename)
	require.NoError(err)
	require.Equal(os.FileMode(ReadOnly), info.Mode().Perm())

	data, err := os.ReadFile(filename)
	require.NoError(err)
	require.Equal("second", string(data))
}

func TestCreate(t *testing.T) {
	require := require.New(t)

	filename := filepath.Join(t.TempDir(), "profile")
	require.NoError(os.WriteFile(filename, []byte("stale"), 0o600))

	file, err := Create(filename, ReadWrite)
	require.NoError(err)
	_, err = file.WriteString("fresh")
	require.NoError(err)
	require.NoError(file.Close())

	info, err := os.Stat(filename)
	require.NoError(err)
	require.Equal(os.FileMode(ReadWrite), info.Mode().Perm())

	data, err := os.ReadFile(filename)
	require.NoError(err)
	require.Equal("fresh", string(data))
}
