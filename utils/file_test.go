// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	filename := filepath.Join(dir, "key")
	require.False(FileExists(filename))
	require.False(FileExists(dir))

	require.NoError(os.WriteFile(filename, nil, 0o600))
	require.True(FileExists(filename))
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		path     string
		expected string
	}{
		{
			path:     "",
			expected: home,
		},
		{
			path:     "~",
			expected: home,
		},
		{
			path:     "~/.bridged/db",
			expected: filepath.Join(home, ".bridged", "db"),
		},
		{
			path:     "/var/lib/bridged",
			expected: "/var/lib/bridged",
		},
		{
			path:     "~other/db",
			expected: "~other/db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.expected, ExpandHome(tt.path))
		})
	}
}
