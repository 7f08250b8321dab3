// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package perms holds the file modes used for files the daemon writes.
package perms

const (
	ReadOnly         = 0o400
	ReadWrite        = 0o640
	ReadExecute      = 0o500
	ReadWriteExecute = 0o750
)
