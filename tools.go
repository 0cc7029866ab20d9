//go:build tools
// +build tools

// Package tools imports dependencies that are used by this project but not directly
// imported in the main codebase. This ensures they are tracked in go.mod.
package tools

import (
	// Database: the migrate postgres driver rides on lib/pq.
	_ "github.com/lib/pq"
)
