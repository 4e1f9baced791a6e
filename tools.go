//go:build tools
// +build tools

// Package tools keeps mockgen, used by the go:generate directives, tracked in go.mod.
package remind_lab

import (
	_ "go.uber.org/mock/mockgen"
)
