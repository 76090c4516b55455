//go:build tools
// +build tools

// Package pairchat pins the tools run by go generate (mockgen) in go.mod.
package pairchat

import (
	_ "go.uber.org/mock/mockgen"
)
