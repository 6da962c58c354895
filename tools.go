//go:build tools

// Package tools pins the versions of the development binaries: mockgen for
// the go:generate directives under pkg/domain, plus the linters run in CI.
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "go.uber.org/mock/mockgen"
	_ "golang.org/x/tools/cmd/goimports"
	_ "golang.org/x/vuln/cmd/govulncheck"
)
