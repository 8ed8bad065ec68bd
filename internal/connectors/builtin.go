package connectors

import (
	"github.com/custodia-labs/sercha-extract/internal/connectors/dropbox"
	"github.com/custodia-labs/sercha-extract/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-extract/internal/connectors/github"
	"github.com/custodia-labs/sercha-extract/internal/connectors/google/drive"
	"github.com/custodia-labs/sercha-extract/internal/connectors/notion"
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// RegisterBuiltins registers every bundled connector.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		connectorType domain.ConnectorType
		build         driven.ConnectorBuilder
	}{
		{github.ConnectorType(), github.Build},
		{drive.ConnectorType(), drive.Build},
		{dropbox.ConnectorType(), dropbox.Build},
		{notion.ConnectorType(), notion.Build},
		{filesystem.ConnectorType(), filesystem.Build},
	}
	for _, b := range builtins {
		if err := r.Register(b.connectorType, b.build); err != nil {
			return err
		}
	}
	return nil
}

// NewBuiltinRegistry returns a registry with every bundled connector.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	return r
}
