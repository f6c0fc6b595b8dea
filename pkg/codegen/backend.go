package codegen

import (
	"bytes"

	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/ir"
	"tlog.app/go/errors"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	Name() string
	// Generate takes an IR program and a configuration, and produces the target
	// assembly as a byte buffer.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
	// GenerateIR renders the form the backend feeds to its assembler stage.
	GenerateIR(prog *ir.Program, cfg *config.Config) (string, error)
}

func SelectBackend(cfg *config.Config) (Backend, error) {
	switch cfg.BackendName {
	case config.BackendNASM, "":
		return NewNASMBackend(), nil
	case config.BackendQBE:
		return NewQBEBackend(), nil
	}
	return nil, errors.New("unsupported backend %q", cfg.BackendName)
}
