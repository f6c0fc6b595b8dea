//go:build windows

package codegen

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/ir"
	"tlog.app/go/errors"
)

// Generate shells out to the system qbe where libqbe is unavailable.
func (b *qbeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	if _, err := exec.LookPath("qbe"); err != nil {
		return nil, errors.Wrap(err, "qbe not found in PATH")
	}

	qbeIR, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}

	inputFile, err := os.CreateTemp("", "pnc-qbe-*.ssa")
	if err != nil {
		return nil, err
	}
	defer os.Remove(inputFile.Name())
	defer inputFile.Close()

	if _, err = inputFile.WriteString(qbeIR); err != nil {
		return nil, err
	}

	var asmBuf, stderr bytes.Buffer
	cmd := exec.Command("qbe", "-t", cfg.BackendTarget, inputFile.Name())
	cmd.Stdout, cmd.Stderr = &asmBuf, &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, "qbe: %s\ngenerated IL:\n%s", stderr.String(), qbeIR)
	}

	return &asmBuf, nil
}
