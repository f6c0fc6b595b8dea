//go:build !windows

package codegen

import (
	"bytes"
	"strings"

	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/ir"
	"modernc.org/libqbe"
	"tlog.app/go/errors"
)

func (b *qbeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	qbeIR, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}

	var asmBuf bytes.Buffer
	err = libqbe.Main(cfg.BackendTarget, "input.ssa", strings.NewReader(qbeIR), &asmBuf, nil)
	if err != nil {
		return nil, errors.Wrap(err, "libqbe: generated IL:\n%s", qbeIR)
	}
	return &asmBuf, nil
}
