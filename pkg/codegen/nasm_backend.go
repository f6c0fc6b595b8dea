package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/ir"
)

// registers is the calling convention of the generated program. It is fixed
// for the whole compilation.
type registers struct {
	frameBase string
	stackPtr  string
	scratch   string
	status    string
	sysno     string
}

var amd64Linux = registers{
	frameBase: "rbp",
	stackPtr:  "rsp",
	scratch:   "rax",
	status:    "rdi",
	sysno:     "rax",
}

const (
	sysExit    = 60
	entryLabel = "_start"
	exitLabel  = "_exit"
)

type nasmBackend struct {
	out  *bytes.Buffer
	regs registers
}

func NewNASMBackend() Backend { return newNASMBackend() }

func newNASMBackend() *nasmBackend { return &nasmBackend{regs: amd64Linux} }

func (b *nasmBackend) Name() string { return config.BackendNASM }

func (b *nasmBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	return b.emit(prog), nil
}

func (b *nasmBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	return prog.String(), nil
}

func (b *nasmBackend) emit(prog *ir.Program) *bytes.Buffer {
	b.out = new(bytes.Buffer)
	r := b.regs

	fmt.Fprintf(b.out, "global %s\n", entryLabel)
	b.out.WriteString("section .text\n")
	fmt.Fprintf(b.out, "%s:\n", entryLabel)
	b.ins("mov %s, %s", r.frameBase, r.stackPtr)
	if prog.FrameSize > 0 {
		b.ins("sub %s, %d", r.stackPtr, prog.FrameSize)
	}

	for _, inst := range prog.Instructions {
		b.genInstruction(inst)
	}

	// falling off the end exits with status 0
	b.ins("mov %s, 0", r.status)
	fmt.Fprintf(b.out, "%s:\n", exitLabel)
	b.ins("mov %s, %s", r.stackPtr, r.frameBase)
	b.ins("mov %s, %d", r.sysno, sysExit)
	b.ins("syscall")

	return b.out
}

func (b *nasmBackend) genInstruction(inst *ir.Instruction) {
	r := b.regs

	switch inst.Op {
	case ir.OpPush:
		switch v := inst.Args[0].(type) {
		case *ir.Const:
			b.ins("mov %s, %d", r.scratch, v.Value)
		case *ir.Slot:
			b.ins("mov %s, %s", r.scratch, b.addr(v))
		}
		b.ins("push %s", r.scratch)
	case ir.OpStore:
		b.ins("pop %s", r.scratch)
		b.ins("mov %s, %s", b.addr(inst.Args[0].(*ir.Slot)), r.scratch)
	case ir.OpExit:
		b.ins("pop %s", r.status)
		b.ins("jmp %s", exitLabel)
	}
}

func (b *nasmBackend) addr(s *ir.Slot) string {
	return fmt.Sprintf("[%s - %d]", b.regs.frameBase, s.Offset)
}

func (b *nasmBackend) ins(format string, args ...interface{}) {
	b.out.WriteString("    ")
	fmt.Fprintf(b.out, format, args...)
	b.out.WriteByte('\n')
}
