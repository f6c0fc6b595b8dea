package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/ir"
	"tlog.app/go/errors"
)

// qbeBackend lowers the stack IR to QBE IL. The evaluation stack is kept on
// the Go side as a stack of temporaries, so the IL has no push or pop.
type qbeBackend struct {
	out       *strings.Builder
	prog      *ir.Program
	stack     []string
	tempCount int
	blockNum  int
}

func NewQBEBackend() Backend { return &qbeBackend{} }

func (b *qbeBackend) Name() string { return config.BackendQBE }

func (b *qbeBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (qbeIR string, err error) {
	var qbeIRBuilder strings.Builder
	b.out = &qbeIRBuilder
	b.prog = prog
	b.stack = b.stack[:0]
	b.tempCount, b.blockNum = 0, 0

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if e, ok := p.(stackError); ok {
			err = errors.New("qbe: %s", string(e))
			return
		}
		panic(p)
	}()

	b.gen()
	return qbeIRBuilder.String(), nil
}

type stackError string

func (b *qbeBackend) gen() {
	b.out.WriteString("export function w $main() {\n")
	b.out.WriteString("@start\n")
	if b.prog.FrameSize > 0 {
		fmt.Fprintf(b.out, "\t%%fb =l alloc16 %d\n", b.prog.FrameSize)
	}

	for _, inst := range b.prog.Instructions {
		b.genInstruction(inst)
	}

	b.out.WriteString("\t%status =w copy 0\n")
	b.out.WriteString("@exit\n")
	b.out.WriteString("\tcall $exit(w %status)\n")
	b.out.WriteString("\tret 0\n")
	b.out.WriteString("}\n")
}

func (b *qbeBackend) genInstruction(inst *ir.Instruction) {
	switch inst.Op {
	case ir.OpPush:
		t := b.newTemp()
		switch v := inst.Args[0].(type) {
		case *ir.Const:
			fmt.Fprintf(b.out, "\t%s =l copy %d\n", t, v.Value)
		case *ir.Slot:
			fmt.Fprintf(b.out, "\t%s =l loadl %s\n", t, b.addr(v))
		}
		b.stack = append(b.stack, t)
	case ir.OpStore:
		t := b.pop()
		fmt.Fprintf(b.out, "\tstorel %s, %s\n", t, b.addr(inst.Args[0].(*ir.Slot)))
	case ir.OpExit:
		t := b.pop()
		fmt.Fprintf(b.out, "\t%%status =w copy %s\n", t)
		b.out.WriteString("\tjmp @exit\n")
		b.blockNum++
		fmt.Fprintf(b.out, "@b%d\n", b.blockNum)
	}
}

// addr materializes the address of a slot. The alloc area is the frame, so
// frame base - off is %fb + (frame - off).
func (b *qbeBackend) addr(s *ir.Slot) string {
	a := b.newTemp()
	fmt.Fprintf(b.out, "\t%s =l add %%fb, %d\n", a, b.prog.FrameSize-s.Offset)
	return a
}

func (b *qbeBackend) newTemp() string {
	t := fmt.Sprintf("%%.%d", b.tempCount)
	b.tempCount++
	return t
}

func (b *qbeBackend) pop() string {
	if len(b.stack) == 0 {
		panic(stackError("evaluation stack underflow"))
	}
	t := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return t
}
