package ir

import (
	"fmt"
	"strings"
)

type Op int

const (
	OpPush  Op = iota // push Args[0]
	OpStore           // pop into Args[0]
	OpExit            // pop into the exit status and terminate
)

func (o Op) String() string {
	switch o {
	case OpPush:
		return "push"
	case OpStore:
		return "store"
	case OpExit:
		return "exit"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

type Type int

const (
	TypeNone Type = iota
	TypeL         // long (64-bit)
)

type Value interface {
	isValue()
	String() string
}

type Const struct{ Value int64 }

// Slot is a variable's storage at frame base - Offset.
type Slot struct {
	Name   string
	Offset int
}

func (c *Const) isValue() {}
func (s *Slot) isValue()  {}

func (c *Const) String() string { return fmt.Sprint(c.Value) }
func (s *Slot) String() string  { return fmt.Sprintf("%s[fb-%d]", s.Name, s.Offset) }

type Instruction struct {
	Op   Op
	Typ  Type
	Args []Value
}

func (i *Instruction) String() string {
	if len(i.Args) == 0 {
		return i.Op.String()
	}
	args := make([]string, len(i.Args))
	for n, a := range i.Args {
		args[n] = a.String()
	}
	return i.Op.String() + " " + strings.Join(args, ", ")
}

// Effect is how many values the instruction adds to the evaluation stack.
func (i *Instruction) Effect() int {
	switch i.Op {
	case OpPush:
		return 1
	case OpStore, OpExit:
		return -1
	}
	return 0
}

// Program is a flat instruction stream under a single entry point.
type Program struct {
	Instructions []*Instruction
	FrameSize    int
	WordSize     int
}

func (p *Program) Push(v Value) {
	p.Instructions = append(p.Instructions, &Instruction{Op: OpPush, Typ: TypeL, Args: []Value{v}})
}

func (p *Program) Store(s *Slot) {
	p.Instructions = append(p.Instructions, &Instruction{Op: OpStore, Typ: TypeL, Args: []Value{s}})
}

func (p *Program) Exit() {
	p.Instructions = append(p.Instructions, &Instruction{Op: OpExit, Typ: TypeL})
}

func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; frame %d, word %d\n", p.FrameSize, p.WordSize)
	for _, inst := range p.Instructions {
		fmt.Fprintf(&sb, "\t%s\n", inst)
	}
	return sb.String()
}
