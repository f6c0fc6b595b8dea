package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramString(t *testing.T) {
	x := &Slot{Name: "x", Offset: 8}

	p := &Program{FrameSize: 16, WordSize: 8}
	p.Push(&Const{Value: 5})
	p.Store(x)
	p.Push(x)
	p.Exit()

	assert.Equal(t, "; frame 16, word 8\n\tpush 5\n\tstore x[fb-8]\n\tpush x[fb-8]\n\texit\n", p.String())
}

func TestEffectBalances(t *testing.T) {
	p := &Program{}
	p.Push(&Const{Value: 1})
	p.Store(&Slot{Name: "a", Offset: 8})
	p.Push(&Const{Value: 2})
	p.Exit()

	depth := 0
	for _, inst := range p.Instructions {
		depth += inst.Effect()
		assert.GreaterOrEqual(t, depth, 0, "%v", inst)
	}
	assert.Zero(t, depth)

	assert.Equal(t, "op(9)", Op(9).String())
}
