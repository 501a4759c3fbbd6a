package asm_test

import (
	"testing"

	"jackhack.dev/toolchain/pkg/asm"
	"jackhack.dev/toolchain/pkg/hack"
)

func TestHandleCInstDestAndJump(t *testing.T) {
	lowerer := asm.NewLowerer(asm.Program{})

	hackInst, err := lowerer.HandleCInst(asm.CInstruction{Dest: "MD", Comp: "M-1", Jump: "JMP"})
	if err != nil {
		t.Fatalf("unexpected error lowering a dest-and-jump C Instruction: %v", err)
	}

	cInst, ok := hackInst.(hack.CInstruction)
	if !ok {
		t.Fatalf("expected a 'hack.CInstruction', got %T", hackInst)
	}
	if cInst.Dest != "MD" || cInst.Comp != "M-1" || cInst.Jump != "JMP" {
		t.Fatalf("expected Dest=MD Comp=M-1 Jump=JMP, got %#v", cInst)
	}
}

func TestHandleCInstRequiresDestOrJump(t *testing.T) {
	lowerer := asm.NewLowerer(asm.Program{})

	if _, err := lowerer.HandleCInst(asm.CInstruction{Comp: "D"}); err == nil {
		t.Fatalf("expected an error lowering a C Instruction with neither 'Dest' nor 'Jump'")
	}
}
