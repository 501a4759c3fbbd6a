package vm

import (
	"fmt"
	"sort"
	"strings"

	"jackhack.dev/toolchain/pkg/asm"
)

// Resolves a segment to the asm instructions that load its base location into 'D', ready to
// be added to a constant offset. Segments that sit behind a pointer (local, argument, this,
// that) dereference the pointer register; pointer/temp are fixed RAM locations addressed
// directly, so their base is loaded with 'D=A' rather than 'D=M'.
var segmentBase = map[SegmentType][]asm.Statement{
	Local:    {asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "D", Comp: "M"}},
	Argument: {asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "D", Comp: "M"}},
	This:     {asm.AInstruction{Location: "THIS"}, asm.CInstruction{Dest: "D", Comp: "M"}},
	That:     {asm.AInstruction{Location: "THAT"}, asm.CInstruction{Dest: "D", Comp: "M"}},
	Pointer:  {asm.AInstruction{Location: "3"}, asm.CInstruction{Dest: "D", Comp: "A"}},
	Temp:     {asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "D", Comp: "A"}},
}

// Specialized helper, appends the instructions needed to push whatever value currently
// sits in the 'D' register onto the top of the stack, incrementing the Stack Pointer.
var pushD = []asm.Statement{
	asm.AInstruction{Location: "SP"},
	asm.CInstruction{Dest: "A", Comp: "M"},
	asm.CInstruction{Dest: "M", Comp: "D"},
	asm.AInstruction{Location: "SP"},
	asm.CInstruction{Dest: "M", Comp: "M+1"},
}

// Specialized helper, appends the instructions needed to pop the value on top of the
// stack into the 'D' register, decrementing the Stack Pointer.
var popD = []asm.Statement{
	asm.AInstruction{Location: "SP"},
	asm.CInstruction{Dest: "AM", Comp: "M-1"},
	asm.CInstruction{Dest: "D", Comp: "M"},
}

// Table of comparison operations, maps each one to the Hack jump mnemonic used to decide
// whether the comparison holds once the operands have been subtracted into 'D'.
var comparisonJump = map[ArithOpType]string{
	Eq: "JEQ",
	Gt: "JGT",
	Lt: "JLT",
}

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' (one or more translation units) and produces the
// 'asm.Program' that implements the Hack calling convention for it.
//
// Translation units are visited in a deterministic (lexicographically sorted) order so
// that the same input always produces byte-identical output, since Go map iteration order
// is randomized and this program is keyed by module/class name. Comparison and call-site
// labels are numbered from a single counter shared across every module, mirroring a VM
// translator emitting one continuous .asm stream for the whole program.
type Lowerer struct {
	program         Program
	counter         int    // Monotonic counter, shared by comparison and call-site labels
	currentFunction string // Name of the function currently being lowered, empty at top level
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program 'p' to be not nil.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Triggers the lowering process, translating every operation of every module (in sorted
// module-name order) into its Hack assembly counterpart.
func (l *Lowerer) Lower() (asm.Program, error) {
	if l.program == nil || len(l.program) == 0 {
		return nil, fmt.Errorf("the given 'program' is empty")
	}

	names := make([]string, 0, len(l.program))
	for name := range l.program {
		names = append(names, name)
	}
	sort.Strings(names)

	result := asm.Program{}
	for _, name := range names {
		className := strings.TrimSuffix(name, ".vm")
		l.currentFunction = ""

		for _, operation := range l.program[name] {
			stmts, err := l.lowerOperation(className, operation)
			if err != nil {
				return nil, err
			}
			result = append(result, stmts...)
		}
	}

	return result, nil
}

// Dispatches a single 'vm.Operation' to its specialized handler based on its concrete type.
func (l *Lowerer) lowerOperation(className string, operation Operation) ([]asm.Statement, error) {
	switch op := operation.(type) {
	case MemoryOp:
		return l.lowerMemoryOp(className, op)
	case ArithmeticOp:
		return l.lowerArithmeticOp(op)
	case LabelDecl:
		return l.lowerLabelDecl(op)
	case GotoOp:
		return l.lowerGotoOp(op)
	case FuncDecl:
		return l.lowerFuncDecl(op)
	case FuncCallOp:
		return l.lowerFuncCallOp(op)
	case ReturnOp:
		return l.lowerReturnOp(op)
	default:
		return nil, fmt.Errorf("unrecognized operation '%T'", operation)
	}
}

// Mangles a VM-level label the same way the original translator does: labels declared
// inside a function are only visible inside it, so they're namespaced as 'Function$Label'.
// Labels at the top level (outside any function) are emitted as-is.
func (l *Lowerer) mangle(label string) string {
	if l.currentFunction == "" {
		return label
	}
	return fmt.Sprintf("%s$%s", l.currentFunction, label)
}

// Converts a 'push'/'pop' memory operation to its Hack assembly counterpart.
func (l *Lowerer) lowerMemoryOp(className string, op MemoryOp) ([]asm.Statement, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}

	switch op.Operation {
	case Push:
		return l.lowerPush(className, op.Segment, op.Offset)
	case Pop:
		return l.lowerPop(className, op.Segment, op.Offset)
	default:
		return nil, fmt.Errorf("unrecognized OperationType '%s'", op.Operation)
	}
}

func (l *Lowerer) lowerPush(className string, segment SegmentType, offset uint16) ([]asm.Statement, error) {
	switch segment {
	case Constant:
		stmts := []asm.Statement{
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}
		return append(stmts, pushD...), nil

	case Static:
		stmts := []asm.Statement{
			asm.AInstruction{Location: fmt.Sprintf("%s.%d", className, offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
		return append(stmts, pushD...), nil

	case Local, Argument, This, That, Pointer, Temp:
		base, found := segmentBase[segment]
		if !found {
			return nil, fmt.Errorf("unrecognized segment '%s'", segment)
		}
		stmts := append([]asm.Statement{}, base...)
		stmts = append(stmts,
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "A", Comp: "D+A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
		)
		return append(stmts, pushD...), nil

	default:
		return nil, fmt.Errorf("unrecognized segment '%s'", segment)
	}
}

func (l *Lowerer) lowerPop(className string, segment SegmentType, offset uint16) ([]asm.Statement, error) {
	switch segment {
	case Constant:
		return nil, fmt.Errorf("unable to 'pop' into the 'constant' segment")

	case Static:
		stmts := append([]asm.Statement{}, popD...)
		return append(stmts, asm.AInstruction{Location: fmt.Sprintf("%s.%d", className, offset)},
			asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Local, Argument, This, That, Pointer, Temp:
		base, found := segmentBase[segment]
		if !found {
			return nil, fmt.Errorf("unrecognized segment '%s'", segment)
		}
		stmts := append([]asm.Statement{}, base...)
		stmts = append(stmts,
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "D+A"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
		stmts = append(stmts, popD...)
		stmts = append(stmts,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
		return stmts, nil

	default:
		return nil, fmt.Errorf("unrecognized segment '%s'", segment)
	}
}

// Converts an arithmetic/logical/comparison operation to its Hack assembly counterpart.
func (l *Lowerer) lowerArithmeticOp(op ArithmeticOp) ([]asm.Statement, error) {
	switch op.Operation {
	case Add:
		return binaryOp("D+M"), nil
	case Sub:
		return binaryOp("M-D"), nil
	case And:
		return binaryOp("D&M"), nil
	case Or:
		return binaryOp("D|M"), nil
	case Neg:
		return unaryOp("-M"), nil
	case Not:
		return unaryOp("!M"), nil
	case Eq, Gt, Lt:
		return l.comparisonOp(op.Operation)
	default:
		return nil, fmt.Errorf("unrecognized ArithOpType '%s'", op.Operation)
	}
}

// Binary ops pop the top of the stack into 'D', then combine it with the new top ('M')
// in place, leaving the result on top of the stack without touching the Stack Pointer again.
func binaryOp(comp string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// Unary ops operate directly on the value on top of the stack, no pop/push needed.
func unaryOp(comp string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// Comparison ops subtract the two operands and jump to one of two generated labels
// depending on the outcome, writing -1 (true) or 0 (false) back to the top of the stack.
func (l *Lowerer) comparisonOp(op ArithOpType) ([]asm.Statement, error) {
	jump, found := comparisonJump[op]
	if !found {
		return nil, fmt.Errorf("unrecognized comparison operator '%s'", op)
	}

	trueLabel := fmt.Sprintf("TRUE%d", l.counter)
	falseLabel := fmt.Sprintf("FALSE%d", l.counter)
	l.counter++

	stmts := append([]asm.Statement{}, popD...)
	stmts = append(stmts,
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: falseLabel},
		asm.CInstruction{Dest: "D", Comp: "0"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.CInstruction{Dest: "D", Comp: "-1"},
		asm.LabelDecl{Name: falseLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)
	return stmts, nil
}

func (l *Lowerer) lowerLabelDecl(op LabelDecl) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty label declaration")
	}
	return []asm.Statement{asm.LabelDecl{Name: l.mangle(op.Name)}}, nil
}

func (l *Lowerer) lowerGotoOp(op GotoOp) ([]asm.Statement, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to produce empty jump label")
	}

	target := l.mangle(op.Label)
	if op.Jump == Unconditional {
		return []asm.Statement{
			asm.AInstruction{Location: target},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	stmts := append([]asm.Statement{}, popD...)
	return append(stmts,
		asm.AInstruction{Location: target},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	), nil
}

// Emits the function's entrypoint label followed by zero-initialization of its locals.
func (l *Lowerer) lowerFuncDecl(op FuncDecl) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function declaration")
	}

	l.currentFunction = op.Name
	stmts := []asm.Statement{asm.LabelDecl{Name: op.Name}}
	for i := uint8(0); i < op.NLocal; i++ {
		push, _ := l.lowerPush("", Constant, 0)
		stmts = append(stmts, push...)
	}
	return stmts, nil
}

// Implements the 'call' side of the calling convention: pushes a return address and the
// caller's saved segment pointers, repositions ARG/LCL for the callee, then jumps to it.
func (l *Lowerer) lowerFuncCallOp(op FuncCallOp) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function call")
	}

	returnLabel := fmt.Sprintf("%s$ret.%d", op.Name, l.counter)
	l.counter++

	stmts := []asm.Statement{
		asm.AInstruction{Location: returnLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	stmts = append(stmts, pushD...)
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		stmts = append(stmts,
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: "D", Comp: "M"},
		)
		stmts = append(stmts, pushD...)
	}

	// ARG = SP - NArgs - 5 (skip over the 5 saved words we just pushed)
	stmts = append(stmts,
		asm.AInstruction{Location: fmt.Sprint(op.NArgs)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "D", Comp: "D+A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// goto Name
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: returnLabel},
	)

	return stmts, nil
}

// Implements the 'return' side of the calling convention: restores the caller's saved
// segment pointers from the callee's frame and jumps back to the return address.
func (l *Lowerer) lowerReturnOp(ReturnOp) ([]asm.Statement, error) {
	stmts := []asm.Statement{
		// R14 (FRAME) = LCL
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// R15 (RET) = *(FRAME - 5)
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R15"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
	// *ARG = pop()
	stmts = append(stmts, popD...)
	stmts = append(stmts,
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// THAT = *(FRAME-1), THIS = *(FRAME-2), ARG = *(FRAME-3), LCL = *(FRAME-4)
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THAT"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THIS"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// goto RET
		asm.AInstruction{Location: "R15"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
	return stmts, nil
}
