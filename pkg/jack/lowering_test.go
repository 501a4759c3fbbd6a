package jack_test

import (
	"reflect"
	"testing"

	"jackhack.dev/toolchain/pkg/jack"
	"jackhack.dev/toolchain/pkg/utils"
	"jackhack.dev/toolchain/pkg/vm"
)

// Builds a minimal single-field class with a constructor and an accessor method:
//
//	class Counter {
//	    field int count;
//	    constructor Counter new() { let count = 0; return this; }
//	    method int get() { return count; }
//	}
func minimalCounterClass() jack.Class {
	fields := utils.NewOrderedMap[string, jack.Variable]()
	fields.Set("count", jack.Variable{Name: "count", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}})

	newRoutine := jack.Subroutine{
		Name:      "new",
		Type:      jack.Constructor,
		Return:    jack.DataType{Main: jack.Object, Subtype: "Counter"},
		Arguments: utils.NewOrderedMap[string, jack.Variable](),
		Statements: []jack.Statement{
			jack.LetStmt{
				Lhs: jack.VarExpr{Var: "count"},
				Rhs: jack.LiteralExpr{Type: jack.DataType{Main: jack.Int}, Value: "0"},
			},
			jack.ReturnStmt{Expr: jack.VarExpr{Var: "this"}},
		},
	}

	getRoutine := jack.Subroutine{
		Name:      "get",
		Type:      jack.Method,
		Return:    jack.DataType{Main: jack.Int},
		Arguments: utils.NewOrderedMap[string, jack.Variable](),
		Statements: []jack.Statement{
			jack.ReturnStmt{Expr: jack.VarExpr{Var: "count"}},
		},
	}

	subroutines := utils.NewOrderedMap[string, jack.Subroutine]()
	subroutines.Set("new", newRoutine)
	subroutines.Set("get", getRoutine)

	return jack.Class{Name: "Counter", Fields: fields, Subroutines: subroutines}
}

func TestLowerMinimalClass(t *testing.T) {
	program := jack.Program{"Counter": minimalCounterClass()}

	lowerer := jack.NewLowerer(program)
	lowered, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error lowering minimal class: %v", err)
	}

	module, exists := lowered["Counter"]
	if !exists {
		t.Fatalf("expected a lowered module for class 'Counter', got modules: %v", lowered)
	}

	expected := vm.Module{
		vm.FuncDecl{Name: "Counter.new", NLocal: 0},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1},
		vm.FuncCallOp{Name: "Memory.alloc", NArgs: 1},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.This, Offset: 0},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0},
		vm.ReturnOp{},

		vm.FuncDecl{Name: "Counter.get", NLocal: 0},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.This, Offset: 0},
		vm.ReturnOp{},
	}

	if !reflect.DeepEqual(module, expected) {
		t.Errorf("lowered module for 'Counter' does not match expected operations\ngot:      %+v\nexpected: %+v", module, expected)
	}
}

// Builds a subroutine with an 'if' statement with no 'else' block and one with both
// branches, to pin down the label names/ordering produced for each shape.
func labelingClass() jack.Class {
	condition := jack.BinaryExpr{
		Type: jack.GreatThan,
		Lhs:  jack.VarExpr{Var: "x"},
		Rhs:  jack.LiteralExpr{Type: jack.DataType{Main: jack.Int}, Value: "0"},
	}

	pick := jack.Subroutine{
		Name: "pick",
		Type: jack.Function,
		Return: jack.DataType{Main: jack.Int},
		Arguments: func() utils.OrderedMap[string, jack.Variable] {
			args := utils.NewOrderedMap[string, jack.Variable]()
			args.Set("x", jack.Variable{Name: "x", VarType: jack.Parameter, DataType: jack.DataType{Main: jack.Int}})
			return args
		}(),
		Statements: []jack.Statement{
			jack.IfStmt{
				Condition: condition,
				ThenBlock: []jack.Statement{
					jack.ReturnStmt{Expr: jack.LiteralExpr{Type: jack.DataType{Main: jack.Int}, Value: "1"}},
				},
			},
			jack.IfStmt{
				Condition: condition,
				ThenBlock: []jack.Statement{
					jack.ReturnStmt{Expr: jack.LiteralExpr{Type: jack.DataType{Main: jack.Int}, Value: "2"}},
				},
				ElseBlock: []jack.Statement{
					jack.ReturnStmt{Expr: jack.LiteralExpr{Type: jack.DataType{Main: jack.Int}, Value: "3"}},
				},
			},
			jack.ReturnStmt{Expr: jack.LiteralExpr{Type: jack.DataType{Main: jack.Int}, Value: "0"}},
		},
	}

	subroutines := utils.NewOrderedMap[string, jack.Subroutine]()
	subroutines.Set("pick", pick)

	return jack.Class{Name: "Picker", Fields: utils.NewOrderedMap[string, jack.Variable](), Subroutines: subroutines}
}

func TestLowerIfElseLabeling(t *testing.T) {
	program := jack.Program{"Picker": labelingClass()}

	lowerer := jack.NewLowerer(program)
	lowered, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error lowering labeling class: %v", err)
	}

	module, exists := lowered["Picker"]
	if !exists {
		t.Fatalf("expected a lowered module for class 'Picker', got modules: %v", lowered)
	}

	condOps := []vm.Operation{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0},
		vm.ArithmeticOp{Operation: vm.Gt},
	}

	expected := vm.Module{vm.FuncDecl{Name: "Picker.pick", NLocal: 0}}

	// First 'if' has no 'else' block, the randomizer starts at 0 and advances by 1.
	expected = append(expected, condOps...)
	expected = append(expected,
		vm.ArithmeticOp{Operation: vm.Not},
		vm.GotoOp{Label: "ELSE_0", Jump: vm.Conditional},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1},
		vm.ReturnOp{},
		vm.LabelDecl{Name: "ELSE_0"},
	)

	// Second 'if' has both branches, the randomizer is now at 1 and advances by 3.
	expected = append(expected, condOps...)
	expected = append(expected,
		vm.GotoOp{Label: "THEN_1", Jump: vm.Conditional},
		vm.GotoOp{Label: "ELSE_2", Jump: vm.Unconditional},
		vm.LabelDecl{Name: "THEN_1"},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 2},
		vm.ReturnOp{},
		vm.GotoOp{Label: "END_3", Jump: vm.Unconditional},
		vm.LabelDecl{Name: "ELSE_2"},
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 3},
		vm.ReturnOp{},
		vm.LabelDecl{Name: "END_3"},
	)

	expected = append(expected,
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0},
		vm.ReturnOp{},
	)

	if !reflect.DeepEqual(module, expected) {
		t.Errorf("lowered module for 'Picker' does not match expected operations\ngot:      %+v\nexpected: %+v", module, expected)
	}
}
