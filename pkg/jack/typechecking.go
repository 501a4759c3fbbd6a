package jack

import "fmt"

// The TypeChecker walks a 'jack.Program' validating that every variable reference resolves
// to a declared variable and every subroutine call names a subroutine that actually exists.
//
// It does not check argument arity or argument/return types: Jack programs compiled by the
// nand2tetris toolchain are traditionally accepted as long as names resolve, so we stick to
// the same looser guarantee rather than rejecting programs the reference implementation would
// have happily compiled.
type TypeChecker struct {
	program      Program
	scopes       ScopeTable // Keeps track of the scopes and declared variables inside each one
	currentClass string     // Name of the class currently being checked, used to resolve local calls
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program}
}

func (tc *TypeChecker) Check() (bool, error) {
	if tc.program == nil {
		return false, fmt.Errorf("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		_, err := tc.HandleClass(class)
		if err != nil {
			return false, fmt.Errorf("error handling type-check of class '%s': %w", name, err)
		}

	}

	return true, nil
}

// Specialized function to type-check a 'jack.Class' and nested fields.
func (tc *TypeChecker) HandleClass(class Class) (bool, error) {
	tc.currentClass = class.Name
	tc.scopes.PushClassScope(class.Name) // Keep track of the current scope being processed
	defer tc.scopes.PopClassScope()      // Reset the function name after processing

	for _, field := range class.Fields.Entries() {
		_, err := tc.HandleVarStmt(VarStmt{Vars: []Variable{field}})
		if err != nil {
			return false, fmt.Errorf("error handling field '%s' in class '%s': %w", field.Name, class.Name, err)
		}
	}

	for _, subroutine := range class.Subroutines.Entries() {
		_, err := tc.HandleSubroutine(subroutine)
		if err != nil {
			return false, fmt.Errorf("error handling subroutine '%s' in class '%s': %w", subroutine.Name, class.Name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Subroutine' and nested fields.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) (bool, error) {
	tc.scopes.PushSubRoutineScope(subroutine.Name) // Keep track of the current subroutine function being processed
	defer tc.scopes.PopSubroutineScope()           // Reset the function name after processing

	// We add to the current scope also all of the arguments of the subroutine
	for _, arg := range subroutine.Arguments.Entries() {
		// Like this we're actually supporting shadowing of variables, so if a variable
		// with the same name is already present in the current scope, we just temporarily
		// override it with the most update one instead of returning an error (like Go does
		tc.scopes.RegisterVariable(arg)
	}

	for _, stmt := range subroutine.Statements {
		_, err := tc.HandleStatement(stmt)
		if err != nil {
			return false, fmt.Errorf("error handling nested statement %T': %w", stmt, err)
		}
	}

	return true, nil
}

// Generalized function to type-check multiple statements types.
func (tc *TypeChecker) HandleStatement(stmt Statement) (bool, error) {
	switch tStmt := stmt.(type) {
	case VarStmt:
		return tc.HandleVarStmt(tStmt)
	case LetStmt:
		return tc.HandleLetStmt(tStmt)
	case DoStmt:
		return tc.HandleDoStmt(tStmt)
	case ReturnStmt:
		return tc.HandleReturnStmt(tStmt)
	case IfStmt:
		return tc.HandleIfStmt(tStmt)
	case WhileStmt:
		return tc.HandleWhileStmt(tStmt)
	default:
		return false, fmt.Errorf("unrecognized statement: %T", stmt)
	}
}

// Specialized function to type-check a 'jack.VarStmt', registers every declared variable.
func (tc *TypeChecker) HandleVarStmt(stmt VarStmt) (bool, error) {
	for _, v := range stmt.Vars {
		tc.scopes.RegisterVariable(v)
	}
	return true, nil
}

// Specialized function to type-check a 'jack.LetStmt', resolves both sides of the assignment.
func (tc *TypeChecker) HandleLetStmt(stmt LetStmt) (bool, error) {
	if _, err := tc.HandleExpression(stmt.Lhs); err != nil {
		return false, fmt.Errorf("error handling assignment target: %w", err)
	}

	if _, err := tc.HandleExpression(stmt.Rhs); err != nil {
		return false, fmt.Errorf("error handling assignment value: %w", err)
	}

	return true, nil
}

// Specialized function to type-check a 'jack.DoStmt', resolves the wrapped subroutine call.
func (tc *TypeChecker) HandleDoStmt(stmt DoStmt) (bool, error) {
	if _, err := tc.HandleFuncCallExpr(stmt.FuncCall); err != nil {
		return false, fmt.Errorf("error handling 'do' subroutine call: %w", err)
	}
	return true, nil
}

// Specialized function to type-check a 'jack.ReturnStmt', resolves the (optional) expression.
func (tc *TypeChecker) HandleReturnStmt(stmt ReturnStmt) (bool, error) {
	if stmt.Expr == nil {
		return true, nil
	}

	if _, err := tc.HandleExpression(stmt.Expr); err != nil {
		return false, fmt.Errorf("error handling return expression: %w", err)
	}

	return true, nil
}

// Specialized function to type-check a 'jack.IfStmt', resolves the condition and both branches.
func (tc *TypeChecker) HandleIfStmt(stmt IfStmt) (bool, error) {
	if _, err := tc.HandleExpression(stmt.Condition); err != nil {
		return false, fmt.Errorf("error handling 'if' condition: %w", err)
	}

	for _, nested := range stmt.ThenBlock {
		if _, err := tc.HandleStatement(nested); err != nil {
			return false, fmt.Errorf("error handling 'then' block: %w", err)
		}
	}

	for _, nested := range stmt.ElseBlock {
		if _, err := tc.HandleStatement(nested); err != nil {
			return false, fmt.Errorf("error handling 'else' block: %w", err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.WhileStmt', resolves the condition and the body.
func (tc *TypeChecker) HandleWhileStmt(stmt WhileStmt) (bool, error) {
	if _, err := tc.HandleExpression(stmt.Condition); err != nil {
		return false, fmt.Errorf("error handling 'while' condition: %w", err)
	}

	for _, nested := range stmt.Block {
		if _, err := tc.HandleStatement(nested); err != nil {
			return false, fmt.Errorf("error handling 'while' block: %w", err)
		}
	}

	return true, nil
}

// Generalized function to type-check any 'jack.Expression', resolving variable references.
func (tc *TypeChecker) HandleExpression(expr Expression) (bool, error) {
	switch tExpr := expr.(type) {
	case VarExpr:
		return tc.HandleVarExpr(tExpr)
	case LiteralExpr:
		return true, nil
	case ArrayExpr:
		return tc.HandleArrayExpr(tExpr)
	case UnaryExpr:
		return tc.HandleExpression(tExpr.Rhs)
	case BinaryExpr:
		if _, err := tc.HandleExpression(tExpr.Lhs); err != nil {
			return false, fmt.Errorf("error handling LHS of binary expression: %w", err)
		}
		return tc.HandleExpression(tExpr.Rhs)
	case FuncCallExpr:
		return tc.HandleFuncCallExpr(tExpr)
	default:
		return false, fmt.Errorf("unrecognized expression: %T", expr)
	}
}

// Specialized function to type-check a 'jack.VarExpr', the implicit 'this' receiver is always valid.
func (tc *TypeChecker) HandleVarExpr(expr VarExpr) (bool, error) {
	if expr.Var == "this" {
		return true, nil
	}

	if _, _, err := tc.scopes.ResolveVariable(expr.Var); err != nil {
		return false, fmt.Errorf("error resolving variable '%s': %w", expr.Var, err)
	}

	return true, nil
}

// Specialized function to type-check a 'jack.ArrayExpr', resolves both the array var and the
// index; an index whose own inferred kind is boolean or string is rejected (the operands of
// an arithmetic index expression are not inspected, nor are array elements type-tracked).
func (tc *TypeChecker) HandleArrayExpr(expr ArrayExpr) (bool, error) {
	if _, err := tc.HandleVarExpr(VarExpr{Var: expr.Var}); err != nil {
		return false, fmt.Errorf("error resolving array variable '%s': %w", expr.Var, err)
	}

	if _, err := tc.HandleExpression(expr.Index); err != nil {
		return false, fmt.Errorf("error handling array index expression: %w", err)
	}

	if kind, err := tc.inferExprKind(expr.Index); err == nil && (kind == Bool || kind == String) {
		return false, fmt.Errorf("array index for '%s' must be an int-producing expression, got '%s'", expr.Var, kind)
	}

	return true, nil
}

// Specialized function to type-check a 'jack.FuncCallExpr'.
//
// Three call forms are possible, mirroring the ones 'Lowerer.HandleFuncCallExpr' resolves:
// an instance-to-instance call within the same class, a call on a variable of an object type
// (resolved through the variable's declared class), or a call on a known class's own
// function/constructor (the 'ClassName.subroutine' form). Arity is deliberately left unchecked.
func (tc *TypeChecker) HandleFuncCallExpr(expr FuncCallExpr) (bool, error) {
	for _, arg := range expr.Arguments {
		if _, err := tc.HandleExpression(arg); err != nil {
			return false, fmt.Errorf("error handling call argument: %w", err)
		}
	}

	_, err := tc.resolveFuncCall(expr)
	return err == nil, err
}

// Resolves a 'jack.FuncCallExpr' to the 'jack.Subroutine' it targets, mirroring the call-form
// disambiguation 'Lowerer.HandleFuncCallExpr' does for codegen.
func (tc *TypeChecker) resolveFuncCall(expr FuncCallExpr) (Subroutine, error) {
	if !expr.IsExtCall {
		class, exists := tc.program[tc.currentClass]
		if !exists {
			return Subroutine{}, fmt.Errorf("class definition not found for '%s'", tc.currentClass)
		}

		routine, exists := class.Subroutines.Get(expr.FuncName)
		if !exists {
			return Subroutine{}, fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, tc.currentClass)
		}

		return routine, nil
	}

	if _, variable, err := tc.scopes.ResolveVariable(expr.Var); err == nil {
		if variable.DataType.Main != Object {
			return Subroutine{}, fmt.Errorf("variable '%s' is not an object", expr.Var)
		}

		class, exists := tc.program[variable.DataType.Subtype]
		if !exists {
			return Subroutine{}, fmt.Errorf("class definition not found for '%s'", variable.DataType.Subtype)
		}

		routine, exists := class.Subroutines.Get(expr.FuncName)
		if !exists {
			return Subroutine{}, fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, variable.DataType.Subtype)
		}

		return routine, nil
	}

	class, exists := tc.program[expr.Var]
	if !exists {
		return Subroutine{}, fmt.Errorf("class definition not found for '%s'", expr.Var)
	}

	routine, exists := class.Subroutines.Get(expr.FuncName)
	if !exists {
		return Subroutine{}, fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, expr.Var)
	}

	return routine, nil
}

// Best-effort static kind inference, used only to reject boolean/string typed array indices.
// Returns an error when the kind cannot be determined (e.g. an unresolved name); callers that
// only care about the int/bool/string distinction should treat an error as "unknown, skip".
func (tc *TypeChecker) inferExprKind(expr Expression) (DataTypeKind, error) {
	switch tExpr := expr.(type) {
	case LiteralExpr:
		return tExpr.Type.Main, nil

	case VarExpr:
		if tExpr.Var == "this" {
			return Object, nil
		}
		_, variable, err := tc.scopes.ResolveVariable(tExpr.Var)
		if err != nil {
			return "", err
		}
		return variable.DataType.Main, nil

	case ArrayExpr:
		return Int, nil // Jack doesn't track a per-element type for arrays

	case UnaryExpr:
		if tExpr.Type == BoolNot {
			return Bool, nil
		}
		return Int, nil // Negation

	case BinaryExpr:
		switch tExpr.Type {
		case BoolAnd, BoolOr, BoolNot, Equal, LessThan, GreatThan:
			return Bool, nil
		default:
			return Int, nil
		}

	case FuncCallExpr:
		routine, err := tc.resolveFuncCall(tExpr)
		if err != nil {
			return "", err
		}
		return routine.Return.Main, nil

	default:
		return "", fmt.Errorf("cannot infer static kind of %T", expr)
	}
}
