package jack

import (
	"fmt"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"
	"jackhack.dev/toolchain/pkg/utils"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every construct of the Jack language.
//
// The Jack grammar is recursive (an expression may contain a parenthesized expression,
// a statement block may contain nested statement blocks), which the two forward-declared
// parsers below ('pExpr' and 'pStatement') resolve: they're assigned their real definition
// only after every other combinator that references them has already been built, while a
// thin wrapper closure defers the actual call until parse time (by then 'pExpr'/'pStatement'
// hold their final value).

var ast = pc.NewAST("jack_program", 0)

var pExpr pc.Parser
var pStatement pc.Parser
var pTerm pc.Parser

func pExprFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner)      { return pExpr(s) }
func pStatementFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return pStatement(s) }
func pTermFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner)      { return pTerm(s) }

var (
	pClass = ast.And("class_decl", nil,
		pc.Atom("class", "CLASS"), pIdent, pLBrace,
		ast.Kleene("class_vars", nil, pClassVarDec),
		ast.Kleene("subroutines", nil, pSubroutineDec),
		pRBrace,
	)

	pClassVarDec = ast.And("class_var_dec", nil,
		pVarScope, pDataType, pIdent, ast.Kleene("more_vars", nil, pIdent, pComma), pSemi,
	)

	pVarScope = ast.OrdChoice("var_scope", nil, pc.Atom("static", "STATIC"), pc.Atom("field", "FIELD"))

	pSubroutineDec = ast.And("subroutine_dec", nil,
		pSubroutineKind, pReturnType, pIdent,
		pLParen, ast.Kleene("params", nil, pParam, pComma), pRParen,
		pLBrace,
		ast.Kleene("var_decs", nil, pVarDec),
		ast.Kleene("statements", nil, pStatementFwd),
		pRBrace,
	)

	pSubroutineKind = ast.OrdChoice("subroutine_kind", nil,
		pc.Atom("constructor", "CONSTRUCTOR"), pc.Atom("function", "FUNCTION"), pc.Atom("method", "METHOD"),
	)

	pReturnType = ast.OrdChoice("return_type", nil, pc.Atom("void", "VOID"), pDataType)

	pParam = ast.And("param", nil, pDataType, pIdent)

	pVarDec = ast.And("var_dec", nil,
		pc.Atom("var", "VAR"), pDataType, pIdent, ast.Kleene("more_vars", nil, pIdent, pComma), pSemi,
	)
)

var (
	pLetStmt = ast.And("let_stmt", nil,
		pc.Atom("let", "LET"), pIdent, ast.Maybe("maybe_index", nil, pArrayIndex),
		pc.Atom("=", "EQ"), pExprFwd, pSemi,
	)

	pArrayIndex = ast.And("array_index", nil, pLBracket, pExprFwd, pRBracket)

	pIfStmt = ast.And("if_stmt", nil,
		pc.Atom("if", "IF"), pLParen, pExprFwd, pRParen,
		pLBrace, ast.Kleene("then_block", nil, pStatementFwd), pRBrace,
		ast.Maybe("maybe_else", nil, pElseBlock),
	)

	pElseBlock = ast.And("else_block", nil,
		pc.Atom("else", "ELSE"), pLBrace, ast.Kleene("else_stmts", nil, pStatementFwd), pRBrace,
	)

	pWhileStmt = ast.And("while_stmt", nil,
		pc.Atom("while", "WHILE"), pLParen, pExprFwd, pRParen,
		pLBrace, ast.Kleene("block", nil, pStatementFwd), pRBrace,
	)

	pDoStmt = ast.And("do_stmt", nil, pc.Atom("do", "DO"), pSubroutineCall, pSemi)

	pReturnStmt = ast.And("return_stmt", nil, pc.Atom("return", "RETURN"), ast.Maybe("maybe_expr", nil, pExprFwd), pSemi)

	// A subroutine call is either local ('foo(...)') or qualified ('obj.foo(...)' /
	// 'Class.foo(...)'); the qualifier is what disambiguates the three call forms at
	// lowering time (see 'jack.Lowerer.HandleFuncCallExpr').
	pSubroutineCall = ast.And("subroutine_call", nil,
		pIdent, ast.Maybe("maybe_qualifier", nil, pQualifier),
		pLParen, ast.Kleene("args", nil, pExprFwd, pComma), pRParen,
	)

	pQualifier = ast.And("qualifier", nil, pDot, pIdent)
)

var (
	// No-precedence, left-to-right expression grammar: 'expression = term (op term)*',
	// folded left-associatively during lowering regardless of the operator in play.
	pExprDef = ast.And("expression", nil, pTermFwd, ast.Kleene("more_terms", nil, pOpTerm))
	pOpTerm  = ast.And("op_term", nil, pOp, pTermFwd)

	pOp = ast.OrdChoice("op", nil,
		pc.Atom("+", "PLUS"), pc.Atom("-", "MINUS"), pc.Atom("*", "STAR"), pc.Atom("/", "SLASH"),
		pc.Atom("&", "AMP"), pc.Atom("|", "PIPE"), pc.Atom("<", "LT"), pc.Atom(">", "GT"), pc.Atom("=", "EQ"),
	)

	// ! Float() before Int(): Int() would otherwise swallow the integer part of a float
	// ! and hand back control before the fractional part is consumed.
	pTermDef = ast.OrdChoice("term", nil,
		pUnaryTerm, pParenExpr, pKeywordConst, pStringLit, pc.Float(), pc.Int(), pIdentTerm,
	)

	pUnaryTerm = ast.And("unary_term", nil, pUnaryOp, pTermFwd)
	pUnaryOp   = ast.OrdChoice("unary_op", nil, pc.Atom("-", "NEG"), pc.Atom("~", "NOT"))

	pParenExpr = ast.And("paren_expr", nil, pLParen, pExprFwd, pRParen)

	pKeywordConst = ast.OrdChoice("keyword_const", nil,
		pc.Atom("true", "TRUE"), pc.Atom("false", "FALSE"), pc.Atom("null", "NULL"), pc.Atom("this", "THIS"),
	)

	// Empty strings are accepted: the quantifier on the inner group is '*', not '+'.
	pStringLit = pc.Token(`"(?:\\.|[^"\\])*"`, "STRING")

	// A bare identifier that may be followed by an array index or a call's argument list
	// (possibly qualified); disambiguated at lowering time based on which suffix matched.
	pIdentTerm = ast.And("ident_term", nil, pIdent, ast.Maybe("maybe_suffix", nil, pIdentSuffix))

	pIdentSuffix = ast.OrdChoice("ident_suffix", nil, pArrayIndex, pCallSuffix)

	pCallSuffix = ast.And("call_suffix", nil,
		ast.Maybe("maybe_qualifier", nil, pQualifier),
		pLParen, ast.Kleene("args", nil, pExprFwd, pComma), pRParen,
	)
)

func init() {
	pTerm = pTermDef
	pStatement = ast.OrdChoice("statement", nil, pLetStmt, pIfStmt, pWhileStmt, pDoStmt, pReturnStmt)
	pExpr = pExprDef
}

var (
	// Generic Identifier parser (for class, subroutine and variable names)
	// NOTE: An ident can be any sequence of letters, digits, and symbols (_, $).
	// NOTE: An ident cannot begin with a leading digit (a symbol is indeed allowed).
	pIdent = pc.Token(`[A-Za-z_$][0-9a-zA-Z_$]*`, "IDENT")

	pDot      = pc.Atom(".", "DOT")
	pSemi     = pc.Atom(";", "SEMI")
	pComma    = pc.Atom(",", "COMMA")
	pLBrace   = pc.Atom("{", "LBRACE")
	pRBrace   = pc.Atom("}", "RBRACE")
	pLParen   = pc.Atom("(", "LPAREN")
	pRParen   = pc.Atom(")", "RPAREN")
	pLBracket = pc.Atom("[", "LBRACKET")
	pRBracket = pc.Atom("]", "RBRACKET")

	// Every primitive data type allowed plus a fallback to a class name (object type).
	pDataType = ast.OrdChoice("data_type", nil,
		pc.Atom("int", "INT"), pc.Atom("char", "CHAR"), pc.Atom("boolean", "BOOLEAN"), pIdent,
	)
)

// ----------------------------------------------------------------------------
// Jack Parser

// This section defines the Parser for the nand2tetris Jack language.
//
// It uses parser combinators to obtain the AST from the source code (the latter can be provided)
// in multiple ways using a generic io.Reader, the library reads up the feature flags (as env vars):
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint divides the 2 phases of the parsing pipeline
// Text --> AST: This step is done using PCs and returns a generic traversable AST
// AST --> IR: This step is done by traversing the AST and extracting the 'jack.Class'
func (p *Parser) Parse() (Class, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Class{}, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	root, success := p.FromSource(content)
	if !success {
		return Class{}, fmt.Errorf("failed to parse AST from input content")
	}

	return p.FromAST(root)
}

// Scans the textual input stream coming from the 'reader' method and returns a traversable AST
// (Abstract Syntax Tree) that can be eventually visited to extract/transform the info available.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {

	// Feature flag: Enable 'goparsec' library's debug logs
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	// We generate the traversable Abstract Syntax Tree from the source content
	root, _ := ast.Parsewith(pClass, pc.NewScanner(source))

	// Feature flag: Enables export of the AST as Dot file (debug.ast.fot)
	if os.Getenv("EXPORT_AST") != "" {
		file, _ := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER")))
		defer file.Close()

		file.Write([]byte(ast.Dotstring("\"Jack AST\"")))
	}

	// Feature flag: Enables pretty printing of the AST on the console
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, root != nil
}

// This function takes the root node of the raw parsed AST and does a DFS on it parsing
// one by one each subtree and returning a 'jack.Class' that can be used as in-memory and
// type-safe AST not dependent on the parsing library used.
func (p *Parser) FromAST(root pc.Queryable) (Class, error) {
	if root.GetName() != "class_decl" {
		return Class{}, fmt.Errorf("expected node 'class_decl', found %s", root.GetName())
	}

	children := root.GetChildren()
	if len(children) != 6 {
		return Class{}, fmt.Errorf("expected node 'class_decl' with 6 children, got %d", len(children))
	}

	class := Class{
		Name:        children[1].GetValue(),
		Fields:      utils.NewOrderedMap[string, Variable](),
		Subroutines: utils.NewOrderedMap[string, Subroutine](),
	}

	for _, node := range children[3].GetChildren() { // class_vars
		vars, err := p.HandleClassVarDec(node)
		if err != nil {
			return Class{}, fmt.Errorf("error handling field declaration: %w", err)
		}
		for _, v := range vars {
			class.Fields.Set(v.Name, v)
		}
	}

	for _, node := range children[4].GetChildren() { // subroutines
		subroutine, err := p.HandleSubroutineDec(node)
		if err != nil {
			return Class{}, fmt.Errorf("error handling subroutine declaration: %w", err)
		}
		class.Subroutines.Set(subroutine.Name, subroutine)
	}

	return class, nil
}

// Specialized function to convert a "class_var_dec" node to a list of 'jack.Variable'.
func (Parser) HandleClassVarDec(node pc.Queryable) ([]Variable, error) {
	if node.GetName() != "class_var_dec" {
		return nil, fmt.Errorf("expected node 'class_var_dec', found %s", node.GetName())
	}

	children := node.GetChildren()
	scope, dataType := VarType(children[0].GetValue()), parseDataType(children[1].GetValue())

	variables := []Variable{{Name: children[2].GetValue(), VarType: scope, DataType: dataType}}
	for _, ident := range children[3].GetChildren() { // more_vars
		variables = append(variables, Variable{Name: ident.GetValue(), VarType: scope, DataType: dataType})
	}

	return variables, nil
}

// Specialized function to convert a "var_dec" node to a list of 'jack.Variable'.
func (Parser) HandleVarDec(node pc.Queryable) ([]Variable, error) {
	if node.GetName() != "var_dec" {
		return nil, fmt.Errorf("expected node 'var_dec', found %s", node.GetName())
	}

	children := node.GetChildren()
	dataType := parseDataType(children[1].GetValue())

	variables := []Variable{{Name: children[2].GetValue(), VarType: Local, DataType: dataType}}
	for _, ident := range children[3].GetChildren() { // more_vars
		variables = append(variables, Variable{Name: ident.GetValue(), VarType: Local, DataType: dataType})
	}

	return variables, nil
}

// Specialized function to convert a "param" node to a 'jack.Variable'.
func (Parser) HandleParam(node pc.Queryable) (Variable, error) {
	if node.GetName() != "param" {
		return Variable{}, fmt.Errorf("expected node 'param', found %s", node.GetName())
	}

	children := node.GetChildren()
	return Variable{Name: children[1].GetValue(), VarType: Parameter, DataType: parseDataType(children[0].GetValue())}, nil
}

// Specialized function to convert a "subroutine_dec" node to a 'jack.Subroutine'.
func (p Parser) HandleSubroutineDec(node pc.Queryable) (Subroutine, error) {
	if node.GetName() != "subroutine_dec" {
		return Subroutine{}, fmt.Errorf("expected node 'subroutine_dec', found %s", node.GetName())
	}

	children := node.GetChildren()
	if len(children) != 10 {
		return Subroutine{}, fmt.Errorf("expected node 'subroutine_dec' with 10 children, got %d", len(children))
	}

	subroutine := Subroutine{
		Name:      children[2].GetValue(),
		Type:      SubroutineType(children[0].GetValue()),
		Return:    parseReturnType(children[1].GetValue()),
		Arguments: utils.NewOrderedMap[string, Variable](),
	}

	for _, node := range children[4].GetChildren() { // params
		param, err := p.HandleParam(node)
		if err != nil {
			return Subroutine{}, fmt.Errorf("error handling parameter: %w", err)
		}
		subroutine.Arguments.Set(param.Name, param)
	}

	for _, node := range children[7].GetChildren() { // var_decs
		vars, err := p.HandleVarDec(node)
		if err != nil {
			return Subroutine{}, fmt.Errorf("error handling local variable declaration: %w", err)
		}
		subroutine.Statements = append(subroutine.Statements, VarStmt{Vars: vars})
	}

	for _, node := range children[8].GetChildren() { // statements
		stmt, err := p.HandleStatement(node)
		if err != nil {
			return Subroutine{}, fmt.Errorf("error handling statement: %w", err)
		}
		subroutine.Statements = append(subroutine.Statements, stmt)
	}

	return subroutine, nil
}

// Generalized function to convert a "statement" subtree to a 'jack.Statement'.
func (p Parser) HandleStatement(node pc.Queryable) (Statement, error) {
	switch node.GetName() {
	case "let_stmt":
		return p.HandleLetStmt(node)
	case "if_stmt":
		return p.HandleIfStmt(node)
	case "while_stmt":
		return p.HandleWhileStmt(node)
	case "do_stmt":
		return p.HandleDoStmt(node)
	case "return_stmt":
		return p.HandleReturnStmt(node)
	default:
		return nil, fmt.Errorf("unrecognized statement node: %s", node.GetName())
	}
}

// Specialized function to convert a "let_stmt" node to a 'jack.LetStmt'.
func (p Parser) HandleLetStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 6 {
		return nil, fmt.Errorf("expected node 'let_stmt' with 6 children, got %d", len(children))
	}

	varName, maybeIndex, rhsNode := children[1].GetValue(), children[2], children[4]

	rhs, err := p.HandleExpr(rhsNode)
	if err != nil {
		return nil, fmt.Errorf("error handling RHS expression: %w", err)
	}

	if len(maybeIndex.GetChildren()) == 0 { // Plain 'let x = ...' assignment, no array index
		return LetStmt{Lhs: VarExpr{Var: varName}, Rhs: rhs}, nil
	}

	index, err := p.HandleExpr(maybeIndex.GetChildren()[0].GetChildren()[1])
	if err != nil {
		return nil, fmt.Errorf("error handling array index expression: %w", err)
	}

	return LetStmt{Lhs: ArrayExpr{Var: varName, Index: index}, Rhs: rhs}, nil
}

// Specialized function to convert a "if_stmt" node to a 'jack.IfStmt'.
func (p Parser) HandleIfStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 8 {
		return nil, fmt.Errorf("expected node 'if_stmt' with 8 children, got %d", len(children))
	}

	condition, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, fmt.Errorf("error handling 'if' condition expression: %w", err)
	}

	thenBlock, err := p.HandleStatementBlock(children[5])
	if err != nil {
		return nil, fmt.Errorf("error handling 'then' block: %w", err)
	}

	maybeElse := children[7]
	if len(maybeElse.GetChildren()) == 0 {
		return IfStmt{Condition: condition, ThenBlock: thenBlock}, nil
	}

	elseBlock, err := p.HandleStatementBlock(maybeElse.GetChildren()[0].GetChildren()[2])
	if err != nil {
		return nil, fmt.Errorf("error handling 'else' block: %w", err)
	}

	return IfStmt{Condition: condition, ThenBlock: thenBlock, ElseBlock: elseBlock}, nil
}

// Specialized function to convert a "while_stmt" node to a 'jack.WhileStmt'.
func (p Parser) HandleWhileStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 7 {
		return nil, fmt.Errorf("expected node 'while_stmt' with 7 children, got %d", len(children))
	}

	condition, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, fmt.Errorf("error handling 'while' condition expression: %w", err)
	}

	block, err := p.HandleStatementBlock(children[5])
	if err != nil {
		return nil, fmt.Errorf("error handling 'while' block: %w", err)
	}

	return WhileStmt{Condition: condition, Block: block}, nil
}

// Specialized function to convert a "do_stmt" node to a 'jack.DoStmt'.
func (p Parser) HandleDoStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'do_stmt' with 3 children, got %d", len(children))
	}

	call, err := p.HandleSubroutineCall(children[1])
	if err != nil {
		return nil, fmt.Errorf("error handling 'do' subroutine call: %w", err)
	}

	return DoStmt{FuncCall: call}, nil
}

// Specialized function to convert a "return_stmt" node to a 'jack.ReturnStmt'.
func (p Parser) HandleReturnStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'return_stmt' with 3 children, got %d", len(children))
	}

	maybeExpr := children[1]
	if len(maybeExpr.GetChildren()) == 0 {
		return ReturnStmt{}, nil
	}

	expr, err := p.HandleExpr(maybeExpr.GetChildren()[0])
	if err != nil {
		return nil, fmt.Errorf("error handling return expression: %w", err)
	}

	return ReturnStmt{Expr: expr}, nil
}

// Collects the statement children of a block node (then/else/while bodies) in source order.
func (p Parser) HandleStatementBlock(node pc.Queryable) ([]Statement, error) {
	block := []Statement{}
	for _, child := range node.GetChildren() {
		stmt, err := p.HandleStatement(child)
		if err != nil {
			return nil, fmt.Errorf("error handling nested statement: %w", err)
		}
		block = append(block, stmt)
	}
	return block, nil
}

// Specialized function to convert a "subroutine_call" (or "call_suffix", same shape minus
// the callee's own name) node to a 'jack.FuncCallExpr'.
func (p Parser) HandleSubroutineCall(node pc.Queryable) (FuncCallExpr, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return FuncCallExpr{}, fmt.Errorf("expected node 'subroutine_call' with 5 children, got %d", len(children))
	}

	name, maybeQualifier, argsNode := children[0].GetValue(), children[1], children[3]

	args := []Expression{}
	for _, arg := range argsNode.GetChildren() {
		expr, err := p.HandleExpr(arg)
		if err != nil {
			return FuncCallExpr{}, fmt.Errorf("error handling call argument: %w", err)
		}
		args = append(args, expr)
	}

	if len(maybeQualifier.GetChildren()) == 0 { // Local call: 'foo(...)'
		return FuncCallExpr{IsExtCall: false, FuncName: name, Arguments: args}, nil
	}

	qualifier := maybeQualifier.GetChildren()[0]
	return FuncCallExpr{IsExtCall: true, Var: name, FuncName: qualifier.GetChildren()[1].GetValue(), Arguments: args}, nil
}

// Generalized function to convert any "expression" node to a 'jack.Expression'.
//
// Jack's grammar (deliberately) defines no operator precedence: an expression is just
// 'term (op term)*', evaluated strictly left to right, folded here into a left-leaning
// chain of 'jack.BinaryExpr'.
func (p Parser) HandleExpr(node pc.Queryable) (Expression, error) {
	if node.GetName() != "expression" {
		return nil, fmt.Errorf("expected node 'expression', found %s", node.GetName())
	}

	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected node 'expression' with 2 children, got %d", len(children))
	}

	acc, err := p.HandleTerm(children[0])
	if err != nil {
		return nil, fmt.Errorf("error handling first term: %w", err)
	}

	for _, opTerm := range children[1].GetChildren() { // more_terms
		opChildren := opTerm.GetChildren()
		if len(opChildren) != 2 {
			return nil, fmt.Errorf("expected node 'op_term' with 2 children, got %d", len(opChildren))
		}

		rhs, err := p.HandleTerm(opChildren[1])
		if err != nil {
			return nil, fmt.Errorf("error handling nested term: %w", err)
		}

		acc = BinaryExpr{Type: parseOp(opChildren[0].GetValue()), Lhs: acc, Rhs: rhs}
	}

	return acc, nil
}

// Generalized function to convert a "term" node to a 'jack.Expression'.
func (p Parser) HandleTerm(node pc.Queryable) (Expression, error) {
	switch node.GetName() {
	case "unary_term":
		return p.HandleUnaryTerm(node)
	case "paren_expr":
		return p.HandleExpr(node.GetChildren()[1])
	case "keyword_const":
		return p.HandleKeywordConst(node)
	case "STRING":
		unquoted := node.GetValue()
		return LiteralExpr{Type: DataType{Main: String}, Value: unquoted[1 : len(unquoted)-1]}, nil
	case "FLOAT", "INT":
		return LiteralExpr{Type: DataType{Main: Int}, Value: node.GetValue()}, nil
	case "ident_term":
		return p.HandleIdentTerm(node)
	default:
		return nil, fmt.Errorf("unrecognized term node: %s", node.GetName())
	}
}

// Specialized function to convert a "unary_term" node to a 'jack.UnaryExpr'.
func (p Parser) HandleUnaryTerm(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected node 'unary_term' with 2 children, got %d", len(children))
	}

	rhs, err := p.HandleTerm(children[1])
	if err != nil {
		return nil, fmt.Errorf("error handling unary operand: %w", err)
	}

	switch children[0].GetValue() {
	case "-":
		return UnaryExpr{Type: Negation, Rhs: rhs}, nil
	case "~":
		return UnaryExpr{Type: BoolNot, Rhs: rhs}, nil
	default:
		return nil, fmt.Errorf("unrecognized unary operator: %s", children[0].GetValue())
	}
}

// Specialized function to convert a "keyword_const" node to a 'jack.LiteralExpr'.
func (Parser) HandleKeywordConst(node pc.Queryable) (Expression, error) {
	switch node.GetValue() {
	case "true":
		return LiteralExpr{Type: DataType{Main: Bool}, Value: "true"}, nil
	case "false":
		return LiteralExpr{Type: DataType{Main: Bool}, Value: "false"}, nil
	case "null":
		return LiteralExpr{Type: DataType{Main: Object}, Value: "null"}, nil
	case "this":
		return VarExpr{Var: "this"}, nil
	default:
		return nil, fmt.Errorf("unrecognized keyword constant: %s", node.GetValue())
	}
}

// Specialized function to convert an "ident_term" node to a 'jack.VarExpr', 'jack.ArrayExpr'
// or 'jack.FuncCallExpr', based on which (if any) suffix follows the identifier.
func (p Parser) HandleIdentTerm(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected node 'ident_term' with 2 children, got %d", len(children))
	}

	name, maybeSuffix := children[0].GetValue(), children[1]
	if len(maybeSuffix.GetChildren()) == 0 {
		return VarExpr{Var: name}, nil
	}

	suffix := maybeSuffix.GetChildren()[0]
	switch suffix.GetName() {
	case "array_index":
		index, err := p.HandleExpr(suffix.GetChildren()[1])
		if err != nil {
			return nil, fmt.Errorf("error handling array index expression: %w", err)
		}
		return ArrayExpr{Var: name, Index: index}, nil

	case "call_suffix":
		callChildren := suffix.GetChildren()
		maybeQualifier, argsNode := callChildren[0], callChildren[2]

		args := []Expression{}
		for _, arg := range argsNode.GetChildren() {
			expr, err := p.HandleExpr(arg)
			if err != nil {
				return nil, fmt.Errorf("error handling call argument: %w", err)
			}
			args = append(args, expr)
		}

		if len(maybeQualifier.GetChildren()) == 0 { // Local call: 'foo(...)'
			return FuncCallExpr{IsExtCall: false, FuncName: name, Arguments: args}, nil
		}

		qualifier := maybeQualifier.GetChildren()[0]
		return FuncCallExpr{IsExtCall: true, Var: name, FuncName: qualifier.GetChildren()[1].GetValue(), Arguments: args}, nil

	default:
		return nil, fmt.Errorf("unrecognized ident suffix node: %s", suffix.GetName())
	}
}

// Converts a raw data-type token ("int", "char", "boolean", or a class name) to a 'jack.DataType'.
func parseDataType(token string) DataType {
	switch token {
	case "int":
		return DataType{Main: Int}
	case "char":
		return DataType{Main: Char}
	case "boolean":
		return DataType{Main: Bool}
	default:
		return DataType{Main: Object, Subtype: token}
	}
}

// Converts a raw return-type token ("void" included) to a 'jack.DataType'.
func parseReturnType(token string) DataType {
	if token == "void" {
		return DataType{Main: Void}
	}
	return parseDataType(token)
}

// Converts a raw operator token to its 'jack.ExprType' counterpart.
func parseOp(token string) ExprType {
	switch token {
	case "+":
		return Plus
	case "-":
		return Minus
	case "*":
		return Multiply
	case "/":
		return Divide
	case "&":
		return BoolAnd
	case "|":
		return BoolOr
	case "<":
		return LessThan
	case ">":
		return GreatThan
	case "=":
		return Equal
	default:
		return ""
	}
}
