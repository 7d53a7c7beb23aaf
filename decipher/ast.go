package decipher

import (
	"strconv"
	"strings"
)

// Expr is a node of the expression grammar accepted inside transform bodies.
type Expr interface {
	String() string
	expr()
}

// Ident references a parameter or local.
type Ident struct {
	Name string
}

// NumberLit is an integer literal. A leading minus is folded into Value.
type NumberLit struct {
	Value int
}

// StringLit is a quoted string, as in split("") or join("").
type StringLit struct {
	Value string
}

// IndexExpr is Object[Index].
type IndexExpr struct {
	Object Expr
	Index  Expr
}

// PropertyExpr is Object.Name with no call. Only length is evaluated.
type PropertyExpr struct {
	Object Expr
	Name   string
}

// BinaryExpr is an arithmetic operation. Op is one of + - * %.
type BinaryExpr struct {
	Op    byte
	Left  Expr
	Right Expr
}

// MethodCall is Receiver.Method(Args...).
type MethodCall struct {
	Receiver Expr
	Method   string
	Args     []Expr
}

// CallExpr is a free call Callee(Args...) to another function in the table.
type CallExpr struct {
	Callee string
	Args   []Expr
}

func (*Ident) expr()        {}
func (*NumberLit) expr()    {}
func (*StringLit) expr()    {}
func (*IndexExpr) expr()    {}
func (*PropertyExpr) expr() {}
func (*BinaryExpr) expr()   {}
func (*MethodCall) expr()   {}
func (*CallExpr) expr()     {}

func (e *Ident) String() string     { return e.Name }
func (e *NumberLit) String() string { return strconv.Itoa(e.Value) }
func (e *StringLit) String() string { return strconv.Quote(e.Value) }
func (e *IndexExpr) String() string { return e.Object.String() + "[" + e.Index.String() + "]" }
func (e *PropertyExpr) String() string {
	return e.Object.String() + "." + e.Name
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + string(e.Op) + e.Right.String() + ")"
}

func (e *MethodCall) String() string {
	return e.Receiver.String() + "." + e.Method + "(" + joinExprs(e.Args) + ")"
}

func (e *CallExpr) String() string { return e.Callee + "(" + joinExprs(e.Args) + ")" }

func joinExprs(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// Statement is one top-level statement of a function body. Source returns
// the statement's original text for diagnostics.
type Statement interface {
	Source() string
	stmt()
}

// AssignStmt is Target = Value. Target is an *Ident or an *IndexExpr.
// Declare is set for var, let and const.
type AssignStmt struct {
	Text    string
	Declare bool
	Target  Expr
	Value   Expr
}

// SwapStmt is the fused element-swap idiom
//
//	var Hold=Array[First]; Array[First]=Array[From]; Array[Target]=Hold
type SwapStmt struct {
	Text   string
	Hold   string
	Array  string
	First  Expr
	From   Expr
	Target Expr
}

// ExprStmt is an expression evaluated for its effect, such as a.reverse().
type ExprStmt struct {
	Text string
	X    Expr
}

// ReturnStmt ends the function with the value of Result.
type ReturnStmt struct {
	Text   string
	Result Expr
}

func (*AssignStmt) stmt() {}
func (*SwapStmt) stmt()   {}
func (*ExprStmt) stmt()   {}
func (*ReturnStmt) stmt() {}

func (s *AssignStmt) Source() string { return s.Text }
func (s *SwapStmt) Source() string   { return s.Text }
func (s *ExprStmt) Source() string   { return s.Text }
func (s *ReturnStmt) Source() string { return s.Text }
