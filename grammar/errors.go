package grammar

import (
	"fmt"
	"strings"
)

// ErrorKind classifies errors found in grammars.
type ErrorKind int

// Kinds of grammar errors. All of them are fatal for the grammar concerned,
// except NameCollision, which is recoverable and reported as a diagnostic.
const (
	NoError ErrorKind = iota
	UnresolvedRuleRef
	IllegalInlineCycle
	IllegalRecursion
	ConflictDeclarationMismatch
	NameCollision
	DuplicateRule
	EmptyGrammar
	MalformedGrammar
)

var errorKindNames = [...]string{"no error", "unresolved rule reference", "illegal inline cycle",
	"illegal recursion", "conflict declaration mismatch", "name collision", "duplicate rule",
	"empty grammar", "malformed grammar"}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("error kind %d", k)
}

// Error is the error type for structural problems of a grammar.
type Error struct {
	Kind    ErrorKind
	Grammar string   // name of the grammar
	Rule    string   // rule where the problem has been detected, if any
	Names   []string // rule names involved
	Message string
}

// Sentinel errors, to be used with errors.Is.
var (
	ErrUnresolvedRuleRef           = &Error{Kind: UnresolvedRuleRef}
	ErrIllegalInlineCycle          = &Error{Kind: IllegalInlineCycle}
	ErrIllegalRecursion            = &Error{Kind: IllegalRecursion}
	ErrConflictDeclarationMismatch = &Error{Kind: ConflictDeclarationMismatch}
	ErrNameCollision               = &Error{Kind: NameCollision}
	ErrDuplicateRule               = &Error{Kind: DuplicateRule}
	ErrEmptyGrammar                = &Error{Kind: EmptyGrammar}
	ErrMalformedGrammar            = &Error{Kind: MalformedGrammar}
)

// Errorf creates a grammar error of a given kind.
func Errorf(kind ErrorKind, g string, rule string, msg string, params ...interface{}) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return &Error{Kind: kind, Grammar: g, Rule: rule, Message: msg}
}

// WithNames attaches the names of the rules involved.
func (e *Error) WithNames(names ...string) *Error {
	e.Names = append(e.Names, names...)
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Grammar != "" {
		b.WriteString("grammar ")
		b.WriteString(e.Grammar)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Rule != "" {
		b.WriteString(" in rule ")
		b.WriteString(e.Rule)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Names) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Names, ", "))
		b.WriteString("]")
	}
	return b.String()
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsFatal is true for every error kind except NameCollision.
func (e *Error) IsFatal() bool {
	return e.Kind != NameCollision && e.Kind != NoError
}
