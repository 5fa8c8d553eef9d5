package grammar

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FromJSON decodes a grammar from the grammar.json format written by the
// tree-sitter CLI. Rules keep the order in which they appear in the file,
// thus the first rule is the entry rule.
//
// Supertypes and named precedence tables are ignored.
func FromJSON(data []byte) (*Grammar, error) {
	var jg jsonGrammar
	if err := json.Unmarshal(data, &jg); err != nil {
		return nil, fmt.Errorf("grammar.json: %w", err)
	}
	if jg.Name == "" {
		return nil, Errorf(MalformedGrammar, "", "", "grammar.json has no name")
	}
	b := NewBuilder(jg.Name)
	err := eachRule(jg.Rules, func(name string, je *jsonExpr) error {
		body, err := je.expr()
		if err != nil {
			return wrapJSON(jg.Name, name, err)
		}
		b.Rule(name, body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, je := range jg.Extras {
		e, err := je.expr()
		if err != nil {
			return nil, wrapJSON(jg.Name, "", err)
		}
		b.Extras(e)
	}
	for _, je := range jg.Externals {
		e, err := je.expr()
		if err != nil {
			return nil, wrapJSON(jg.Name, "", err)
		}
		b.Externals(e)
	}
	for _, grp := range jg.Conflicts {
		b.Conflict(grp...)
	}
	b.Inline(jg.Inline...)
	if jg.Word != "" {
		b.Word(jg.Word)
	}
	g, err := b.Grammar()
	if err != nil {
		return nil, err
	}
	tracer().Debugf("decoded grammar %s with %d rules", g.Name, g.Size())
	return g, nil
}

func wrapJSON(g, rule string, err error) error {
	if gerr, ok := err.(*Error); ok {
		gerr.Grammar, gerr.Rule = g, rule
		return gerr
	}
	return fmt.Errorf("grammar %s, rule %s: %w", g, rule, err)
}

type jsonGrammar struct {
	Name      string          `json:"name"`
	Word      string          `json:"word"`
	Rules     json.RawMessage `json:"rules"`
	Extras    []*jsonExpr     `json:"extras"`
	Conflicts [][]string      `json:"conflicts"`
	Externals []*jsonExpr     `json:"externals"`
	Inline    []string        `json:"inline"`
}

type jsonExpr struct {
	Type    string          `json:"type"`
	Name    string          `json:"name"`
	Value   json.RawMessage `json:"value"`
	Flags   string          `json:"flags"`
	Named   bool            `json:"named"`
	Members []*jsonExpr     `json:"members"`
	Content *jsonExpr       `json:"content"`
}

// eachRule iterates over the members of the rules object in file order.
// Go maps do not keep the order of keys, so we walk the token stream.
func eachRule(raw json.RawMessage, f func(string, *jsonExpr) error) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("grammar.json rules: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Errorf(MalformedGrammar, "", "", "rules must be an object")
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("grammar.json rules: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return Errorf(MalformedGrammar, "", "", "unexpected token %v in rules", tok)
		}
		je := &jsonExpr{}
		if err = dec.Decode(je); err != nil {
			return fmt.Errorf("grammar.json rule %s: %w", name, err)
		}
		if err = f(name, je); err != nil {
			return err
		}
	}
	return nil
}

func (je *jsonExpr) expr() (Expr, error) {
	if je == nil {
		return nil, Errorf(MalformedGrammar, "", "", "missing rule expression")
	}
	switch je.Type {
	case "BLANK":
		return Empty(), nil
	case "STRING":
		s, err := je.stringValue()
		return Str(s), err
	case "PATTERN":
		s, err := je.stringValue()
		return &Pattern{Source: s, Flags: je.Flags}, err
	case "SYMBOL":
		return Sym(je.Name), nil
	case "SEQ", "CHOICE":
		members := make([]Expr, len(je.Members))
		for i, m := range je.Members {
			e, err := m.expr()
			if err != nil {
				return nil, err
			}
			members[i] = e
		}
		if je.Type == "SEQ" {
			return Sequence(members...), nil
		}
		return Alt(members...), nil
	}
	body, err := je.Content.expr()
	if err != nil {
		return nil, err
	}
	switch je.Type {
	case "REPEAT":
		return Repeat0(body), nil
	case "REPEAT1":
		return Repeat1(body), nil
	case "TOKEN":
		return Tok(body), nil
	case "IMMEDIATE_TOKEN":
		return ImmediateTok(body), nil
	case "PREC":
		return je.prec(PrecNone, body)
	case "PREC_LEFT":
		return je.prec(PrecLeft, body)
	case "PREC_RIGHT":
		return je.prec(PrecRight, body)
	case "PREC_DYNAMIC":
		return je.prec(PrecDynamic, body)
	case "ALIAS":
		s, err := je.stringValue()
		return &Alias{Body: body, Target: s, Named: je.Named}, err
	case "FIELD":
		return Label(je.Name, body), nil
	}
	return nil, Errorf(MalformedGrammar, "", "", "unknown rule expression type %q", je.Type)
}

func (je *jsonExpr) stringValue() (string, error) {
	var s string
	if err := json.Unmarshal(je.Value, &s); err != nil {
		return "", fmt.Errorf("%s value: %w", je.Type, err)
	}
	return s, nil
}

// prec decodes a precedence value, which is either an integer or the name of
// a precedence level.
func (je *jsonExpr) prec(assoc Assoc, body Expr) (Expr, error) {
	p := &Prec{Assoc: assoc, Body: body}
	if len(je.Value) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(je.Value, &p.Value); err != nil {
		if err = json.Unmarshal(je.Value, &p.Label); err != nil {
			return nil, fmt.Errorf("%s value: %w", je.Type, err)
		}
	}
	return p, nil
}
