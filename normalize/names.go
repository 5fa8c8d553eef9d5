package normalize

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/grammar"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// sourceKey identifies an anonymous terminal by the text of its source.
// Patterns are equal if their sources are textually equal: /X/ and /x/ are
// different patterns.
type sourceKey struct {
	Kind string // "literal", "pattern" or "token"
	Text string
}

func (k sourceKey) less(other sourceKey) bool {
	if k.Kind != other.Kind {
		return k.Kind < other.Kind
	}
	return k.Text < other.Text
}

func keyComparator(a, b interface{}) int {
	k1, k2 := a.(sourceKey), b.(sourceKey)
	if k1.less(k2) {
		return -1
	} else if k2.less(k1) {
		return 1
	}
	return 0
}

// keyOf returns the key of an anonymous terminal, if e is one.
func keyOf(e grammar.Expr) (sourceKey, bool) {
	switch x := e.(type) {
	case *grammar.Literal:
		return sourceKey{Kind: "literal", Text: x.Text}, true
	case *grammar.Pattern:
		return sourceKey{Kind: "pattern", Text: x.String()}, true
	case *grammar.Token:
		if lit, ok := grammar.StripPrec(x.Body).(*grammar.Literal); ok {
			return sourceKey{Kind: "literal", Text: lit.Text}, true
		}
		return sourceKey{Kind: "token", Text: x.String()}, true
	}
	return sourceKey{}, false
}

// namer assigns identifiers to anonymous literals, patterns and tokens.
// A namer is created for a single pipeline run.
type namer struct {
	grammar     string
	hashLength  int
	reserved    map[string]bool // names of rules and external tokens
	names       map[sourceKey]string
	diagnostics []canon.Diagnostic
}

// nameTerminals collects all anonymous terminals of an expansion and assigns
// names to them. Names are independent of the order in which terminals
// appear in the grammar.
func nameTerminals(x *expansion, cfg *config) *namer {
	n := &namer{
		grammar:    x.g.Name,
		hashLength: cfg.hashLength,
		reserved:   make(map[string]bool),
		names:      make(map[sourceKey]string),
	}
	for _, r := range x.rules {
		n.reserved[r.Name] = true
	}
	keys := treeset.NewWith(keyComparator)
	for _, e := range x.g.Externals() {
		if ref, ok := e.(*grammar.Ref); ok {
			n.reserved[ref.Name] = true
		} else if k, ok := keyOf(e); ok {
			keys.Add(k)
		}
	}
	for _, r := range x.rules {
		collectKeys(r.Body, true, keys)
	}
	for _, e := range x.g.Extras() {
		collectKeys(e, false, keys)
	}
	for _, v := range keys.Values() {
		n.names[v.(sourceKey)] = ""
	}
	n.resolve(keys)
	return n
}

// collectKeys collects the keys of anonymous terminals in e. If e is the
// whole body of a rule and a terminal, it is named by the rule.
func collectKeys(e grammar.Expr, isRuleBody bool, keys *treeset.Set) {
	if isRuleBody {
		switch grammar.StripPrec(e).(type) {
		case *grammar.Literal, *grammar.Pattern, *grammar.Token:
			return
		}
	}
	grammar.Walk(e, func(x grammar.Expr) bool {
		if k, ok := keyOf(x); ok {
			keys.Add(k)
			return false // do not look into tokens
		}
		return true
	})
}

// nameOf returns the name assigned to an anonymous terminal, or "" if e has
// not been named.
func (n *namer) nameOf(e grammar.Expr) string {
	if k, ok := keyOf(e); ok {
		return n.names[k]
	}
	return ""
}

func (n *namer) resolve(keys *treeset.Set) {
	candidates := make(map[string][]sourceKey)
	for _, v := range keys.Values() { // sorted
		k := v.(sourceKey)
		c := classify(k)
		if c == "" {
			c = "pat_" + n.hash(k, n.hashLength)
		}
		candidates[c] = append(candidates[c], k)
	}
	used := make(map[string]bool, len(n.reserved)+len(candidates))
	for name := range n.reserved {
		used[name] = true
	}
	for c := range candidates {
		used[c] = true
	}
	names := maps.Keys(candidates)
	slices.Sort(names)
	var losers []sourceKey
	loserBase := make(map[sourceKey]string)
	for _, c := range names {
		ks := candidates[c]
		winner := -1
		if !n.reserved[c] {
			if len(ks) == 1 {
				winner = 0
			} else {
				winner = exactOwner(c, ks)
			}
		}
		for i, k := range ks {
			if i == winner {
				n.names[k] = c
				continue
			}
			losers = append(losers, k)
			loserBase[k] = c
		}
	}
	for _, k := range losers { // in order of sorted candidate names
		c := loserBase[k]
		name := n.disambiguate(c, k, used)
		used[name] = true
		n.names[k] = name
		d := canon.Diagnostic{
			Severity: canon.Warning,
			Kind:     grammar.NameCollision,
			Names:    []string{c, name},
			Message:  fmt.Sprintf("%s %s renamed to %q, name %q is taken", k.Kind, k.Text, name, c),
		}
		tracer().Infof("grammar %s: %s", n.grammar, d)
		n.diagnostics = append(n.diagnostics, d)
	}
	tracer().Debugf("named %d anonymous terminals, %d collisions", len(n.names), len(losers))
}

// exactOwner returns the index of the single key whose text equals the
// candidate name, or -1.
func exactOwner(c string, ks []sourceKey) int {
	owner := -1
	for i, k := range ks {
		text := k.Text
		if k.Kind == "pattern" {
			text = strings.TrimSuffix(strings.TrimPrefix(text, "/"), "/")
		}
		if text == c {
			if owner >= 0 {
				return -1
			}
			owner = i
		}
	}
	return owner
}

// disambiguate appends a hash of the source to a name. If the result is
// taken, longer hashes are tried, then a counter.
func (n *namer) disambiguate(c string, k sourceKey, used map[string]bool) string {
	for l := n.hashLength; l <= maxHashLength; l++ {
		name := c + "_" + n.hash(k, l)
		if !used[name] {
			return name
		}
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d", c, i)
		if !used[name] {
			return name
		}
	}
}

func (n *namer) hash(k sourceKey, length int) string {
	h := hex.EncodeToString(structhash.Md5(k, 1))
	if length > len(h) {
		length = len(h)
	}
	return h[:length]
}

// --- Classification --------------------------------------------------------

var (
	numericText = regexp.MustCompile(`^[0-9]+$`)
	lowerWord   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	upperWord   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	mixedWord   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	digitClass  = regexp.MustCompile(`^(\\d|\[0-9\])[+*]?$`)
	regexMeta   = regexp.MustCompile(`[.\[\](){}*+?|^$]`)
	escaped     = regexp.MustCompile(`\\(.)`)
)

// classify proposes a name for an anonymous terminal. It returns "" if no
// name can be derived from the text of the terminal.
func classify(k sourceKey) string {
	switch k.Kind {
	case "literal":
		return classifyText(k.Text)
	case "pattern":
		src := strings.TrimPrefix(k.Text, "/")
		if strings.HasSuffix(src, "/") { // no flags
			src = strings.TrimSuffix(src, "/")
		} else {
			return ""
		}
		if digitClass.MatchString(src) {
			return "digits"
		}
		unescaped := escaped.ReplaceAllString(src, "")
		if regexMeta.MatchString(unescaped) {
			return ""
		}
		if strings.ContainsRune(src, '\\') {
			// only escaped punctuation may remain
			for _, m := range escaped.FindAllStringSubmatch(src, -1) {
				r := []rune(m[1])[0]
				if unicode.IsLetter(r) || unicode.IsDigit(r) {
					return ""
				}
			}
			src = escaped.ReplaceAllString(src, "$1")
		}
		return classifyText(src)
	}
	return ""
}

func classifyText(text string) string {
	switch {
	case text == "":
		return "empty"
	case numericText.MatchString(text):
		return "num_" + text
	case lowerWord.MatchString(text):
		return text
	case upperWord.MatchString(text):
		return strings.ToLower(text)
	case mixedWord.MatchString(text):
		return snakeCase(text)
	case isPunctuation(text):
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, codepointName(r))
		}
		return strings.Join(parts, "_")
	}
	return ""
}

// snakeCase converts mixed-case words, e.g. "dash-separator" → "dash_separator",
// "mIxEd" → "m_ix_ed".
func snakeCase(text string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range text {
		switch {
		case r == '-' || r == '_':
			b.WriteByte('_')
			prevLower = false
			continue
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
			continue
		}
		b.WriteRune(r)
		prevLower = true
	}
	return b.String()
}

func isPunctuation(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var codepointNames = map[rune]string{
	'!': "bang", '"': "dquot", '#': "hash", '$': "dollar", '%': "perc",
	'&': "amp", '\'': "squot", '(': "lpar", ')': "rpar", '*': "star",
	'+': "plus", ',': "comma", '-': "dash", '.': "dot", '/': "slash",
	':': "colon", ';': "semi", '<': "lt", '=': "eq", '>': "gt",
	'?': "qmark", '@': "at", '[': "lbrack", '\\': "bslash", ']': "rbrack",
	'^': "hat", '_': "underscore", '`': "bquot", '{': "lcurl", '|': "bar",
	'}': "rcurl", '~': "tilde", ' ': "space", '\t': "tab", '\n': "nl",
	'\r': "cr",
}

func codepointName(r rune) string {
	if name, ok := codepointNames[r]; ok {
		return name
	}
	return fmt.Sprintf("u%04x", r)
}
