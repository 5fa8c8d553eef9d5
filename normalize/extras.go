package normalize

import (
	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/grammar"
)

// integrateExtras splits the extras of a grammar into named extras, which
// produce a node wherever they are matched, and unnamed extras, which are
// skipped silently. References to visible rules are named extras; literals,
// patterns, tokens and references to hidden rules are unnamed.
//
// Rules serving as named extras are returned, to be flagged. They keep
// their structure, as they may appear in ordinary rules as well.
func integrateExtras(x *expansion, vis *visibility, sh *shaper) ([]canon.Extra, map[string]bool, error) {
	var extras []canon.Extra
	named := make(map[string]bool)
	for _, e := range x.g.Extras() {
		e = grammar.Rewrite(e, canonicalForm)
		if ref, ok := grammar.StripPrec(e).(*grammar.Ref); ok {
			extra := canon.Extra{Shape: &canon.Symbol{Name: ref.Name}, Rule: ref.Name}
			if vis.of(ref.Name) == canon.Visible {
				extra.Named = true
				if x.declares(ref.Name) {
					named[ref.Name] = true
				}
			}
			extras = append(extras, extra)
			continue
		}
		s, err := sh.shape("", e, false)
		if err != nil {
			return nil, nil, err
		}
		canon.Walk(s, func(s canon.Shape) bool {
			if t, ok := s.(*canon.Terminal); ok {
				t.Node, t.NodeType = false, ""
			}
			return true
		})
		extras = append(extras, canon.Extra{Shape: s})
	}
	tracer().Debugf("%d extras, %d of them named", len(extras), len(named))
	return extras, named, nil
}
