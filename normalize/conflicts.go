package normalize

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/gramnorm/grammar"
)

// validateConflicts checks that every name in every conflict group is a
// declared rule. Inline rules count as declared. Validated groups are
// passed through unchanged.
func validateConflicts(x *expansion) ([][]string, error) {
	groups := x.g.Conflicts()
	for _, grp := range groups {
		unknown := treeset.NewWithStringComparator()
		for _, name := range grp {
			if !x.declares(name) {
				unknown.Add(name)
			}
		}
		if !unknown.Empty() {
			names := make([]string, 0, unknown.Size())
			for _, n := range unknown.Values() {
				names = append(names, n.(string))
			}
			return nil, grammar.Errorf(grammar.ConflictDeclarationMismatch, x.g.Name, "",
				"conflict group %v names undeclared rules", grp).WithNames(names...)
		}
	}
	return groups, nil
}
