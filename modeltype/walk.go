package modeltype

import "errors"

// errStopWalk aborts a walk early without reporting an error to the caller.
var errStopWalk = errors.New("stop walk")

// Walk visits start and then every ancestor reachable through the declared
// supertype relation, depth-first in declaration order, without revisiting a
// node (diamond hierarchies collapse to a single visit). The traversal order
// is deterministic for a given graph.
//
// If visit returns an error the walk stops and the error is returned.
func Walk(start *Type, visit func(*Type) error) error {
	if start == nil {
		return nil
	}
	seen := make(map[*Type]struct{})

	var walk func(t *Type) error
	walk = func(t *Type) error {
		if _, ok := seen[t]; ok {
			return nil
		}
		seen[t] = struct{}{}
		if err := visit(t); err != nil {
			return err
		}
		for _, s := range t.supers {
			if err := walk(s); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(start); err != nil && !errors.Is(err, errStopWalk) {
		return err
	}
	return nil
}
