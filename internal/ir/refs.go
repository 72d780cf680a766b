package ir

// Refs returns the distinct variable paths referenced by an expression,
// in first-appearance order. Used to build the dependency graph for
// execution-order resolution.
func Refs(e Expr) []string {
	var paths []string
	seen := make(map[string]bool)
	collectRefs(e, seen, &paths)
	return paths
}

func collectRefs(e Expr, seen map[string]bool, paths *[]string) {
	switch v := e.(type) {
	case Literal:
		// No references.

	case Var:
		if !seen[v.Path] {
			seen[v.Path] = true
			*paths = append(*paths, v.Path)
		}

	case BinOp:
		collectRefs(v.Left, seen, paths)
		collectRefs(v.Right, seen, paths)

	case Call:
		for _, a := range v.Args {
			collectRefs(a, seen, paths)
		}

	case Cond:
		collectRefs(v.If, seen, paths)
		collectRefs(v.Then, seen, paths)
		collectRefs(v.Else, seen, paths)
	}
}
