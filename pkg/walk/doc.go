// Package walk traverses a store's reference graph.
//
// [Walk] runs breadth-first or depth-first over reference edges from a set of
// start nodes and hands every step to a [Visitor]. A single queue drives both
// modes: BFS appends each expanded batch of children, DFS prepends it.
//
// Each [Step] carries the path of keys from the root, its ancestor steps and
// IsVisited, the number of times the node was reached before. Graphs with
// cycles are walked once per path, so visitors usually stop at repeats:
//
//	walk.Walk(s, "task1", func(st *walk.Step) (walk.Decision, error) {
//	    if st.IsVisited > 0 {
//	        return walk.SkipChildren, nil
//	    }
//	    fmt.Println(strings.Join(st.Path, "."), st.NodeID)
//	    return walk.Continue, nil
//	}, walk.Options{})
//
// A [Decision] filters the children of the current node with [Only] and
// [Skip], or ends the traversal with [AbortAll].
package walk
