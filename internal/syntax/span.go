package syntax

// Span is the dense numeric identity of a parse-tree node. Numbers are
// assigned so that a node's number is smaller than every descendant's and
// sibling subtrees occupy disjoint ascending ranges. Incremental edits
// renumber replacement subtrees into the numeric gap between untouched
// neighbors, which keeps identities of reused nodes stable.
type Span uint64

// Detached marks a node that does not belong to a numbered tree. Trees are
// synthesized to Detached before structural comparison.
const Detached Span = 0

// FirstNumber is the number assigned to a freshly numbered root.
// MaxNumber bounds every numbering range from above.
const (
	FirstNumber uint64 = 1
	MaxNumber   uint64 = ^uint64(0)
)

func (s Span) Detached() bool {
	return s == Detached
}

// Number returns the raw span number.
func (s Span) Number() uint64 {
	return uint64(s)
}

// NumberTree assigns span numbers to the whole tree rooted at root,
// discarding any previous numbering.
func NumberTree(root *Node) {
	numberize(root, FirstNumber, MaxNumber)
}

// numberize assigns node the number lo and distributes (lo+1, hi) over its
// descendants, each child receiving a slice proportional to its subtree
// size. Requires hi-lo > subtreeCount(node).
func numberize(node *Node, lo, hi uint64) {
	node.span = Span(lo)
	if len(node.children) == 0 {
		return
	}
	numberRange(node.children, lo+1, hi)
}

// numberRange distributes [lo, hi) over the given sibling subtrees.
func numberRange(nodes []*Node, lo, hi uint64) {
	total := uint64(0)
	for _, n := range nodes {
		total += subtreeCount(n)
	}
	if total == 0 {
		return
	}

	// Floor-divide first so the per-node share never overflows.
	per := (hi - lo) / total
	cursor := lo
	for _, n := range nodes {
		share := per * subtreeCount(n)
		numberize(n, cursor, cursor+share)
		cursor += share
	}
}

// subtreeCount returns the number of nodes in the subtree, root included.
func subtreeCount(n *Node) uint64 {
	count := uint64(1)
	for _, c := range n.children {
		count += subtreeCount(c)
	}
	return count
}

// maxSpan returns the largest span number anywhere in the subtree.
func maxSpan(n *Node) uint64 {
	m := n.span.Number()
	for _, c := range n.children {
		if cm := maxSpan(c); cm > m {
			m = cm
		}
	}
	return m
}
