package automaton

import (
	"math"
	"sort"
)

const rootNode int32 = 0

type trieEdge struct {
	code uint32
	node int32
}

// trieNode is one prefix shared by the inserted patterns. Nodes live in an
// arena and refer to each other by index, failure links included.
type trieNode struct {
	edges    []trieEdge // sorted by code
	fail     int32
	depth    uint32
	patterns []int32 // patterns ending here, in insertion order
}

// trieOutput is one entry of an output chain. A node's chain lists its own
// patterns and then continues into the chain of its failure target, so the
// chain is ordered longest pattern first.
type trieOutput struct {
	pattern int32
	length  uint32
	next    uint32 // 1-based index of the following entry, 0 ends the chain
}

// trie is the pointer-free intermediate form consumed by compact.
type trie struct {
	nodes       []trieNode
	order       []int32  // breadth-first, root first
	heads       []uint32 // per node: 1-based index of the first output, 0 = none
	outputs     []trieOutput
	minPriority []uint32 // per node, LeftmostFirst only
	maxLen      int
	retained    int
}

func buildTrie(keys [][]rune, mapper *codeMapper, kind MatchKind) *trie {
	t := &trie{nodes: make([]trieNode, 1, len(keys)+1)}
	for i, key := range keys {
		t.insert(int32(i), key, mapper, kind)
	}
	t.buildFailures()
	t.linkOutputs()
	if kind == LeftmostFirst {
		t.computeMinPriority()
	}
	return t
}

// insert adds one pattern. Leftmost kinds keep only the first copy of a
// duplicated pattern. LeftmostFirst also drops any pattern extending an
// earlier pattern: the earlier one always matches at the same start and wins.
func (t *trie) insert(id int32, key []rune, mapper *codeMapper, kind MatchKind) {
	n := rootNode
	for _, r := range key {
		if kind == LeftmostFirst && len(t.nodes[n].patterns) > 0 {
			return
		}
		n = t.addChild(n, mapper.code(r))
	}
	if kind.IsLeftmost() && len(t.nodes[n].patterns) > 0 {
		return
	}
	t.nodes[n].patterns = append(t.nodes[n].patterns, id)
	t.retained++
	if len(key) > t.maxLen {
		t.maxLen = len(key)
	}
}

func (t *trie) child(n int32, code uint32) (int32, bool) {
	edges := t.nodes[n].edges
	i := sort.Search(len(edges), func(i int) bool { return edges[i].code >= code })
	if i < len(edges) && edges[i].code == code {
		return edges[i].node, true
	}
	return 0, false
}

func (t *trie) addChild(n int32, code uint32) int32 {
	edges := t.nodes[n].edges
	i := sort.Search(len(edges), func(i int) bool { return edges[i].code >= code })
	if i < len(edges) && edges[i].code == code {
		return edges[i].node
	}

	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, trieNode{depth: t.nodes[n].depth + 1})

	edges = append(edges, trieEdge{})
	copy(edges[i+1:], edges[i:])
	edges[i] = trieEdge{code: code, node: id}
	t.nodes[n].edges = edges
	return id
}

// buildFailures computes failure links breadth-first and records the
// traversal order, which compaction reuses so parents are placed first.
func (t *trie) buildFailures() {
	t.order = make([]int32, 0, len(t.nodes))
	t.order = append(t.order, rootNode)
	for i := 0; i < len(t.order); i++ {
		u := t.order[i]
		for _, e := range t.nodes[u].edges {
			v := e.node
			t.order = append(t.order, v)
			if u == rootNode {
				t.nodes[v].fail = rootNode
				continue
			}
			f := t.nodes[u].fail
			for {
				if w, ok := t.child(f, e.code); ok {
					t.nodes[v].fail = w
					break
				}
				if f == rootNode {
					t.nodes[v].fail = rootNode
					break
				}
				f = t.nodes[f].fail
			}
		}
	}
}

// linkOutputs lays out the output chains. A node without patterns of its
// own shares its failure target's chain, so every node's effective output set
// is reachable from a single head.
func (t *trie) linkOutputs() {
	t.heads = make([]uint32, len(t.nodes))
	t.outputs = make([]trieOutput, 0, t.retained)
	for _, n := range t.order[1:] {
		node := &t.nodes[n]
		tail := t.heads[node.fail]
		if len(node.patterns) == 0 {
			t.heads[n] = tail
			continue
		}
		first := uint32(len(t.outputs)) + 1
		for j, p := range node.patterns {
			next := tail
			if j+1 < len(node.patterns) {
				next = first + uint32(j) + 1
			}
			t.outputs = append(t.outputs, trieOutput{pattern: p, length: node.depth, next: next})
		}
		t.heads[n] = first
	}
}

// computeMinPriority records, per node, the best priority of any pattern in
// its subtree. A leftmost-first scan whose candidate already beats that bound
// can stop early.
func (t *trie) computeMinPriority() {
	t.minPriority = make([]uint32, len(t.nodes))
	for i := len(t.order) - 1; i >= 0; i-- {
		n := t.order[i]
		best := uint32(math.MaxUint32)
		for _, p := range t.nodes[n].patterns {
			if uint32(p) < best {
				best = uint32(p)
			}
		}
		for _, e := range t.nodes[n].edges {
			if t.minPriority[e.node] < best {
				best = t.minPriority[e.node]
			}
		}
		t.minPriority[n] = best
	}
}
