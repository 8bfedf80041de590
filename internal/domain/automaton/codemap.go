package automaton

import "sort"

const (
	pageBits = 8
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// codeMapper maps codepoints to dense alphabet codes. Code 0 means the
// codepoint does not occur in any pattern; real codes start at 1 and are
// handed out most frequent first, which keeps the busiest transitions packed
// near the start of each state's block in the double array.
//
// Lookup goes through a page directory so only the 256-codepoint pages that
// contain pattern characters are materialized.
type codeMapper struct {
	dir   []int32  // codepoint>>pageBits -> page number, -1 when absent
	table []uint32 // page number<<pageBits | codepoint&pageMask -> code
	size  uint32   // number of codes handed out
}

func newCodeMapper(keys [][]rune) *codeMapper {
	freq := make(map[rune]int)
	for _, key := range keys {
		for _, r := range key {
			freq[r]++
		}
	}

	alphabet := make([]rune, 0, len(freq))
	var maxRune rune
	for r := range freq {
		alphabet = append(alphabet, r)
		if r > maxRune {
			maxRune = r
		}
	}
	sort.Slice(alphabet, func(i, j int) bool {
		fi, fj := freq[alphabet[i]], freq[alphabet[j]]
		if fi != fj {
			return fi > fj
		}
		return alphabet[i] < alphabet[j]
	})

	m := &codeMapper{dir: make([]int32, int(maxRune>>pageBits)+1)}
	for i := range m.dir {
		m.dir[i] = -1
	}
	for i, r := range alphabet {
		page := m.dir[r>>pageBits]
		if page < 0 {
			page = int32(len(m.table) >> pageBits)
			m.dir[r>>pageBits] = page
			m.table = append(m.table, make([]uint32, pageSize)...)
		}
		m.table[int(page)<<pageBits|int(r&pageMask)] = uint32(i + 1)
	}
	m.size = uint32(len(alphabet))
	return m
}

// code returns the alphabet code of r, or 0 when r is not in the alphabet.
func (m *codeMapper) code(r rune) uint32 {
	if r < 0 {
		return 0
	}
	hi := int(r >> pageBits)
	if hi >= len(m.dir) {
		return 0
	}
	page := m.dir[hi]
	if page < 0 {
		return 0
	}
	return m.table[int(page)<<pageBits|int(r&pageMask)]
}

func (m *codeMapper) heapBytes() int {
	return cap(m.dir)*4 + cap(m.table)*4
}
