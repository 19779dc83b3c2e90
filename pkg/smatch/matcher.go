package smatch

import (
	"math/rand"

	"github.com/amrlabs/amrd/pkg/amr"
)

type varPair struct {
	source int
	target int
}

// matcher holds the precomputed match-weight tables for one graph pair. The
// tables are read-only after construction, so restarts may share them
// concurrently.
type matcher struct {
	candCount int
	refCount  int

	// unary[i][j] counts the instance, attribute and self-loop triples
	// that agree when candidate variable i maps to reference variable j.
	unary [][]int

	// conceptTargets[i] lists the reference variables whose concept
	// equals candidate variable i's concept.
	conceptTargets [][]int

	// candRel and refRel count relation triples per ordered variable
	// pair, keyed by relation label.
	candRel map[varPair]map[string]int
	refRel  map[varPair]map[string]int

	// partners[i] lists the candidate variables i shares at least one
	// relation triple with, in either direction, excluding itself.
	partners [][]int
}

func newMatcher(candidate *amr.Graph, reference *amr.Graph) *matcher {
	candIndex := indexVariables(candidate)
	refIndex := indexVariables(reference)

	m := &matcher{
		candCount: len(candidate.Variables),
		refCount:  len(reference.Variables),
		candRel:   relationCounts(candidate, candIndex),
		refRel:    relationCounts(reference, refIndex),
	}

	candAttrs := attributeCounts(candidate, candIndex)
	refAttrs := attributeCounts(reference, refIndex)
	candSelf := selfLoopCounts(candidate, candIndex)
	refSelf := selfLoopCounts(reference, refIndex)

	m.unary = make([][]int, m.candCount)
	m.conceptTargets = make([][]int, m.candCount)
	for i, candVar := range candidate.Variables {
		m.unary[i] = make([]int, m.refCount)
		for j, refVar := range reference.Variables {
			weight := 0
			if amr.Normalize(candidate.Concepts[candVar]) == amr.Normalize(reference.Concepts[refVar]) {
				weight++
				m.conceptTargets[i] = append(m.conceptTargets[i], j)
			}
			weight += multisetOverlap(candAttrs[i], refAttrs[j])
			weight += multisetOverlap(candSelf[i], refSelf[j])
			m.unary[i][j] = weight
		}
	}

	m.partners = make([][]int, m.candCount)
	seen := make(map[varPair]bool)
	for pair := range m.candRel {
		if pair.source == pair.target {
			continue
		}
		key := varPair{source: min(pair.source, pair.target), target: max(pair.source, pair.target)}
		if seen[key] {
			continue
		}
		seen[key] = true
		m.partners[pair.source] = append(m.partners[pair.source], pair.target)
		m.partners[pair.target] = append(m.partners[pair.target], pair.source)
	}

	return m
}

func indexVariables(g *amr.Graph) map[string]int {
	index := make(map[string]int, len(g.Variables))
	for i, variable := range g.Variables {
		index[variable] = i
	}
	return index
}

// attributeCounts keys each variable's constant triples, the synthetic top
// triple included, by relation plus value.
func attributeCounts(g *amr.Graph, index map[string]int) []map[string]int {
	counts := make([]map[string]int, len(g.Variables))
	for i := range counts {
		counts[i] = make(map[string]int)
	}
	for _, triple := range g.AttributeTriples() {
		i := index[triple.Source]
		counts[i][triple.Relation+"\x00"+amr.Normalize(triple.Target)]++
	}
	return counts
}

func selfLoopCounts(g *amr.Graph, index map[string]int) []map[string]int {
	counts := make([]map[string]int, len(g.Variables))
	for _, edge := range g.Edges {
		if edge.Source != edge.Target {
			continue
		}
		i := index[edge.Source]
		if counts[i] == nil {
			counts[i] = make(map[string]int)
		}
		counts[i][edge.Relation]++
	}
	return counts
}

func relationCounts(g *amr.Graph, index map[string]int) map[varPair]map[string]int {
	counts := make(map[varPair]map[string]int)
	for _, edge := range g.Edges {
		if edge.Source == edge.Target {
			continue
		}
		pair := varPair{source: index[edge.Source], target: index[edge.Target]}
		if counts[pair] == nil {
			counts[pair] = make(map[string]int)
		}
		counts[pair][edge.Relation]++
	}
	return counts
}

// multisetOverlap sums the per-key minimum of two count maps, so duplicate
// triples never match more often than they occur on either side.
func multisetOverlap(a map[string]int, b map[string]int) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	overlap := 0
	for key, countA := range a {
		if countB, ok := b[key]; ok {
			overlap += min(countA, countB)
		}
	}
	return overlap
}

func (m *matcher) unaryAt(i int, j int) int {
	if j < 0 {
		return 0
	}
	return m.unary[i][j]
}

// pairWeight counts the relation triples between candidate variables i1 and
// i2, both directions, that agree under i1->j1, i2->j2.
func (m *matcher) pairWeight(i1 int, j1 int, i2 int, j2 int) int {
	if j1 < 0 || j2 < 0 {
		return 0
	}
	weight := multisetOverlap(m.candRel[varPair{source: i1, target: i2}], m.refRel[varPair{source: j1, target: j2}])
	weight += multisetOverlap(m.candRel[varPair{source: i2, target: i1}], m.refRel[varPair{source: j2, target: j1}])
	return weight
}

// score computes the full matched-triple count for a mapping.
func (m *matcher) score(mapping []int) int {
	total := 0
	for i, j := range mapping {
		total += m.unaryAt(i, j)
	}
	for pair, relations := range m.candRel {
		if pair.source == pair.target {
			continue
		}
		j1 := mapping[pair.source]
		j2 := mapping[pair.target]
		if j1 < 0 || j2 < 0 {
			continue
		}
		total += multisetOverlap(relations, m.refRel[varPair{source: j1, target: j2}])
	}
	return total
}

// localScore totals every term a move of the given variables can change:
// their unary weights plus all relation weights they participate in, the
// shared pair counted once.
func (m *matcher) localScore(mapping []int, vars ...int) int {
	total := 0
	involved := make(map[int]bool, len(vars))
	for _, i := range vars {
		involved[i] = true
	}
	for _, i := range vars {
		total += m.unaryAt(i, mapping[i])
		for _, partner := range m.partners[i] {
			if involved[partner] && partner < i {
				continue
			}
			total += m.pairWeight(i, mapping[i], partner, mapping[partner])
		}
	}
	return total
}

func (m *matcher) moveGain(mapping []int, i int, newTarget int) int {
	oldTarget := mapping[i]
	mapping[i] = newTarget
	after := m.localScore(mapping, i)
	mapping[i] = oldTarget
	return after - m.localScore(mapping, i)
}

func (m *matcher) swapGain(mapping []int, i1 int, i2 int) int {
	before := m.localScore(mapping, i1, i2)
	mapping[i1], mapping[i2] = mapping[i2], mapping[i1]
	after := m.localScore(mapping, i1, i2)
	mapping[i1], mapping[i2] = mapping[i2], mapping[i1]
	return after - before
}

// greedySeed maps each candidate variable, in order, to the first free
// reference variable sharing its concept.
func (m *matcher) greedySeed() []int {
	mapping := make([]int, m.candCount)
	used := make([]bool, m.refCount)
	for i := range mapping {
		mapping[i] = -1
		for _, j := range m.conceptTargets[i] {
			if !used[j] {
				mapping[i] = j
				used[j] = true
				break
			}
		}
	}
	return mapping
}

// randomSeed maps each candidate variable to a random free concept-sharing
// reference variable, visiting candidates in shuffled order so contended
// targets are not always claimed by the lowest index.
func (m *matcher) randomSeed(rng *rand.Rand) []int {
	mapping := make([]int, m.candCount)
	for i := range mapping {
		mapping[i] = -1
	}
	used := make([]bool, m.refCount)
	for _, i := range rng.Perm(m.candCount) {
		var free []int
		for _, j := range m.conceptTargets[i] {
			if !used[j] {
				free = append(free, j)
			}
		}
		if len(free) == 0 {
			continue
		}
		j := free[rng.Intn(len(free))]
		mapping[i] = j
		used[j] = true
	}
	return mapping
}

// climb runs one restart to its local optimum and returns the matched-triple
// count there. Restart 0 starts from the greedy seed; later restarts derive
// their own rng stream from the seed and the restart index.
func (m *matcher) climb(restart int, seed int64) int {
	if m.candCount == 0 || m.refCount == 0 {
		return 0
	}

	var mapping []int
	if restart == 0 {
		mapping = m.greedySeed()
	} else {
		rng := rand.New(rand.NewSource(seed + int64(restart)))
		mapping = m.randomSeed(rng)
	}

	used := make([]bool, m.refCount)
	for _, j := range mapping {
		if j >= 0 {
			used[j] = true
		}
	}

	for {
		bestGain := 0
		bestMove := func() {}

		for i := 0; i < m.candCount; i++ {
			current := mapping[i]
			for j := -1; j < m.refCount; j++ {
				if j == current || (j >= 0 && used[j]) {
					continue
				}
				if gain := m.moveGain(mapping, i, j); gain > bestGain {
					i, j := i, j
					bestGain = gain
					bestMove = func() {
						if mapping[i] >= 0 {
							used[mapping[i]] = false
						}
						mapping[i] = j
						if j >= 0 {
							used[j] = true
						}
					}
				}
			}
		}

		for i1 := 0; i1 < m.candCount; i1++ {
			for i2 := i1 + 1; i2 < m.candCount; i2++ {
				if mapping[i1] == mapping[i2] {
					continue
				}
				if gain := m.swapGain(mapping, i1, i2); gain > bestGain {
					i1, i2 := i1, i2
					bestGain = gain
					bestMove = func() {
						mapping[i1], mapping[i2] = mapping[i2], mapping[i1]
					}
				}
			}
		}

		if bestGain <= 0 {
			return m.score(mapping)
		}
		bestMove()
	}
}

func min(a int, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a int, b int) int {
	if a > b {
		return a
	}
	return b
}
