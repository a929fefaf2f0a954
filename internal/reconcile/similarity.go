package reconcile

import "math"

const (
	// DateBonus is added to a name score when both dates fall within DateBonusWindowDays.
	DateBonus = 0.2
	// DateBonusWindowDays is the maximum day distance that still earns the bonus.
	DateBonusWindowDays = 3
)

// Similarity returns the Ratcliff/Obershelp ratio of a and b treated as rune
// sequences: 2*M / (len(a)+len(b)), where M is the total size of the matching
// blocks. Two empty strings score 1. Arguments are put in a canonical order
// first, so Similarity(a, b) == Similarity(b, a) exactly.
func Similarity(a, b string) float64 {
	if a > b {
		a, b = b, a
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ra, rb)) / float64(total)
}

// DateBonusFor returns DateBonus when both dates parse and are at most
// DateBonusWindowDays apart, and 0 otherwise.
func DateBonusFor(a, b string) float64 {
	da, ok := ParseDate(a)
	if !ok {
		return 0
	}
	db, ok := ParseDate(b)
	if !ok {
		return 0
	}
	days := math.Abs(da.Sub(db).Hours() / 24)
	if days <= DateBonusWindowDays {
		return DateBonus
	}
	return 0
}

// matchingRunes sums the sizes of the matching blocks found by repeatedly
// taking the longest common run and recursing on both sides of it.
func matchingRunes(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the given
// bounds. Among equally long blocks the one starting earliest in a wins, then
// earliest in b.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}
