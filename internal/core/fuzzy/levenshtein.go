// Package fuzzy implements edit-distance based string similarity.
package fuzzy

import (
	"github.com/baditaflorin/go_prompt_score/internal/pool"
)

var (
	runeBuffers = pool.NewRuneBufferPool(64)
	dpRows      = pool.NewIntRowPool(64)
)

// LevenshteinDistance returns the unit-cost edit distance between a and b, over runes.
//
// It evaluates the classic recurrence
//
//	dp[i][0] = i, dp[0][j] = j
//	dp[i][j] = dp[i-1][j-1]                                   if a[i-1] == b[j-1]
//	dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])  otherwise
//
// keeping only two rows of the table at a time.
func LevenshteinDistance(a, b string) int {
	bufA := runeBuffers.Get()
	defer runeBuffers.Put(bufA)
	bufB := runeBuffers.Get()
	defer runeBuffers.Put(bufB)

	ra := pool.AppendRunes(bufA, a)
	rb := pool.AppendRunes(bufB, b)
	m, n := len(ra), len(rb)

	prevRow := dpRows.Get(n + 1)
	defer dpRows.Put(prevRow)
	currRow := dpRows.Get(n + 1)
	defer dpRows.Put(currRow)

	prev, curr := *prevRow, *currRow
	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}
