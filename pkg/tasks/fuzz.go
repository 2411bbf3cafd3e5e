// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tasks

import (
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"strings"
)

// Fuzz generators produce hidden test cases from a seed so repeated sweeps
// within a batch see identical inputs but successive batches do not. Each
// generator carries its own reference implementation; expected values are
// rendered as Python literals for the sandbox comparison.

var fuzzWords = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
	"hotel", "india", "juliet", "kilo", "lima", "mike", "november",
}

func pyInt(v int) string { return fmt.Sprintf("%d", v) }

func pyStr(s string) string { return "'" + s + "'" }

func pyIntList(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = pyInt(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func pyStrList(vs []string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = pyStr(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func pyMatrix(m [][]int) string {
	parts := make([]string, len(m))
	for i, row := range m {
		parts[i] = pyIntList(row)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyArgs(args ...string) string {
	return "[" + strings.Join(args, ", ") + "]"
}

func fuzzTwoSum(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for len(cases) < n {
		size := 4 + rng.Intn(8)
		nums := make([]int, size)
		seen := map[int]bool{}
		for i := range nums {
			v := rng.Intn(50)
			for seen[v] {
				v = rng.Intn(50)
			}
			seen[v] = true
			nums[i] = v
		}
		i := rng.Intn(size)
		j := rng.Intn(size)
		if i == j {
			continue
		}
		target := nums[i] + nums[j]
		// Reference scan mirrors the required first-match order.
		var want []int
		for a := 0; a < size && want == nil; a++ {
			for b := a + 1; b < size; b++ {
				if nums[a]+nums[b] == target {
					want = []int{a, b}
					break
				}
			}
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyIntList(nums), pyInt(target)),
			Expected: pyIntList(want),
		})
	}
	return cases
}

func fuzzReverseWords(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		count := 1 + rng.Intn(6)
		words := make([]string, count)
		for i := range words {
			words[i] = fuzzWords[rng.Intn(len(fuzzWords))]
		}
		input := strings.Join(words, strings.Repeat(" ", 1+rng.Intn(3)))
		if rng.Intn(2) == 0 {
			input = " " + input + "  "
		}
		reversed := make([]string, count)
		for i, w := range words {
			reversed[count-1-i] = w
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyStr(input)),
			Expected: pyStr(strings.Join(reversed, " ")),
		})
	}
	return cases
}

func fuzzBalanced(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	open := []byte{'(', '[', '{'}
	close := map[byte]byte{'(': ')', '[': ']', '{': '}'}
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		// Build a balanced string, then sometimes corrupt it.
		var b []byte
		var stack []byte
		steps := 4 + rng.Intn(10)
		for i := 0; i < steps; i++ {
			if len(stack) == 0 || rng.Intn(2) == 0 {
				ch := open[rng.Intn(3)]
				b = append(b, ch)
				stack = append(stack, ch)
			} else {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				b = append(b, close[top])
			}
		}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			b = append(b, close[top])
		}
		s := string(b)
		want := true
		if rng.Intn(2) == 0 && len(s) > 0 {
			pos := rng.Intn(len(s))
			s = s[:pos] + s[pos+1:]
			want = refBalanced(s)
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyStr(s)),
			Expected: pyBool(want),
		})
	}
	return cases
}

func refBalanced(s string) bool {
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}
	var stack []byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '(', '[', '{':
			stack = append(stack, ch)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[ch] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

func fuzzMergeIntervals(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		count := 1 + rng.Intn(7)
		intervals := make([][]int, count)
		for i := range intervals {
			start := rng.Intn(40)
			intervals[i] = []int{start, start + rng.Intn(10)}
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyMatrix(intervals)),
			Expected: pyMatrix(refMergeIntervals(intervals)),
		})
	}
	return cases
}

func refMergeIntervals(intervals [][]int) [][]int {
	sorted := make([][]int, len(intervals))
	for i, iv := range intervals {
		sorted[i] = []int{iv[0], iv[1]}
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a][0] != sorted[b][0] {
			return sorted[a][0] < sorted[b][0]
		}
		return sorted[a][1] < sorted[b][1]
	})
	merged := [][]int{}
	for _, iv := range sorted {
		if len(merged) > 0 && iv[0] <= merged[len(merged)-1][1] {
			if iv[1] > merged[len(merged)-1][1] {
				merged[len(merged)-1][1] = iv[1]
			}
		} else {
			merged = append(merged, iv)
		}
	}
	return merged
}

func fuzzRotateMatrix(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		size := 1 + rng.Intn(5)
		m := make([][]int, size)
		for r := range m {
			m[r] = make([]int, size)
			for c := range m[r] {
				m[r][c] = rng.Intn(100)
			}
		}
		rotated := make([][]int, size)
		for c := 0; c < size; c++ {
			rotated[c] = make([]int, size)
			for r := 0; r < size; r++ {
				rotated[c][r] = m[size-1-r][c]
			}
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyMatrix(m)),
			Expected: pyMatrix(rotated),
		})
	}
	return cases
}

func fuzzBinarySearch(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		size := 1 + rng.Intn(12)
		nums := make([]int, size)
		v := rng.Intn(5)
		for i := range nums {
			nums[i] = v
			v += 1 + rng.Intn(4) // strictly increasing
		}
		var target, want int
		if rng.Intn(3) == 0 {
			target = nums[size-1] + 1 + rng.Intn(5)
			want = -1
		} else {
			want = rng.Intn(size)
			target = nums[want]
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyIntList(nums), pyInt(target)),
			Expected: pyInt(want),
		})
	}
	return cases
}

func fuzzDedupe(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		size := 1 + rng.Intn(12)
		items := make([]int, size)
		for i := range items {
			items[i] = rng.Intn(6)
		}
		seen := map[int]bool{}
		var want []int
		for _, it := range items {
			if !seen[it] {
				seen[it] = true
				want = append(want, it)
			}
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyIntList(items)),
			Expected: pyIntList(want),
		})
	}
	return cases
}

func fuzzTopK(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		distinct := 3 + rng.Intn(5)
		chosen := rng.Perm(len(fuzzWords))[:distinct]
		var words []string
		type wc struct {
			word  string
			count int
		}
		counts := make([]wc, distinct)
		for i, idx := range chosen {
			c := 1 + rng.Intn(5)
			counts[i] = wc{fuzzWords[idx], c}
			for j := 0; j < c; j++ {
				words = append(words, fuzzWords[idx])
			}
		}
		rng.Shuffle(len(words), func(a, b int) { words[a], words[b] = words[b], words[a] })
		sort.Slice(counts, func(a, b int) bool {
			if counts[a].count != counts[b].count {
				return counts[a].count > counts[b].count
			}
			return counts[a].word < counts[b].word
		})
		topK := 1 + rng.Intn(distinct)
		want := make([]string, topK)
		for i := 0; i < topK; i++ {
			want[i] = counts[i].word
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyStrList(words), pyInt(topK)),
			Expected: pyStrList(want),
		})
	}
	return cases
}

func fuzzFib(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		idx := 50 + rng.Intn(351)
		a, b := big.NewInt(0), big.NewInt(1)
		for i := 0; i < idx; i++ {
			a.Add(a, b)
			a, b = b, a
		}
		cases = append(cases, TestCase{
			Input:    pyArgs(pyInt(idx)),
			Expected: a.String(),
		})
	}
	return cases
}

func fuzzLCS(seed int64, n int) []TestCase {
	rng := rand.New(rand.NewSource(seed))
	alphabet := "abcd"
	cases := make([]TestCase, 0, n)
	for k := 0; k < n; k++ {
		a := randString(rng, alphabet, 2+rng.Intn(10))
		b := randString(rng, alphabet, 2+rng.Intn(10))
		cases = append(cases, TestCase{
			Input:    pyArgs(pyStr(a), pyStr(b)),
			Expected: pyInt(refLCS(a, b)),
		})
	}
	return cases
}

func randString(rng *rand.Rand, alphabet string, length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return b.String()
}

func refLCS(a, b string) int {
	prev := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		cur := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev = cur
	}
	return prev[len(b)]
}
