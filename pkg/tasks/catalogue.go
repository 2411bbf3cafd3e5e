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

// Package tasks holds the fixed benchmark task catalogue. The catalogue is
// immutable at runtime; versioning happens by introducing new slugs.
package tasks

// Difficulty tiers.
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

// Task types.
const (
	TypeImplement = "implement"
	TypeDebug     = "debug"
	TypeOptimize  = "optimize"
)

// TestCase is one fixed check: Input is a Python list literal of
// positional arguments, Expected the literal the call must equal. Both
// must parse under ast.literal_eval in the sandbox.
type TestCase struct {
	Input    string
	Expected string
}

// FuzzFunc generates hidden test cases from a seed. Same seed, same cases.
type FuzzFunc func(seed int64, n int) []TestCase

// Task is one static catalogue entry.
type Task struct {
	Slug           string
	Difficulty     string
	Type           string
	Prompt         string
	ExpectedSymbol string
	TestCases      []TestCase
	Fuzz           FuzzFunc
	// Canonical is a known-good solution, used by the catalogue
	// self-check and the engine's own tests. Never sent to models.
	Canonical string
}

// Catalogue returns the fixed ordered task list.
func Catalogue() []Task {
	return catalogue
}

// BySlug returns the task with the given slug.
func BySlug(slug string) (Task, bool) {
	for _, t := range catalogue {
		if t.Slug == slug {
			return t, true
		}
	}
	return Task{}, false
}

var catalogue = []Task{
	{
		Slug:           "two-sum-indices",
		Difficulty:     Easy,
		Type:           TypeImplement,
		ExpectedSymbol: "find_pair_indices",
		Prompt: `Write a Python function find_pair_indices(nums, target) that returns a list
[i, j] with i < j such that nums[i] + nums[j] == target. Scan pairs in
increasing order of i, then j, and return the first match. Return an empty
list if no pair sums to target.`,
		TestCases: []TestCase{
			{Input: "[[2, 7, 11, 15], 9]", Expected: "[0, 1]"},
			{Input: "[[3, 2, 4], 6]", Expected: "[1, 2]"},
			{Input: "[[1, 2, 3], 100]", Expected: "[]"},
			{Input: "[[5, 5], 10]", Expected: "[0, 1]"},
		},
		Fuzz: fuzzTwoSum,
		Canonical: `def find_pair_indices(nums, target):
    for i in range(len(nums)):
        for j in range(i + 1, len(nums)):
            if nums[i] + nums[j] == target:
                return [i, j]
    return []`,
	},
	{
		Slug:           "reverse-words",
		Difficulty:     Easy,
		Type:           TypeImplement,
		ExpectedSymbol: "reverse_words",
		Prompt: `Write a Python function reverse_words(s) that reverses the order of the
words in the string s. Words are separated by whitespace; the result uses
single spaces and has no leading or trailing whitespace.`,
		TestCases: []TestCase{
			{Input: "['the sky is blue']", Expected: "'blue is sky the'"},
			{Input: "['  hello   world  ']", Expected: "'world hello'"},
			{Input: "['one']", Expected: "'one'"},
			{Input: "['']", Expected: "''"},
		},
		Fuzz: fuzzReverseWords,
		Canonical: `def reverse_words(s):
    return ' '.join(reversed(s.split()))`,
	},
	{
		Slug:           "balanced-brackets",
		Difficulty:     Easy,
		Type:           TypeImplement,
		ExpectedSymbol: "is_balanced",
		Prompt: `Write a Python function is_balanced(s) that returns True when every
bracket in s is matched and properly nested, else False. The bracket pairs
are (), [], and {}. Non-bracket characters may appear and are ignored.`,
		TestCases: []TestCase{
			{Input: "['([]{})']", Expected: "True"},
			{Input: "['([)]']", Expected: "False"},
			{Input: "['((']", Expected: "False"},
			{Input: "['a(b)c[d]']", Expected: "True"},
			{Input: "['']", Expected: "True"},
		},
		Fuzz: fuzzBalanced,
		Canonical: `def is_balanced(s):
    pairs = {')': '(', ']': '[', '}': '{'}
    stack = []
    for ch in s:
        if ch in '([{':
            stack.append(ch)
        elif ch in pairs:
            if not stack or stack.pop() != pairs[ch]:
                return False
    return not stack`,
	},
	{
		Slug:           "merge-intervals",
		Difficulty:     Medium,
		Type:           TypeImplement,
		ExpectedSymbol: "merge_intervals",
		Prompt: `Write a Python function merge_intervals(intervals) that merges all
overlapping or touching closed intervals. Each interval is a two-element
list [start, end] with start <= end. Return the merged intervals sorted by
start, each as a list.`,
		TestCases: []TestCase{
			{Input: "[[[1, 3], [2, 6], [8, 10], [15, 18]]]", Expected: "[[1, 6], [8, 10], [15, 18]]"},
			{Input: "[[[1, 4], [4, 5]]]", Expected: "[[1, 5]]"},
			{Input: "[[]]", Expected: "[]"},
			{Input: "[[[5, 7], [1, 3]]]", Expected: "[[1, 3], [5, 7]]"},
		},
		Fuzz: fuzzMergeIntervals,
		Canonical: `def merge_intervals(intervals):
    merged = []
    for start, end in sorted(intervals):
        if merged and start <= merged[-1][1]:
            merged[-1][1] = max(merged[-1][1], end)
        else:
            merged.append([start, end])
    return merged`,
	},
	{
		Slug:           "rotate-matrix",
		Difficulty:     Medium,
		Type:           TypeImplement,
		ExpectedSymbol: "rotate_matrix",
		Prompt: `Write a Python function rotate_matrix(matrix) that returns a new n x n
matrix rotated 90 degrees clockwise. The input is a list of n rows of n
integers and must not be modified.`,
		TestCases: []TestCase{
			{Input: "[[[1, 2], [3, 4]]]", Expected: "[[3, 1], [4, 2]]"},
			{Input: "[[[1, 2, 3], [4, 5, 6], [7, 8, 9]]]", Expected: "[[7, 4, 1], [8, 5, 2], [9, 6, 3]]"},
			{Input: "[[[42]]]", Expected: "[[42]]"},
		},
		Fuzz: fuzzRotateMatrix,
		Canonical: `def rotate_matrix(matrix):
    n = len(matrix)
    return [[matrix[n - 1 - r][c] for r in range(n)] for c in range(n)]`,
	},
	{
		Slug:           "fix-binary-search",
		Difficulty:     Medium,
		Type:           TypeDebug,
		ExpectedSymbol: "binary_search",
		Prompt: `The following binary_search(nums, target) is supposed to return the index
of target in the sorted list nums, or -1 when absent, but it misses
elements near the boundaries. Fix it and return the corrected function.

def binary_search(nums, target):
    lo, hi = 0, len(nums) - 1
    while lo < hi:
        mid = (lo + hi) // 2
        if nums[mid] == target:
            return mid
        elif nums[mid] < target:
            lo = mid
        else:
            hi = mid - 1
    return -1`,
		TestCases: []TestCase{
			{Input: "[[1, 3, 5, 7, 9], 9]", Expected: "4"},
			{Input: "[[1, 3, 5, 7, 9], 1]", Expected: "0"},
			{Input: "[[2, 4], 4]", Expected: "1"},
			{Input: "[[1, 2, 3], 10]", Expected: "-1"},
			{Input: "[[], 1]", Expected: "-1"},
		},
		Fuzz: fuzzBinarySearch,
		Canonical: `def binary_search(nums, target):
    lo, hi = 0, len(nums) - 1
    while lo <= hi:
        mid = (lo + hi) // 2
        if nums[mid] == target:
            return mid
        elif nums[mid] < target:
            lo = mid + 1
        else:
            hi = mid - 1
    return -1`,
	},
	{
		Slug:           "fix-ordered-dedupe",
		Difficulty:     Medium,
		Type:           TypeDebug,
		ExpectedSymbol: "dedupe_preserve_order",
		Prompt: `The following dedupe_preserve_order(items) should drop duplicates while
keeping the first occurrence of each item in its original position, but it
scrambles the order. Fix it and return the corrected function.

def dedupe_preserve_order(items):
    return list(set(items))`,
		TestCases: []TestCase{
			{Input: "[[3, 1, 3, 2, 1]]", Expected: "[3, 1, 2]"},
			{Input: "[['b', 'a', 'b']]", Expected: "['b', 'a']"},
			{Input: "[[]]", Expected: "[]"},
			{Input: "[[7, 7, 7]]", Expected: "[7]"},
		},
		Fuzz: fuzzDedupe,
		Canonical: `def dedupe_preserve_order(items):
    seen = set()
    out = []
    for item in items:
        if item not in seen:
            seen.add(item)
            out.append(item)
    return out`,
	},
	{
		Slug:           "top-k-frequent",
		Difficulty:     Hard,
		Type:           TypeImplement,
		ExpectedSymbol: "top_k_frequent",
		Prompt: `Write a Python function top_k_frequent(words, k) that returns the k most
frequent strings in words, ordered by descending frequency; break frequency
ties by ascending lexicographic order. Assume 1 <= k <= number of distinct
words.`,
		TestCases: []TestCase{
			{Input: "[['a', 'b', 'a', 'c', 'b', 'a'], 2]", Expected: "['a', 'b']"},
			{Input: "[['x', 'y', 'z'], 3]", Expected: "['x', 'y', 'z']"},
			{Input: "[['m', 'n', 'n', 'm', 'o'], 1]", Expected: "['m']"},
		},
		Fuzz: fuzzTopK,
		Canonical: `def top_k_frequent(words, k):
    from collections import Counter
    counts = Counter(words)
    ranked = sorted(counts, key=lambda w: (-counts[w], w))
    return ranked[:k]`,
	},
	{
		Slug:           "fast-fibonacci",
		Difficulty:     Hard,
		Type:           TypeOptimize,
		ExpectedSymbol: "fast_fib",
		Prompt: `The naive recursive Fibonacci below takes exponential time. Write
fast_fib(n) computing the same F(0)=0, F(1)=1 sequence in at most O(n)
time so that n up to several hundred returns instantly.

def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)`,
		TestCases: []TestCase{
			{Input: "[0]", Expected: "0"},
			{Input: "[1]", Expected: "1"},
			{Input: "[10]", Expected: "55"},
			{Input: "[50]", Expected: "12586269025"},
			{Input: "[200]", Expected: "280571172992510140037611932413038677189525"},
		},
		Fuzz: fuzzFib,
		Canonical: `def fast_fib(n):
    a, b = 0, 1
    for _ in range(n):
        a, b = b, a + b
    return a`,
	},
	{
		Slug:           "lcs-length",
		Difficulty:     Hard,
		Type:           TypeImplement,
		ExpectedSymbol: "lcs_length",
		Prompt: `Write a Python function lcs_length(a, b) that returns the length of the
longest common subsequence of the strings a and b. A subsequence keeps
relative order but need not be contiguous.`,
		TestCases: []TestCase{
			{Input: "['abcde', 'ace']", Expected: "3"},
			{Input: "['abc', 'abc']", Expected: "3"},
			{Input: "['abc', 'def']", Expected: "0"},
			{Input: "['', 'abc']", Expected: "0"},
		},
		Fuzz: fuzzLCS,
		Canonical: `def lcs_length(a, b):
    prev = [0] * (len(b) + 1)
    for x in a:
        cur = [0]
        for j, y in enumerate(b, 1):
            cur.append(prev[j - 1] + 1 if x == y else max(prev[j], cur[-1]))
        prev = cur
    return prev[-1]`,
	},
}
