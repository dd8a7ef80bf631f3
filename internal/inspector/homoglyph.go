package inspector

import (
	"sort"
	"unicode/utf8"

	"github.com/mtibben/confusables"
)

// substitution replaces the rune sequence from with to.
type substitution struct {
	from []rune
	to   string
}

// homoglyphTable indexes substitutions by their first rune. Every configured
// plain -> lookalike pair is stored in both directions.
type homoglyphTable map[rune][]substitution

func newHomoglyphTable(m map[string][]string) homoglyphTable {
	type pair struct{ from, to string }
	seen := make(map[pair]struct{})
	var pairs []pair

	add := func(from, to string) {
		if from == "" || to == "" || from == to {
			return
		}
		p := pair{from, to}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	for plain, lookalikes := range m {
		for _, l := range lookalikes {
			add(plain, l)
			add(l, plain)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from != pairs[j].from {
			return pairs[i].from < pairs[j].from
		}
		return pairs[i].to < pairs[j].to
	})

	table := make(homoglyphTable)
	for _, p := range pairs {
		first, _ := utf8.DecodeRuneInString(p.from)
		table[first] = append(table[first], substitution{from: []rune(p.from), to: p.to})
	}
	return table
}

// match scans label left to right and returns the first dictionary word
// reachable with a single substitution. The replaced sequence must lie
// strictly inside the label: neither its first nor its last character.
func (h homoglyphTable) match(label string, dict map[string]struct{}) (string, bool) {
	runes := []rune(label)
	n := len(runes)
	for i := 1; i < n-1; i++ {
		for _, s := range h[runes[i]] {
			k := len(s.from)
			if i+k >= n {
				continue
			}
			if !hasRunesAt(runes, i, s.from) {
				continue
			}
			candidate := string(runes[:i]) + s.to + string(runes[i+k:])
			if _, ok := dict[candidate]; ok {
				return candidate, true
			}
		}
	}
	return "", false
}

func hasRunesAt(runes []rune, i int, seq []rune) bool {
	for j, r := range seq {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// confusableWord catches IDN homographs the table cannot express, by
// comparing Unicode confusable skeletons. ASCII labels are skipped, and the
// first and last characters must be the word's own.
func confusableWord(label string, words []string) (string, bool) {
	if isASCII(label) {
		return "", false
	}
	runes := []rune(label)
	if len(runes) < 3 {
		return "", false
	}
	for _, w := range words {
		wr := []rune(w)
		if len(wr) < 3 || runes[0] != wr[0] || runes[len(runes)-1] != wr[len(wr)-1] {
			continue
		}
		if confusables.Confusable(label, w) {
			return w, true
		}
	}
	return "", false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
