package graph

import (
	"github.com/aretw0/lattice/pkg/domain"
)

// NextNodeID returns one more than the largest numeric node id. Ids are read by
// their leading integer, so "12" counts as 12 while "section-3" counts as 0.
func NextNodeID(nodes []domain.Node) int {
	highest := 0
	for _, n := range nodes {
		if v := leadingInt(n.ID); v > highest {
			highest = v
		}
	}
	return highest + 1
}

// leadingInt parses an optional sign and the leading decimal digits of s,
// skipping leading whitespace. It returns 0 when no digits are present.
func leadingInt(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	v := 0
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if v > (1<<31)/10 {
			break
		}
		v = v*10 + int(s[i]-'0')
		digits++
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -v
	}
	return v
}
