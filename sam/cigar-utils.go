package sam

// Operations that consume reference positions for coverage purposes:
// alignment matches ('M'), sequence matches and mismatches ('=', 'X'),
// and deletions ('D'). Insertions, clips, padding, and reference skips
// ('N') do not put read bases on the reference.
var cigarConsumesReferenceBases = map[byte]int32{'M': 1, 'D': 1, '=': 1, 'X': 1}

// ReferenceSpan sums the lengths of all CIGAR operations that consume
// reference positions. An empty operation slice (the unmapped sentinel
// "*") yields 0.
func ReferenceSpan(cigars []CigarOperation) int32 {
	var length int32
	for _, op := range cigars {
		length += cigarConsumesReferenceBases[op.Operation] * op.Length
	}
	return length
}

// End returns the 1-based, inclusive rightmost reference position
// covered by an alignment that starts at the given position.
func End(pos int32, cigars []CigarOperation) int32 {
	return pos + ReferenceSpan(cigars) - 1
}
