package engine

import "strconv"

// Value is a position score in centipawns, saturating at +/-MateScore
// rather than overflowing past it. A score within MaxPly centipawns of
// either boundary additionally encodes a forced mate and how many plies
// away it is — the same packed-scalar idea as
// original_source/src/eval/value.rs's Value, adapted to this engine's own
// convention of encoding mate distance as MateScore-ply rather than
// reserving a separate range above VALUE_MATE.
type Value int

// IsMate reports whether v is within mating range (a forced mate for
// either side is encoded in the score).
func (v Value) IsMate() bool {
	return v > MateScore-MaxPly || v < -MateScore+MaxPly
}

// MateKind classifies an UnpackedValue.
type MateKind int

const (
	NoMate MateKind = iota
	MateIn
	MatedIn
)

// UnpackedValue is the matchable form of a Value: either a plain centipawn
// score, or a "mate in N" / "mated in N" move count.
type UnpackedValue struct {
	Kind MateKind
	N    int // moves to/from mate, valid only when Kind != NoMate
	CP   int // centipawn score, valid only when Kind == NoMate
}

// Unpack classifies v as a plain score or a mate distance, in moves
// (not plies) to match how UCI's "score mate <n>" field is defined.
func (v Value) Unpack() UnpackedValue {
	switch {
	case v > MateScore-MaxPly:
		return UnpackedValue{Kind: MateIn, N: (MateScore - int(v) + 1) / 2}
	case v < -MateScore+MaxPly:
		return UnpackedValue{Kind: MatedIn, N: (MateScore + int(v) + 1) / 2}
	default:
		return UnpackedValue{Kind: NoMate, CP: int(v)}
	}
}

// Step advances a mate-carrying Value by one ply, the way a mate score
// found at depth d becomes a ply further away once it is returned up
// through negamax's parent call. A plain centipawn score is unchanged.
func (v Value) Step() Value {
	if v > MateScore-MaxPly {
		return v - 1
	}
	if v < -MateScore+MaxPly {
		return v + 1
	}
	return v
}

// Add returns v+other, saturating at +/-MateScore instead of crossing it.
func (v Value) Add(other Value) Value {
	return clampValue(int(v) + int(other))
}

// Sub returns v-other, saturating at +/-MateScore.
func (v Value) Sub(other Value) Value {
	return v.Add(-other)
}

// Neg negates v.
func (v Value) Neg() Value {
	return -v
}

func clampValue(next int) Value {
	if next < -MateScore {
		return -MateScore
	}
	if next > MateScore {
		return MateScore
	}
	return Value(next)
}

// AsUCI formats v the way the "score" field of a UCI "info" line requires:
// "cp <n>" for a plain score, "mate <n>" (negative for a mate against us).
func (v Value) AsUCI() string {
	switch u := v.Unpack(); u.Kind {
	case MateIn:
		return "mate " + strconv.Itoa(u.N)
	case MatedIn:
		return "mate -" + strconv.Itoa(u.N)
	default:
		return "cp " + strconv.Itoa(u.CP)
	}
}

// String implements fmt.Stringer for debug output.
func (v Value) String() string {
	switch u := v.Unpack(); u.Kind {
	case MateIn:
		return "#" + strconv.Itoa(u.N)
	case MatedIn:
		return "#-" + strconv.Itoa(u.N)
	default:
		return strconv.Itoa(u.CP)
	}
}

// AdjustScoreFromTT converts a score read out of the transposition table
// (stored relative to the node it was recorded at) into one relative to
// ply plies from the search root, stepping any encoded mate distance by
// ply. Mirrors original_source/src/table.rs's ply-relative mate handling.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT is the inverse of AdjustScoreFromTT, applied before a
// score is stored so that it is independent of the ply it was found at.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
