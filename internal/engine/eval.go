// Package engine implements the chess AI search engine.
package engine

import (
	"wyvern/internal/board"
)

// Evaluation constants
// Material weights match original_source/src/eval/eval.rs's PAWN_WEIGHT /
// KNIGHT_WEIGHT / BISHOP_WEIGHT / ROOK_WEIGHT / QUEEN_WEIGHT, not the
// teacher's 320/330 move-ordering skew (see board.PieceValue).
const (
	PawnValue   = 100
	KnightValue = 300
	BishopValue = 300
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// Piece values array for quick lookup
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// tempoBonus rewards the side to move for having the initiative.
const tempoBonus = 15

// Evaluate returns the static evaluation of the position from White's
// perspective, following the step order original_source/src/eval/eval.rs
// lays out: mobility/terminal check, material, mobility term, pawn
// structure, space, threats, tempo, then an insufficient-material draw
// clamp.
func Evaluate(pos *board.Position) int {
	return evaluateCore(pos, evaluatePawnStructure(pos))
}

// EvaluateWithPawnTable is like Evaluate but routes the pawn structure term
// through pawnTable, since pawn structure depends only on pawns and is by
// far the most repeated sub-computation across a search tree.
func EvaluateWithPawnTable(pos *board.Position, pawnTable *PawnTable) int {
	return evaluateCore(pos, evaluatePawnStructureWithCache(pos, pawnTable))
}

// evaluateCore implements the 8-step evaluator shared by Evaluate and
// EvaluateWithPawnTable, taking the pawn structure term as a parameter so
// the only difference between the two is whether it was cached. The result
// is always from White's perspective (positive favors White); callers that
// need a side-to-move-relative value for negamax negate it themselves, the
// way original_source/src/search.rs's quiesce negates eval::evaluate only
// when Black is to move.
func evaluateCore(pos *board.Position, pawnStructure int) int {
	// Step 1: mobility / terminal check. A side with no legal moves is
	// either checkmated (if in check) or the game is drawn by stalemate.
	whiteMobility := countLegalMoves(pos, board.White)
	if whiteMobility == 0 {
		if inCheckAs(pos, board.White) {
			return -MateScore
		}
		return 0
	}
	blackMobility := countLegalMoves(pos, board.Black)
	if blackMobility == 0 {
		if inCheckAs(pos, board.Black) {
			return MateScore
		}
		return 0
	}

	// Step 2: material. Kings are unscored.
	material := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		material += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		material -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}

	// Step 3: mobility term.
	mobility := ((whiteMobility - 4) - (blackMobility - 4)) * 4

	// Step 5: space.
	space := evaluateSpace(pos)

	// Step 6: threats.
	threats := evaluateThreats(pos)

	score := material + mobility + pawnStructure + space + threats

	// Step 7: tempo. Only the side to move gets it.
	if pos.SideToMove == board.White {
		score += tempoBonus
	} else {
		score -= tempoBonus
	}

	// Step 8: insufficient-material draw adjustment, evaluated against
	// whichever side the raw score currently favors.
	return finalAdjustment(pos, score)
}

// countLegalMoves returns the number of legal moves available to side,
// regardless of whose turn it actually is. board.Position's move generator
// only reads SideToMove to tell "us" from "them", and MakeMove/UnmakeMove
// restore Hash and every other field exactly, so flipping SideToMove for
// the scope of a single generate-and-restore is safe.
func countLegalMoves(pos *board.Position, side board.Color) int {
	actual := pos.SideToMove
	pos.SideToMove = side
	n := pos.GenerateLegalMoves().Len()
	pos.SideToMove = actual
	return n
}

// inCheckAs reports whether side's king is currently attacked, independent
// of whose turn it is.
func inCheckAs(pos *board.Position, side board.Color) bool {
	return pos.IsSquareAttacked(pos.KingSquare[side], side.Other())
}

// finalAdjustment clamps score to 0 when the side it nominally favors
// cannot actually force mate, mirroring original_source/src/eval/eval.rs's
// final_adjustment: it only ever inspects the nominal winner's own
// material, not both sides symmetrically.
func finalAdjustment(pos *board.Position, score int) int {
	winner := board.White
	if score <= 0 {
		winner = board.Black
	}
	loser := winner.Other()

	if pos.Pieces[winner][board.Pawn] != 0 {
		return score
	}

	knights := pos.Pieces[winner][board.Knight].PopCount()
	bishops := pos.Pieces[winner][board.Bishop].PopCount()
	rooks := pos.Pieces[winner][board.Rook].PopCount()
	queens := pos.Pieces[winner][board.Queen].PopCount()

	// A single minor piece alone can't force mate.
	if rooks == 0 && queens == 0 && knights+bishops == 1 {
		return 0
	}

	loserPieceCount := popCountAllPieces(pos, loser)

	// King + two knights vs. bare king can't force mate either.
	if loserPieceCount == 1 && bishops == 0 && rooks == 0 && queens == 0 && knights == 2 {
		return 0
	}

	// Bare king vs. bare king.
	winnerPieceCount := popCountAllPieces(pos, winner)
	if winnerPieceCount == 1 && loserPieceCount == 1 {
		return 0
	}

	return score
}

// popCountAllPieces counts every piece (including the king) side has on
// the board.
func popCountAllPieces(pos *board.Position, side board.Color) int {
	n := 0
	for pt := board.Pawn; pt <= board.King; pt++ {
		n += pos.Pieces[side][pt].PopCount()
	}
	return n
}

// EvaluateMaterial returns just the material balance (for quick evaluation).
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// SEE (Static Exchange Evaluation) estimates the result of a capture sequence.
// Returns the estimated material gain/loss from the perspective of the moving side.
// This is a proper implementation that simulates the entire capture sequence.
func SEE(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	// Get initial capture value
	var capturedValue int
	if m.IsEnPassant() {
		capturedValue = PawnValue
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0 // Not a capture
		}
		capturedValue = pieceValues[victim.Type()]
	}

	// Add promotion bonus if applicable
	if m.IsPromotion() {
		capturedValue += pieceValues[m.Promotion()] - PawnValue
	}

	// Use the swap algorithm for SEE
	// This simulates captures alternating between sides
	return seeSwap(pos, to, from, attacker, capturedValue)
}

// seeSwap performs the SEE swap algorithm.
// It simulates alternating captures on the target square.
func seeSwap(pos *board.Position, target, excludeFrom board.Square, firstAttacker board.Piece, initialGain int) int {
	// Gain array for the swap algorithm
	var gain [32]int
	d := 0 // Depth in swap sequence

	// Start with initial capture gain
	gain[d] = initialGain

	// Occupied bitboard, excluding the initial attacker
	occupied := pos.AllOccupied &^ board.SquareBB(excludeFrom)

	// Current attacker info
	attackerValue := pieceValues[firstAttacker.Type()]
	side := firstAttacker.Color().Other() // Next side to capture

	// Find all attackers and simulate capture sequence
	for {
		d++

		// Gain at this depth is the attacker value minus what opponent gains after
		gain[d] = attackerValue - gain[d-1]

		// If we're clearly winning, we can stop (opponent won't recapture)
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}

		// Find least valuable attacker for this side
		attackerSq, attackerPiece := getLeastValuableAttacker(pos, target, side, occupied)
		if attackerSq == board.NoSquare {
			break // No more attackers
		}

		// Remove attacker from occupied
		occupied &^= board.SquareBB(attackerSq)

		// Update attacker value and switch sides
		attackerValue = pieceValues[attackerPiece.Type()]
		side = side.Other()

		// Check for x-ray attackers revealed
		// (handled implicitly by getLeastValuableAttacker using updated occupied)
	}

	// Negamax the gain array to get final result
	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}

	return gain[0]
}

// getLeastValuableAttacker finds the least valuable piece attacking a square.
// Returns NoSquare if no attacker found.
func getLeastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	// Check attackers in order of value (pawn first, king last)

	// Pawns
	pawns := pos.Pieces[side][board.Pawn]
	pawnAttacks := board.PawnAttacks(target, side.Other()) // Squares that attack target
	attackers := pawns & pawnAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Pawn, side)
	}

	// Knights
	knights := pos.Pieces[side][board.Knight]
	knightAttacks := board.KnightAttacks(target)
	attackers = knights & knightAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Knight, side)
	}

	// Bishops (and diagonal queen attacks)
	bishops := pos.Pieces[side][board.Bishop]
	bishopAttacks := board.BishopAttacks(target, occupied)
	attackers = bishops & bishopAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Bishop, side)
	}

	// Rooks (and straight queen attacks)
	rooks := pos.Pieces[side][board.Rook]
	rookAttacks := board.RookAttacks(target, occupied)
	attackers = rooks & rookAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Rook, side)
	}

	// Queens (check both diagonal and straight)
	queens := pos.Pieces[side][board.Queen]
	attackers = queens & (bishopAttacks | rookAttacks) & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Queen, side)
	}

	// King (only if no other attackers, king captures last)
	kingBB := pos.Pieces[side][board.King]
	kingAttacks := board.KingAttacks(target)
	attackers = kingBB & kingAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.King, side)
	}

	return board.NoSquare, board.NoPiece
}

// max returns the maximum of two integers.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Helper functions for computing attack bitboards, shared with worker.go's
// threat-pruning code.

func computePawnAttacksBB(pos *board.Position, color board.Color) board.Bitboard {
	pawns := pos.Pieces[color][board.Pawn]
	if color == board.White {
		return pawns.NorthEast() | pawns.NorthWest()
	}
	return pawns.SouthEast() | pawns.SouthWest()
}

func computeKnightAttacksBB(pos *board.Position, color board.Color) board.Bitboard {
	knights := pos.Pieces[color][board.Knight]
	var attacks board.Bitboard
	for knights != 0 {
		sq := knights.PopLSB()
		attacks |= board.KnightAttacks(sq)
	}
	return attacks
}

func computeBishopAttacksBB(pos *board.Position, color board.Color, occupied board.Bitboard) board.Bitboard {
	bishops := pos.Pieces[color][board.Bishop]
	var attacks board.Bitboard
	for bishops != 0 {
		sq := bishops.PopLSB()
		attacks |= board.BishopAttacks(sq, occupied)
	}
	return attacks
}

func computeRookAttacksBB(pos *board.Position, color board.Color, occupied board.Bitboard) board.Bitboard {
	rooks := pos.Pieces[color][board.Rook]
	var attacks board.Bitboard
	for rooks != 0 {
		sq := rooks.PopLSB()
		attacks |= board.RookAttacks(sq, occupied)
	}
	return attacks
}

func computeQueenAttacksBB(pos *board.Position, color board.Color, occupied board.Bitboard) board.Bitboard {
	queens := pos.Pieces[color][board.Queen]
	var attacks board.Bitboard
	for queens != 0 {
		sq := queens.PopLSB()
		attacks |= board.QueenAttacks(sq, occupied)
	}
	return attacks
}

// allAttacksBB returns every square attacked by any piece of color, used by
// evaluateThreats and evaluateSpace.
func allAttacksBB(pos *board.Position, color board.Color, occupied board.Bitboard) board.Bitboard {
	return computePawnAttacksBB(pos, color) |
		computeKnightAttacksBB(pos, color) |
		computeBishopAttacksBB(pos, color, occupied) |
		computeRookAttacksBB(pos, color, occupied) |
		computeQueenAttacksBB(pos, color, occupied) |
		board.KingAttacks(pos.KingSquare[color])
}

// adjacentFilesMask returns the files immediately left and right of file f.
func adjacentFilesMask(f int) board.Bitboard {
	var mask board.Bitboard
	if f > 0 {
		mask |= board.FileMask[f-1]
	}
	if f < 7 {
		mask |= board.FileMask[f+1]
	}
	return mask
}

// pawnStructurePenalty sums the isolated/doubled/backward penalties for
// every pawn of color c, following the per-pawn definitions normative here:
// isolated has no friendly pawn on an adjacent file; doubled shares its file
// with another friendly pawn; backward has no friendly pawn on an adjacent
// file behind it and can't safely advance because the square ahead is
// covered by an enemy pawn.
func pawnStructurePenalty(pos *board.Position, c board.Color) int {
	pawns := pos.Pieces[c][board.Pawn]
	enemy := c.Other()
	enemyPawnAttacks := computePawnAttacksBB(pos, enemy)

	penalty := 0
	bb := pawns
	for bb != 0 {
		sq := bb.PopLSB()
		f, r := sq.File(), sq.Rank()
		adjFiles := adjacentFilesMask(f)

		if pawns&adjFiles == 0 {
			penalty -= 17
		}
		if (pawns & board.FileMask[f]).PopCount() > 1 {
			penalty -= 10
		}

		var behind board.Bitboard
		var aheadValid bool
		var aheadSq board.Square
		if c == board.White {
			for rr := 0; rr < r; rr++ {
				behind |= board.RankMask[rr]
			}
			if r < 7 {
				aheadSq, aheadValid = board.NewSquare(f, r+1), true
			}
		} else {
			for rr := r + 1; rr < 8; rr++ {
				behind |= board.RankMask[rr]
			}
			if r > 0 {
				aheadSq, aheadValid = board.NewSquare(f, r-1), true
			}
		}

		backward := pawns&adjFiles&behind == 0
		if backward && aheadValid && enemyPawnAttacks.IsSet(aheadSq) {
			penalty -= 10
		}
	}
	return penalty
}

// evaluatePawnStructure sums pawnStructurePenalty for both sides, from
// White's perspective.
func evaluatePawnStructure(pos *board.Position) int {
	return pawnStructurePenalty(pos, board.White) - pawnStructurePenalty(pos, board.Black)
}

// evaluatePawnStructureWithCache is evaluatePawnStructure routed through a
// pawn hash table keyed on PawnKey, since the result depends only on pawns.
// The endgame-score slot of PawnEntry goes unused here; pawn structure isn't
// tapered, unlike the teacher's mg/eg split this table was originally sized
// for.
func evaluatePawnStructureWithCache(pos *board.Position, pt *PawnTable) int {
	if score, _, found := pt.Probe(pos.PawnKey); found {
		return score
	}
	score := evaluatePawnStructure(pos)
	pt.Store(pos.PawnKey, score, 0)
	return score
}

// centerFrontThree returns the zone evaluateSpace scans for c: files C-F,
// in c's front three ranks.
func centerFrontThree(c board.Color) board.Bitboard {
	centerFiles := board.FileC | board.FileD | board.FileE | board.FileF
	if c == board.White {
		return centerFiles & (board.Rank2 | board.Rank3 | board.Rank4)
	}
	return centerFiles & (board.Rank7 | board.Rank6 | board.Rank5)
}

// evaluateSpace scores, for each side, squares in its front-three-rank
// center-file zone that aren't occupied by its own pawns or attacked by an
// enemy pawn ("safe"), plus a second count of those same squares that also
// sit in the one- or two-square shadow behind one of its own pawns and
// aren't attacked by the enemy at all ("totally safe") - so a totally safe
// square counts twice. Weighted x13. Mirrors
// original_source/src/eval/eval.rs's space().
func evaluateSpace(pos *board.Position) int {
	occupied := pos.AllOccupied
	score := 0
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ownPawns := pos.Pieces[c][board.Pawn]
		enemyPawnAttacks := computePawnAttacksBB(pos, c.Other())

		safe := centerFrontThree(c) &^ ownPawns &^ enemyPawnAttacks

		behind := ownPawns
		shadow1, shadow2 := ownPawns.South(), ownPawns.South().South()
		if c == board.Black {
			shadow1, shadow2 = ownPawns.North(), ownPawns.North().North()
		}
		behind |= shadow1 | shadow2

		enemyAttacks := allAttacksBB(pos, c.Other(), occupied)
		totallySafe := safe & behind &^ enemyAttacks

		score += sign * (safe.PopCount() + totallySafe.PopCount()) * 13
	}
	return score
}

// evaluateThreats scores, for each side, enemy pieces it attacks that the
// enemy doesn't defend, weighted x7. The enemy king is excluded: it can
// never legally be captured, so "attacking" it isn't a threat in this sense
// (a position where it would be is already illegal - the side to move
// would be in check).
func evaluateThreats(pos *board.Position) int {
	occupied := pos.AllOccupied
	score := 0
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		enemy := c.Other()
		ourAttacks := allAttacksBB(pos, c, occupied)
		enemyDefense := allAttacksBB(pos, enemy, occupied)
		enemyPieces := pos.Occupied[enemy] &^ board.SquareBB(pos.KingSquare[enemy])

		undefended := enemyPieces & ourAttacks &^ enemyDefense
		score += sign * undefended.PopCount() * 7
	}
	return score
}
