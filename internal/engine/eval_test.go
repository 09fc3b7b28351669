package engine

import (
	"testing"

	"wyvern/internal/board"
)

// These mirror original_source/src/eval/eval.rs's own evaluate() test
// cases, which exercise the White-relative mate/draw terminal paths
// directly.

func mustParseFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestEvaluateWhiteMated(t *testing.T) {
	pos := mustParseFEN(t, "8/8/8/8/8/3k4/3q4/3K4 w - - 0 1")
	if got := Evaluate(pos); got != -MateScore {
		t.Errorf("expected White mated (-MateScore), got %d", got)
	}
}

func TestEvaluateBlackMated(t *testing.T) {
	pos := mustParseFEN(t, "4k3/4Q3/4K3/8/8/8/8/8 b - - 0 1")
	if got := Evaluate(pos); got != MateScore {
		t.Errorf("expected Black mated (+MateScore), got %d", got)
	}
}

func TestEvaluateInsufficientMaterialSingleMinor(t *testing.T) {
	pos := mustParseFEN(t, "3k4/8/8/8/2N5/8/8/3K4 w - - 0 1")
	if got := Evaluate(pos); got != 0 {
		t.Errorf("lone knight can't force mate, expected 0, got %d", got)
	}
}

func TestEvaluateInsufficientMaterialLoneBishop(t *testing.T) {
	pos := mustParseFEN(t, "3k4/8/8/5B2/8/8/8/3K4 w - - 0 1")
	if got := Evaluate(pos); got != 0 {
		t.Errorf("lone bishop can't force mate, expected 0, got %d", got)
	}
}

func TestEvaluateInsufficientMaterialTwoKnights(t *testing.T) {
	pos := mustParseFEN(t, "3k4/8/8/8/5N2/2N5/8/3K4 w - - 0 1")
	if got := Evaluate(pos); got != 0 {
		t.Errorf("KNN vs bare king can't force mate, expected 0, got %d", got)
	}
}

func TestEvaluateBareKings(t *testing.T) {
	pos := mustParseFEN(t, "3k4/8/8/8/8/8/8/3K4 w - - 0 1")
	if got := Evaluate(pos); got != 0 {
		t.Errorf("bare king vs bare king, expected 0, got %d", got)
	}
}

func TestEvaluateStartPositionIsSymmetric(t *testing.T) {
	pos := board.NewPosition()
	if got := Evaluate(pos); got != tempoBonus {
		t.Errorf("start position is material/positionally symmetric, expected only White's tempo bonus (%d), got %d", tempoBonus, got)
	}
}

func TestEvaluateWhiteRelativeNotSideToMoveRelative(t *testing.T) {
	// Every other term (material, mobility, pawn structure, space, threats)
	// reads board.White/board.Black explicitly, not "us"/"them" - flipping
	// SideToMove on an otherwise-unchanged position should shift the score
	// by exactly +/-2*tempoBonus, never flip its sign outright the way a
	// side-to-move-relative evaluator would.
	pos := mustParseFEN(t, "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 3 3")
	whiteToMove := Evaluate(pos)

	pos.SideToMove = board.Black
	blackToMove := Evaluate(pos)

	if diff := whiteToMove - blackToMove; diff != 2*tempoBonus {
		t.Errorf("flipping SideToMove alone should only change the tempo term: got diff=%d, want %d", diff, 2*tempoBonus)
	}
}

func TestWorkerEvaluateIsSideToMoveRelative(t *testing.T) {
	pos := mustParseFEN(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	w := &Worker{pos: pos, pawnTable: NewPawnTable(1)}
	whiteRelative := EvaluateWithPawnTable(pos, w.pawnTable)
	if got := w.evaluate(); got != -whiteRelative {
		t.Errorf("worker.evaluate() should negate the White-relative score when Black is to move; got %d, want %d", got, -whiteRelative)
	}
}

func TestEvaluateMaterialImbalance(t *testing.T) {
	// White is up a queen; must score heavily positive regardless of tempo.
	pos := mustParseFEN(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	if got := Evaluate(pos); got < QueenValue-100 {
		t.Errorf("expected a large positive score for a won queen, got %d", got)
	}
}
