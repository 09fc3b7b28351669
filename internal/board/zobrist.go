package board

// Zobrist hash keys for position hashing: 768 piece-square keys (6 piece
// types * 2 colors * 64 squares), 4 independent castling-right keys, 8
// en-passant-file keys, and 1 side-to-move key - 781 keys in total, each
// present in the hash if and only if the corresponding fact is true of the
// position, so that the hash can be updated incrementally with a handful of
// XORs per move instead of being recomputed from scratch.
var (
	zobristPiece      [2][7][64]uint64 // [Color][PieceType][Square] - 7 to handle NoPieceType safely
	zobristEnPassant  [8]uint64        // One per file
	zobristCastling   [4]uint64        // One per castling right: WK, WQ, BK, BQ
	zobristSideToMove uint64           // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	// Piece keys
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}

	// En passant keys (one per file)
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	// Castling keys: one independent key per right, combined with XOR.
	for i := 0; i < 4; i++ {
		zobristCastling[i] = rng.next()
	}

	// Side to move key
	zobristSideToMove = rng.next()
}

// ZobristPiece returns the Zobrist key for a piece on a square.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}

// ZobristEnPassant returns the Zobrist key for an en passant file.
func ZobristEnPassant(file int) uint64 {
	return zobristEnPassant[file]
}

// ZobristCastling returns the combined Zobrist key for a set of castling
// rights, XORing together the independent key for each right still held.
func ZobristCastling(cr CastlingRights) uint64 {
	var h uint64
	for i := 0; i < 4; i++ {
		if cr&(1<<i) != 0 {
			h ^= zobristCastling[i]
		}
	}
	return h
}

// ZobristSideToMove returns the Zobrist key for side to move.
func ZobristSideToMove() uint64 {
	return zobristSideToMove
}
