package board

import "fmt"

// Move encodes a chess move in 16 bits, following the classic
// chessprogramming.org "from-to-flags" packing:
//
//	bits 0-5:   destination square (0-63)
//	bits 6-11:  source square (0-63)
//	bit 12:     special-1
//	bit 13:     special-0
//	bit 14:     capture
//	bit 15:     promotion
//
// The four flag bits are overloaded: which "special" move a Move represents
// depends on all four bits read together, not on any one of them in
// isolation. The table below is exhaustive.
//
//	Promo Capt Spc0 Spc1   Move
//	0     0    0    0      Quiet
//	0     0    0    1      Double pawn push
//	0     0    1    0      King castle
//	0     0    1    1      Queen castle
//	0     1    0    0      Capture
//	0     1    0    1      En passant capture
//	1     0    0    0      Knight promotion
//	1     0    0    1      Bishop promotion
//	1     0    1    0      Rook promotion
//	1     0    1    1      Queen promotion
//	1     1    0    0      Knight promotion capture
//	1     1    0    1      Bishop promotion capture
//	1     1    1    0      Rook promotion capture
//	1     1    1    1      Queen promotion capture
type Move uint16

const (
	moveDestShift = 0
	moveSrcShift  = 6
	moveMask6     = 0x3F

	flagSpecial1  Move = 1 << 12
	flagSpecial0  Move = 1 << 13
	flagCapture   Move = 1 << 14
	flagPromotion Move = 1 << 15
	flagAttrMask  Move = flagSpecial1 | flagSpecial0 | flagCapture | flagPromotion
)

// NoMove represents the null move: a move that changes nothing but the side
// to move, used by the search's null-move pruning and as a sentinel zero
// value (it is bit-for-bit distinguishable from every real move: no move has
// the same source and destination square).
const NoMove Move = 0

func pack(from, to Square, attrs Move) Move {
	return Move(from)<<moveSrcShift | Move(to)<<moveDestShift | attrs
}

// NewMove creates a quiet move from the source square to the destination square.
func NewMove(from, to Square) Move {
	return pack(from, to, 0)
}

// NewCapture creates a (non-promotion, non-en-passant) capture move.
func NewCapture(from, to Square) Move {
	return pack(from, to, flagCapture)
}

// NewDoublePawnPush creates a two-square pawn advance from its start rank.
func NewDoublePawnPush(from, to Square) Move {
	return pack(from, to, flagSpecial1)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return pack(from, to, flagCapture|flagSpecial1)
}

// NewKingsideCastle creates a kingside castling move, keyed on the king's
// own source and destination squares (e1g1, e8g8).
func NewKingsideCastle(from, to Square) Move {
	return pack(from, to, flagSpecial0)
}

// NewQueensideCastle creates a queenside castling move (e1c1, e8c8).
func NewQueensideCastle(from, to Square) Move {
	return pack(from, to, flagSpecial0|flagSpecial1)
}

// promoBits encodes a promotion PieceType (Knight..Queen) into the two
// special bits, per the encoding table above.
func promoBits(pt PieceType) Move {
	switch pt {
	case Knight:
		return 0
	case Bishop:
		return flagSpecial1
	case Rook:
		return flagSpecial0
	case Queen:
		return flagSpecial0 | flagSpecial1
	default:
		panic("invalid promotion piece")
	}
}

func promoFromBits(m Move) PieceType {
	switch m & (flagSpecial0 | flagSpecial1) {
	case 0:
		return Knight
	case flagSpecial1:
		return Bishop
	case flagSpecial0:
		return Rook
	default:
		return Queen
	}
}

// NewPromotion creates a non-capturing promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return pack(from, to, flagPromotion|promoBits(promo))
}

// NewPromotionCapture creates a capturing promotion move.
func NewPromotionCapture(from, to Square, promo PieceType) Move {
	return pack(from, to, flagPromotion|flagCapture|promoBits(promo))
}

// From returns the origin square.
func (m Move) From() Square {
	return Square((m >> moveSrcShift) & moveMask6)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> moveDestShift) & moveMask6)
}

// IsQuiet returns true if the move carries none of the four attribute bits.
// A quiet move is neither a capture, an en passant, a castle, nor a promotion.
func (m Move) IsQuiet() bool {
	return m&flagAttrMask == 0
}

// IsCapture returns true if this move removes an enemy piece from the board,
// including en passant and promotion-captures.
func (m Move) IsCapture() bool {
	return m&flagCapture != 0
}

// IsEnPassant returns true if this move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m&flagAttrMask == flagCapture|flagSpecial1
}

// IsDoublePawnPush returns true if this move is a two-square pawn advance.
func (m Move) IsDoublePawnPush() bool {
	return m&flagAttrMask == flagSpecial1
}

// IsPromotion returns true if this move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m&flagPromotion != 0
}

// IsKingsideCastle returns true if this move is a kingside castle.
func (m Move) IsKingsideCastle() bool {
	return m&flagAttrMask == flagSpecial0
}

// IsQueensideCastle returns true if this move is a queenside castle.
func (m Move) IsQueensideCastle() bool {
	return m&flagAttrMask == flagSpecial0|flagSpecial1
}

// IsCastling returns true if this move is either side of castling.
func (m Move) IsCastling() bool {
	return m.IsKingsideCastle() || m.IsQueensideCastle()
}

// IsNull returns true if this is the null move.
func (m Move) IsNull() bool {
	return m == NoMove
}

// Promotion returns the piece type a pawn is promoted to. Only meaningful
// when IsPromotion() is true.
func (m Move) Promotion() PieceType {
	return promoFromBits(m)
}

// String returns the UCI representation of the move (e.g. "e2e4", "e7e8q").
// The null move is rendered as UCI's dedicated "0000".
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		promoChars := []byte{'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()-Knight])
	}
	return s
}

// ParseMove parses a UCI move string against the given position, which
// supplies the context (moving piece, en passant square, promotion rank)
// needed to classify the move into one of the fourteen encodings above. The
// decision tree mirrors UCI's own convention that a move string names only
// source, destination, and an optional promotion letter - every other
// attribute bit is inferred from the board.
func ParseMove(s string, pos *Position) (Move, error) {
	if s == "0000" {
		return NoMove, nil
	}
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	var promoChar byte
	if len(s) == 5 {
		promoChar = s[4]
	}

	moving := pos.PieceAt(from)
	if moving == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	destOccupied := pos.PieceAt(to) != NoPiece

	parsePromo := func() (PieceType, error) {
		switch promoChar {
		case 'n':
			return Knight, nil
		case 'b':
			return Bishop, nil
		case 'r':
			return Rook, nil
		case 'q':
			return Queen, nil
		default:
			return NoPieceType, fmt.Errorf("invalid promotion piece: %q", promoChar)
		}
	}

	if moving.Type() == Pawn {
		var startRank, promoRank int
		if pos.SideToMove == White {
			startRank, promoRank = 1, 7
		} else {
			startRank, promoRank = 6, 0
		}

		// Double pawn push: destination is two ranks ahead on the start rank.
		if from.Rank() == startRank {
			forward := 2
			if pos.SideToMove == Black {
				forward = -2
			}
			if to.Rank()-from.Rank() == forward && to.File() == from.File() {
				return NewDoublePawnPush(from, to), nil
			}
		}

		if PawnAttacks(from, pos.SideToMove).IsSet(to) {
			if to.Rank() == promoRank {
				pt, err := parsePromo()
				if err != nil {
					return NoMove, err
				}
				return NewPromotionCapture(from, to, pt), nil
			}
			if to == pos.EnPassant {
				return NewEnPassant(from, to), nil
			}
			return NewCapture(from, to), nil
		}

		if to.Rank() == promoRank {
			pt, err := parsePromo()
			if err != nil {
				return NoMove, err
			}
			return NewPromotion(from, to, pt), nil
		}

		return NewMove(from, to), nil
	}

	if moving.Type() == King {
		var kingStart, kingsideDest, queensideDest Square
		if pos.SideToMove == White {
			kingStart, kingsideDest, queensideDest = E1, G1, C1
		} else {
			kingStart, kingsideDest, queensideDest = E8, G8, C8
		}
		if from == kingStart {
			if to == kingsideDest {
				return NewKingsideCastle(from, to), nil
			}
			if to == queensideDest {
				return NewQueensideCastle(from, to), nil
			}
		}
		if destOccupied {
			return NewCapture(from, to), nil
		}
		return NewMove(from, to), nil
	}

	if destOccupied {
		return NewCapture(from, to), nil
	}
	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves, sized above the maximum number of
// legal moves reachable from any legal position, to avoid per-node slice
// allocation during move generation and search.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list without releasing its backing array.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves currently in the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
