package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FENErrorKind enumerates the ways a FEN string can fail to parse, so
// callers (in particular the UCI "position fen ..." command) can report a
// specific, machine-checkable reason rather than sniffing an error string.
type FENErrorKind int

const (
	ErrFieldCount FENErrorKind = iota
	ErrRankCount
	ErrRankSquareCount
	ErrInvalidPieceChar
	ErrInvalidSideToMove
	ErrInvalidCastlingChar
	ErrInvalidEnPassant
	ErrInvalidHalfMoveClock
	ErrInvalidFullMoveNumber
	ErrMissingKing
	ErrMultipleKings
	ErrPawnOnBackRank
)

func (k FENErrorKind) String() string {
	switch k {
	case ErrFieldCount:
		return "wrong number of FEN fields"
	case ErrRankCount:
		return "piece placement does not have 8 ranks"
	case ErrRankSquareCount:
		return "rank does not account for exactly 8 squares"
	case ErrInvalidPieceChar:
		return "invalid piece character"
	case ErrInvalidSideToMove:
		return "invalid side-to-move field"
	case ErrInvalidCastlingChar:
		return "invalid castling-rights character"
	case ErrInvalidEnPassant:
		return "invalid en passant square"
	case ErrInvalidHalfMoveClock:
		return "invalid half-move clock"
	case ErrInvalidFullMoveNumber:
		return "invalid full-move number"
	case ErrMissingKing:
		return "a side has no king"
	case ErrMultipleKings:
		return "a side has more than one king"
	case ErrPawnOnBackRank:
		return "pawn on the first or eighth rank"
	default:
		return "unknown FEN error"
	}
}

// FENError reports why a FEN string failed to parse, along with the
// specific text fragment that triggered it where one is available.
type FENError struct {
	Kind   FENErrorKind
	Detail string
}

func (e *FENError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Detail)
}

func fenErr(kind FENErrorKind, detail string) error {
	return &FENError{Kind: kind, Detail: detail}
}

// ParseFEN parses a FEN string and returns a Position.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fenErr(ErrFieldCount, fmt.Sprintf("need at least 4 fields, got %d", len(parts)))
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fenErr(ErrInvalidSideToMove, parts[1])
	}

	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fenErr(ErrInvalidEnPassant, parts[3])
		}
		pos.EnPassant = sq
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fenErr(ErrInvalidHalfMoveClock, parts[4])
		}
		pos.HalfMoveClock = hmc
	}

	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, fenErr(ErrInvalidFullMoveNumber, parts[5])
		}
		pos.FullMoveNumber = fmn
	}

	if p := pos.Pieces[White][King].PopCount(); p == 0 {
		return nil, fenErr(ErrMissingKing, "white")
	} else if p > 1 {
		return nil, fenErr(ErrMultipleKings, "white")
	}
	if p := pos.Pieces[Black][King].PopCount(); p == 0 {
		return nil, fenErr(ErrMissingKing, "black")
	} else if p > 1 {
		return nil, fenErr(ErrMultipleKings, "black")
	}
	if (pos.Pieces[White][Pawn]|pos.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return nil, fenErr(ErrPawnOnBackRank, "")
	}

	pos.updateOccupied()
	pos.findKings()
	pos.Hash = pos.ComputeHash()
	pos.PawnKey = pos.ComputePawnKey()
	pos.UpdateCheckers()

	return pos, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fenErr(ErrRankCount, fmt.Sprintf("got %d", len(ranks)))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fenErr(ErrRankSquareCount, fmt.Sprintf("rank %d overflows", rank+1))
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
			} else {
				piece := PieceFromChar(byte(c))
				if piece == NoPiece {
					return fenErr(ErrInvalidPieceChar, string(c))
				}
				sq := NewSquare(file, rank)
				pos.setPiece(piece, sq)
				file++
			}
		}

		if file != 8 {
			return fenErr(ErrRankSquareCount, fmt.Sprintf("rank %d has %d squares", rank+1, file))
		}
	}

	return nil
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		pos.CastlingRights = NoCastling
		return nil
	}

	for _, c := range castling {
		switch c {
		case 'K':
			pos.CastlingRights |= WhiteKingSideCastle
		case 'Q':
			pos.CastlingRights |= WhiteQueenSideCastle
		case 'k':
			pos.CastlingRights |= BlackKingSideCastle
		case 'q':
			pos.CastlingRights |= BlackQueenSideCastle
		default:
			return fenErr(ErrInvalidCastlingChar, string(c))
		}
	}

	return nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				empty++
			} else {
				if empty > 0 {
					sb.WriteString(strconv.Itoa(empty))
					empty = 0
				}
				sb.WriteString(piece.String())
			}
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}

// ComputeHash computes the Zobrist hash for the position from scratch.
func (p *Position) ComputeHash() uint64 {
	var hash uint64

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				hash ^= zobristPiece[c][pt][sq]
			}
		}
	}

	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}

	hash ^= ZobristCastling(p.CastlingRights)

	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	return hash
}

// ComputePawnKey computes the pawn hash key from scratch. Only pawn
// placement contributes, so positions differing only in piece placement of
// other pieces share a pawn key and can share cached pawn-structure
// evaluation.
func (p *Position) ComputePawnKey() uint64 {
	var key uint64

	for c := White; c <= Black; c++ {
		bb := p.Pieces[c][Pawn]
		for bb != 0 {
			sq := bb.PopLSB()
			key ^= zobristPiece[c][Pawn][sq]
		}
	}

	return key
}
