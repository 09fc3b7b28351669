package engine

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"wyvern/internal/board"
)

// TTFlag names the three node kinds a search can record: a PV node (an
// exact score, every move searched), a Cut node (a beta cutoff - the score
// is a lower bound), and an All node (a fail-low - the score is an upper
// bound and every move was searched without one exceeding alpha).
type TTFlag uint8

const (
	TTExact      TTFlag = iota // PV node: exact score
	TTLowerBound               // Cut node: failed high (beta cutoff)
	TTUpperBound               // All node: failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint32     // Upper 32 bits of Zobrist hash for verification
	BestMove board.Move // Best move found
	Score    int16      // Score (bounded by flag)
	Depth    int8       // Search depth
	Flag     TTFlag     // Type of bound
	Age      uint8      // Generation for replacement
	IsPV     bool       // Whether this entry was stored from a PV node search
}

// ttStripes is the number of independent locks guarding the table. Bucket
// idx is guarded by lock idx % ttStripes, so concurrent probes/stores from
// different search workers rarely contend on the same stripe.
const ttStripes = 1024

// TranspositionTable is a hash table for storing search results, safe for
// concurrent use by multiple search workers.
type TranspositionTable struct {
	entries []TTEntry
	locks   []sync.Mutex
	size    uint64
	mask    uint64
	age     uint8

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	// Calculate number of entries
	entrySize := uint64(12) // Approximate size of TTEntry
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize

	// Round down to power of 2 for fast modulo
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries == 0 {
		numEntries = 1
	}

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		locks:   make([]sync.Mutex, ttStripes),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// stripe returns the lock guarding the bucket a hash maps to.
func (tt *TranspositionTable) stripe(idx uint64) *sync.Mutex {
	return &tt.locks[idx%ttStripes]
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position in the transposition table.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	idx := hash & tt.mask
	lock := tt.stripe(idx)

	lock.Lock()
	entry := tt.entries[idx]
	lock.Unlock()

	tt.probes++
	if entry.Key == uint32(hash>>32) && entry.Depth > 0 {
		tt.hits++
		return entry, true
	}
	return TTEntry{}, false
}

// Store saves a PV or Cut node, always preferring the new result over
// whatever occupies the bucket unless the bucket holds a deeper result
// from the same search generation.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move, isPV bool) {
	idx := hash & tt.mask
	lock := tt.stripe(idx)

	lock.Lock()
	defer lock.Unlock()

	entry := &tt.entries[idx]
	if entry.Age != tt.age || depth >= int(entry.Depth) {
		entry.Key = uint32(hash >> 32)
		entry.BestMove = bestMove
		entry.Score = int16(score)
		entry.Depth = int8(depth)
		entry.Flag = flag
		entry.Age = tt.age
		entry.IsPV = isPV
	}
}

// StoreAll records a fail-low (All node) result, which carries no best
// move. Per the original engine's record_all: an All entry only overwrites
// an existing one, and only when it is not shallower - a PV or Cut result
// already occupying the bucket is never clobbered by a fail-low, whatever
// search generation stored it. Buckets holding depth <= 0 (empty, or a
// quiescence result) are always replaced.
func (tt *TranspositionTable) StoreAll(hash uint64, depth int, score int) {
	idx := hash & tt.mask
	lock := tt.stripe(idx)

	lock.Lock()
	defer lock.Unlock()

	entry := &tt.entries[idx]
	if entry.Depth > 0 {
		if entry.Flag != TTUpperBound || entry.Depth > int8(depth) {
			return
		}
	}

	entry.Key = uint32(hash >> 32)
	entry.BestMove = board.NoMove
	entry.Score = int16(score)
	entry.Depth = int8(depth)
	entry.Flag = TTUpperBound
	entry.Age = tt.age
}

// PrincipalVariation walks best moves recorded in the table from pos out to
// depth plies, the same way the original engine's get_pv reconstructs the
// line it searched.
func (tt *TranspositionTable) PrincipalVariation(pos *board.Position, depth int) []board.Move {
	pv := make([]board.Move, 0, depth)
	walker := pos.Copy()
	seen := make(map[uint64]bool)

	for i := 0; i < depth; i++ {
		if seen[walker.Hash] {
			break
		}
		seen[walker.Hash] = true

		entry, ok := tt.Probe(walker.Hash)
		if !ok || entry.BestMove == board.NoMove {
			break
		}

		legal := false
		moves := walker.GenerateLegalMoves()
		for j := 0; j < moves.Len(); j++ {
			if moves.Get(j) == entry.BestMove {
				legal = true
				break
			}
		}
		if !legal {
			break
		}

		pv = append(pv, entry.BestMove)
		walker.MakeMove(entry.BestMove)
	}

	return pv
}

// NewSearch increments the age counter for a new search.
// This helps with replacement decisions.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// ttSnapshot is the on-disk shape of a transposition table, gob-encoded by
// SaveSnapshot/LoadSnapshot. Size is persisted alongside the entries so a
// snapshot taken at one Hash size isn't silently misapplied to a table
// sized differently on reload.
type ttSnapshot struct {
	Size    uint64
	Age     uint8
	Entries []TTEntry
}

// MarshalBinary gob-encodes the table's entries for persistence. Safe to
// call concurrently with searches; it takes every stripe lock in order
// while copying, so a snapshot never observes a half-written entry.
func (tt *TranspositionTable) MarshalBinary() ([]byte, error) {
	entries := make([]TTEntry, len(tt.entries))
	for i := range tt.locks {
		tt.locks[i].Lock()
	}
	copy(entries, tt.entries)
	age := tt.age
	size := tt.size
	for i := range tt.locks {
		tt.locks[i].Unlock()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ttSnapshot{Size: size, Age: age, Entries: entries}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores entries previously produced by MarshalBinary.
// A snapshot whose Size doesn't match the table's current size is
// rejected rather than truncated or padded, since hash%size bucketing
// would otherwise scatter entries to the wrong slots.
func (tt *TranspositionTable) UnmarshalBinary(data []byte) error {
	var snap ttSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}
	if snap.Size != tt.size {
		return fmt.Errorf("transposition snapshot size %d does not match table size %d", snap.Size, tt.size)
	}

	for i := range tt.locks {
		tt.locks[i].Lock()
	}
	copy(tt.entries, snap.Entries)
	tt.age = snap.Age
	for i := range tt.locks {
		tt.locks[i].Unlock()
	}
	return nil
}
