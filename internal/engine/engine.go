package engine

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"wyvern/internal/board"
)

// NumWorkers is the number of parallel search workers (matches CPU cores).
var NumWorkers = runtime.GOMAXPROCS(0)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    Value
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
}

// Difficulty represents the engine's playing strength / time budget.
type Difficulty int

const (
	Easy   Difficulty = iota // depth 3, 500ms
	Medium                   // depth 7, 1s
	Hard                     // Maximum strength, 3s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second}, // Max strength (time-limited)
}

// Engine is the search engine: a transposition table, a pool of Lazy-SMP
// workers, and the iterative-deepening orchestration that drives them.
type Engine struct {
	pool          *Pool
	pawnTable     *PawnTable
	tt            *TranspositionTable
	sharedHistory *SharedHistory
	stopFlag      atomic.Bool

	difficulty Difficulty

	// Position history for repetition detection
	rootPosHashes []uint64

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	sharedHistory := NewSharedHistory()

	e := &Engine{
		tt:            tt,
		pawnTable:     NewPawnTable(1),
		sharedHistory: sharedHistory,
		difficulty:    Medium,
	}

	e.pool = NewPool(NumWorkers, tt, sharedHistory, &e.stopFlag)
	e.pool.Start()

	log.Printf("[Engine] Started pool of %d workers (GOMAXPROCS=%d)", NumWorkers, runtime.GOMAXPROCS(0))

	return e
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// TT returns the engine's transposition table, for snapshot persistence.
func (e *Engine) TT() *TranspositionTable {
	return e.tt
}

// SetPositionHistory sets the position history for repetition detection.
// This should be called before Search() with hashes from the game's move history.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = make([]uint64, len(hashes))
	copy(e.rootPosHashes, hashes)
	e.pool.SetRootHistory(hashes)
}

// Search finds the best move for the given position using the engine's
// current difficulty setting.
func (e *Engine) Search(pos *board.Position) board.Move {
	limits := DifficultySettings[e.difficulty]
	return e.SearchWithLimits(pos, limits)
}

// SearchWithLimits finds the best move with specific search limits.
// Uses Lazy SMP: every worker in the pool searches the same position at a
// staggered starting depth, reporting each completed iteration.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	e.stopFlag.Store(false)
	e.tt.NewSearch()
	e.pool.Reset()

	startTime := time.Now()
	var bestMove board.Move
	var bestScore Value
	var bestPV []board.Move
	var bestDepth int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	resultCh := make(chan WorkerResult, e.pool.Len()*maxDepth)
	e.pool.StartSearch(pos, maxDepth, resultCh)

	done := make(chan struct{})
	go func() {
		e.pool.Wait()
		close(done)
	}()

resultLoop:
	for {
		select {
		case result := <-resultCh:
			if result.Move != board.NoMove {
				if result.Depth > bestDepth ||
					(result.Depth == bestDepth && result.Score > bestScore) {
					bestMove = result.Move
					bestScore = result.Score
					bestPV = result.PV
					bestDepth = result.Depth

					if e.OnInfo != nil {
						e.OnInfo(SearchInfo{
							Depth:    bestDepth,
							Score:    bestScore,
							Nodes:    e.pool.Nodes(),
							Time:     time.Since(startTime),
							PV:       bestPV,
							HashFull: e.tt.HashFull(),
						})
					}

					if bestScore.IsMate() {
						e.stopFlag.Store(true)
						break resultLoop
					}
				}
			}

			if !deadline.IsZero() && time.Now().After(deadline) {
				e.stopFlag.Store(true)
				break resultLoop
			}

		case <-done:
			break resultLoop
		}
	}

	e.stopFlag.Store(true)
	<-done

	return bestMove
}

// SearchWithUCILimits finds the best move using UCI time controls.
// Supports wtime/btime/winc/binc for proper tournament time management.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	e.stopFlag.Store(false)
	e.tt.NewSearch()
	e.pool.Reset()

	startTime := time.Now()
	var bestMove board.Move
	var bestScore Value
	var bestPV []board.Move
	var bestDepth int
	var lastBestMove board.Move
	var stabilityCount int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	resultCh := make(chan WorkerResult, e.pool.Len()*maxDepth)
	e.pool.StartSearch(pos, maxDepth, resultCh)

	done := make(chan struct{})
	go func() {
		e.pool.Wait()
		close(done)
	}()

resultLoop:
	for {
		select {
		case result := <-resultCh:
			if result.Move != board.NoMove {
				if result.Depth > bestDepth ||
					(result.Depth == bestDepth && result.Score > bestScore) {

					if result.Depth > bestDepth {
						if result.Move == lastBestMove {
							stabilityCount++
						} else {
							stabilityCount = 0
						}
						lastBestMove = result.Move
					}

					bestMove = result.Move
					bestScore = result.Score
					bestPV = result.PV
					bestDepth = result.Depth

					if e.OnInfo != nil {
						e.OnInfo(SearchInfo{
							Depth:    bestDepth,
							Score:    bestScore,
							Nodes:    e.pool.Nodes(),
							Time:     time.Since(startTime),
							PV:       bestPV,
							HashFull: e.tt.HashFull(),
						})
					}

					if bestScore.IsMate() {
						e.stopFlag.Store(true)
						break resultLoop
					}

					if tm.PastOptimum() && stabilityCount >= 4 {
						e.stopFlag.Store(true)
						break resultLoop
					}
				}
			}

			if tm.ShouldStop() {
				e.stopFlag.Store(true)
				break resultLoop
			}

			if limits.Nodes > 0 && e.pool.Nodes() >= limits.Nodes {
				e.stopFlag.Store(true)
				break resultLoop
			}

		case <-done:
			break resultLoop
		}
	}

	e.stopFlag.Store(true)
	<-done

	return bestMove
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear clears the transposition table and resets worker move-ordering state
// (killers cleared, history halved; see MoveOrderer.Clear).
func (e *Engine) Clear() {
	e.tt.Clear()
	e.pool.ClearOrderers()
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) Value {
	return Value(Evaluate(pos))
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score Value) string {
	switch u := score.Unpack(); u.Kind {
	case MateIn:
		return "Mate in " + itoa(u.N)
	case MatedIn:
		return "Mated in " + itoa(u.N)
	default:
		cp := u.CP
		sign := ""
		if cp < 0 {
			sign = "-"
			cp = -cp
		}
		return sign + itoa(cp/100) + "." + itoa(cp%100)
	}
}

// itoa is a minimal integer-to-string conversion (avoids pulling in fmt here).
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
