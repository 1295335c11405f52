package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/qnkhuat/stockterm/pkg/engine"
	"github.com/qnkhuat/stockterm/pkg/outcome"
	"github.com/qnkhuat/stockterm/pkg/position"
)

var sq = position.MustSquare

// fakeEngine replays scripted moves. With block set it waits for its context.
type fakeEngine struct {
	mu        sync.Mutex
	calls     int
	replies   []string
	err       error
	block     bool
	cancelled bool
}

func (f *fakeEngine) RequestMove(ctx context.Context, pos position.Model, limit time.Duration) (position.Move, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled = true
		f.mu.Unlock()
		return position.Move{}, &engine.Failure{Kind: engine.NoResponse, Err: ctx.Err()}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return position.Move{}, f.err
	}
	if len(f.replies) == 0 {
		return position.Move{}, &engine.Failure{Kind: engine.NoResponse, Err: errors.New("script exhausted")}
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return position.ParseMove(reply)
}

func (f *fakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type runResult struct {
	outcome outcome.Outcome
	err     error
}

type harness struct {
	t      *testing.T
	ctrl   *Controller
	in     chan Input
	events chan Event
	done   chan runResult
	cancel context.CancelFunc
}

func start(t *testing.T, pos position.Model, eng Engine, human position.Side) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		t:      t,
		ctrl:   NewController(pos, eng, Config{Human: human, MoveTime: 10 * time.Millisecond}),
		in:     make(chan Input),
		events: make(chan Event, 256),
		done:   make(chan runResult, 1),
		cancel: cancel,
	}
	h.ctrl.Subscribe(func(ev Event) { h.events <- ev })
	go func() {
		o, err := h.ctrl.Run(ctx, h.in)
		h.done <- runResult{outcome: o, err: err}
	}()
	t.Cleanup(cancel)
	return h
}

func (h *harness) send(inputs ...Input) {
	h.t.Helper()
	for _, in := range inputs {
		select {
		case h.in <- in:
		case <-time.After(5 * time.Second):
			h.t.Fatalf("controller did not accept %s", in.Action)
		}
	}
}

func (h *harness) click(squares ...string) {
	h.t.Helper()
	for _, s := range squares {
		h.send(Click(sq(s)))
	}
}

func (h *harness) waitFor(match func(Event) bool) Event {
	h.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if match(ev) {
				return ev
			}
		case <-timeout:
			h.t.Fatal("timed out waiting for an event")
			return nil
		}
	}
}

func (h *harness) waitMove(byEngine bool) MoveApplied {
	h.t.Helper()
	ev := h.waitFor(func(ev Event) bool {
		m, ok := ev.(MoveApplied)
		return ok && m.ByEngine == byEngine
	})
	return ev.(MoveApplied)
}

func (h *harness) wait() runResult {
	h.t.Helper()
	select {
	case r := <-h.done:
		return r
	case <-time.After(5 * time.Second):
		h.t.Fatal("controller did not stop")
		return runResult{}
	}
}

func (h *harness) quit() runResult {
	h.t.Helper()
	h.send(Quit())
	return h.wait()
}

func TestHumanMoveAndEngineReply(t *testing.T) {
	eng := &fakeEngine{replies: []string{"e7e5"}}
	h := start(t, position.NewGame(), eng, position.White)

	h.click("e2", "e4")
	human := h.waitMove(false)
	if human.Move != position.NewMove(sq("e2"), sq("e4")) || human.Side != position.White || human.Capture {
		t.Fatalf("unexpected human move %+v", human)
	}
	reply := h.waitMove(true)
	if reply.Move != position.NewMove(sq("e7"), sq("e5")) || reply.Side != position.Black {
		t.Fatalf("unexpected engine move %+v", reply)
	}

	snap := h.ctrl.Snapshot()
	if snap.SideToMove != position.White {
		t.Fatalf("expected White to move, got %s", snap.SideToMove)
	}
	if snap.Outcome.Kind != outcome.InProgress {
		t.Fatalf("expected InProgress, got %v", snap.Outcome)
	}
	if snap.PieceAt(sq("e4")).Kind != position.Pawn || snap.PieceAt(sq("e5")).Kind != position.Pawn {
		t.Fatal("snapshot board does not show both pawns")
	}
	if snap.LastMove == nil || *snap.LastMove != reply.Move {
		t.Fatalf("unexpected last move %v", snap.LastMove)
	}
	if len(snap.Moves) != 2 || snap.Moves[0] != "e4" || snap.Moves[1] != "e5" {
		t.Fatalf("unexpected move list %v", snap.Moves)
	}

	r := h.quit()
	if r.err != nil || r.outcome.Over() {
		t.Fatalf("unexpected result %+v", r)
	}
	if eng.Calls() != 1 {
		t.Fatalf("expected one engine request, got %d", eng.Calls())
	}
}

func TestSelectionHighlights(t *testing.T) {
	h := start(t, position.NewGame(), &fakeEngine{}, position.White)

	h.click("e2")
	ev := h.waitFor(func(ev Event) bool { _, ok := ev.(SelectionChanged); return ok }).(SelectionChanged)
	if ev.Origin == nil || *ev.Origin != sq("e2") {
		t.Fatalf("unexpected origin %v", ev.Origin)
	}
	if len(ev.Destinations) != 2 {
		t.Fatalf("expected two destinations, got %v", ev.Destinations)
	}
	snap := h.ctrl.Snapshot()
	if hl, capture := snap.Destination(sq("e4")); !hl || capture {
		t.Fatal("e4 should be a quiet destination")
	}
	h.quit()
}

func TestIllegalDestinationResets(t *testing.T) {
	eng := &fakeEngine{}
	h := start(t, position.NewGame(), eng, position.White)

	h.click("e2", "e5")
	// The second click reports an empty selection.
	h.waitFor(func(ev Event) bool { _, ok := ev.(SelectionChanged); return ok })
	ev := h.waitFor(func(ev Event) bool { _, ok := ev.(SelectionChanged); return ok }).(SelectionChanged)
	if ev.Origin != nil {
		t.Fatalf("expected the selection to be cleared, got %v", ev.Origin)
	}

	snap := h.ctrl.Snapshot()
	if snap.FEN != position.StartFEN || snap.Origin != nil {
		t.Fatalf("position or selection changed: %+v", snap)
	}
	h.quit()
	if eng.Calls() != 0 {
		t.Fatal("the engine was asked without a human move")
	}
}

func TestEngineSkippedAfterMate(t *testing.T) {
	pos, err := position.NewGameFromFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	eng := &fakeEngine{replies: []string{"g8h8"}}
	h := start(t, pos, eng, position.White)

	h.click("a1", "a8")
	h.waitMove(false)
	ended := h.waitFor(func(ev Event) bool { _, ok := ev.(GameEnded); return ok }).(GameEnded)
	want := outcome.Outcome{Kind: outcome.Checkmate, Winner: position.White}
	if ended.Outcome != want {
		t.Fatalf("expected %v, got %v", want, ended.Outcome)
	}

	r := h.wait()
	if r.err != nil || r.outcome != want {
		t.Fatalf("unexpected result %+v", r)
	}
	if eng.Calls() != 0 {
		t.Fatalf("engine was invoked %d times after mate", eng.Calls())
	}
}

func TestTerminalStartPosition(t *testing.T) {
	pos, err := position.NewGameFromFEN("k7/8/1QK5/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	eng := &fakeEngine{}
	h := start(t, pos, eng, position.White)
	r := h.wait()
	if r.outcome != (outcome.Outcome{Kind: outcome.Draw, Reason: outcome.Stalemate}) {
		t.Fatalf("unexpected outcome %v", r.outcome)
	}
	if eng.Calls() != 0 {
		t.Fatal("engine invoked on a finished game")
	}
}

func TestEngineFailureHaltsTurn(t *testing.T) {
	eng := &fakeEngine{err: &engine.Failure{Kind: engine.StartupFailed, Err: errors.New("no such file")}}
	h := start(t, position.NewGame(), eng, position.White)

	h.click("e2", "e4")
	h.waitMove(false)
	failed := h.waitFor(func(ev Event) bool { _, ok := ev.(EngineFailed); return ok }).(EngineFailed)
	if !engine.IsFailure(failed.Err, engine.StartupFailed) {
		t.Fatalf("unexpected failure %v", failed.Err)
	}

	// Black's turn stays with the engine: the human cannot move for it.
	h.click("e7", "e5")
	snap := h.ctrl.Snapshot()
	if snap.SideToMove != position.Black || snap.EngineErr == nil || len(snap.Moves) != 1 {
		t.Fatalf("unexpected state after failure: %+v", snap)
	}
	if eng.Calls() != 1 {
		t.Fatalf("engine retried without being asked: %d calls", eng.Calls())
	}

	eng.mu.Lock()
	eng.err = nil
	eng.replies = []string{"c7c5"}
	eng.mu.Unlock()
	h.send(Retry())
	reply := h.waitMove(true)
	if reply.Move != position.NewMove(sq("c7"), sq("c5")) {
		t.Fatalf("unexpected reply %s", reply.Move)
	}
	if snap := h.ctrl.Snapshot(); snap.EngineErr != nil {
		t.Fatalf("failure not cleared: %v", snap.EngineErr)
	}
	h.quit()
}

// The fake bypasses the session's own legality check, so the controller has to
// catch the proposal itself.
func TestEngineIllegalProposal(t *testing.T) {
	eng := &fakeEngine{replies: []string{"e2e5"}}
	h := start(t, position.NewGame(), eng, position.Black)

	failed := h.waitFor(func(ev Event) bool { _, ok := ev.(EngineFailed); return ok }).(EngineFailed)
	if !engine.IsFailure(failed.Err, engine.IllegalProposal) {
		t.Fatalf("expected IllegalProposal, got %v", failed.Err)
	}
	if snap := h.ctrl.Snapshot(); snap.FEN != position.StartFEN {
		t.Fatalf("position changed: %s", snap.FEN)
	}
	h.quit()
}

func TestEngineOpensForBlackHuman(t *testing.T) {
	eng := &fakeEngine{replies: []string{"d2d4"}}
	h := start(t, position.NewGame(), eng, position.Black)

	reply := h.waitMove(true)
	if reply.Side != position.White || reply.Move != position.NewMove(sq("d2"), sq("d4")) {
		t.Fatalf("unexpected opening move %+v", reply)
	}
	h.click("d7", "d5")
	if human := h.waitMove(false); human.Side != position.Black {
		t.Fatalf("unexpected human move %+v", human)
	}
	h.quit()
}

func TestQuitWhileEngineThinking(t *testing.T) {
	eng := &fakeEngine{block: true}
	h := start(t, position.NewGame(), eng, position.Black)

	h.waitFor(func(ev Event) bool { _, ok := ev.(EngineThinking); return ok })
	if !h.ctrl.Snapshot().Thinking {
		t.Fatal("snapshot does not show the engine thinking")
	}
	// Clicks are drained and dropped while the request is outstanding.
	h.click("e7", "e5")
	r := h.quit()
	if r.err != nil {
		t.Fatalf("unexpected error %v", r.err)
	}

	eng.mu.Lock()
	cancelled := eng.cancelled
	eng.mu.Unlock()
	if !cancelled {
		t.Fatal("controller returned before the engine request was released")
	}
	snap := h.ctrl.Snapshot()
	if snap.FEN != position.StartFEN || snap.Thinking {
		t.Fatalf("unexpected state %+v", snap)
	}
}

func TestContextCancelStopsRun(t *testing.T) {
	eng := &fakeEngine{block: true}
	h := start(t, position.NewGame(), eng, position.Black)
	h.waitFor(func(ev Event) bool { _, ok := ev.(EngineThinking); return ok })
	h.cancel()
	r := h.wait()
	if !errors.Is(r.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", r.err)
	}
}

func TestSidesAlternate(t *testing.T) {
	eng := &fakeEngine{replies: []string{"e7e5", "b8c6", "g8f6"}}
	h := start(t, position.NewGame(), eng, position.White)

	var moves []MoveApplied
	for _, pair := range [][2]string{{"e2", "e4"}, {"g1", "f3"}, {"f1", "c4"}} {
		h.click(pair[0], pair[1])
		moves = append(moves, h.waitMove(false), h.waitMove(true))
	}
	for i := 1; i < len(moves); i++ {
		if moves[i].Side == moves[i-1].Side {
			t.Fatalf("%s moved twice in a row: %s then %s", moves[i].Side, moves[i-1].Move, moves[i].Move)
		}
	}
	h.quit()
}

func TestCaptureReported(t *testing.T) {
	eng := &fakeEngine{replies: []string{"d7d5", "d8d5"}}
	h := start(t, position.NewGame(), eng, position.White)

	h.click("e2", "e4")
	h.waitMove(true)
	h.click("e4", "d5")
	if human := h.waitMove(false); !human.Capture {
		t.Fatal("exd5 should be reported as a capture")
	}
	if reply := h.waitMove(true); !reply.Capture {
		t.Fatal("Qxd5 should be reported as a capture")
	}
	h.quit()
}

// faultyPosition fails every Apply as if the rules library broke.
type faultyPosition struct {
	*position.Game
}

func (faultyPosition) Apply(m position.Move) error {
	return fmt.Errorf("%w: board corrupted", position.ErrRulesFault)
}

func TestRulesFaultIsFatal(t *testing.T) {
	h := start(t, faultyPosition{position.NewGame()}, &fakeEngine{}, position.White)
	h.click("e2", "e4")
	r := h.wait()
	if !errors.Is(r.err, position.ErrRulesFault) {
		t.Fatalf("expected a rules fault, got %v", r.err)
	}
}

// uncloneablePosition cannot be handed to the engine.
type uncloneablePosition struct {
	*position.Game
}

func (uncloneablePosition) Clone() (position.Model, error) {
	return nil, fmt.Errorf("%w: bad FEN", position.ErrRulesFault)
}

func TestCloneFaultIsFatal(t *testing.T) {
	eng := &fakeEngine{replies: []string{"e2e4"}}
	h := start(t, uncloneablePosition{position.NewGame()}, eng, position.Black)
	r := h.wait()
	if !errors.Is(r.err, position.ErrRulesFault) {
		t.Fatalf("expected a rules fault, got %v", r.err)
	}
	if eng.Calls() != 0 {
		t.Fatalf("engine was asked %d times", eng.Calls())
	}
}
