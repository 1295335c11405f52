// Package game runs a game between a human and an engine session. It routes
// clicks through the selection machine, asks the engine for its moves and
// stops once the game is decided.
package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qnkhuat/stockterm/pkg/engine"
	"github.com/qnkhuat/stockterm/pkg/outcome"
	"github.com/qnkhuat/stockterm/pkg/position"
	"github.com/qnkhuat/stockterm/pkg/selection"
)

// Engine proposes a move for pos within limit. engine.Session implements it.
type Engine interface {
	RequestMove(ctx context.Context, pos position.Model, limit time.Duration) (position.Move, error)
}

type Config struct {
	Human     position.Side
	MoveTime  time.Duration
	Promotion position.PieceKind
}

type Controller struct {
	ID     uuid.UUID
	cfg    Config
	engine Engine

	// mu guards everything below; Snapshot runs on other goroutines.
	mu        sync.Mutex
	pos       position.Model
	sel       *selection.Machine
	outcome   outcome.Outcome
	lastMove  *position.Move
	thinking  bool
	engineErr error

	listeners []Listener
}

type engineResult struct {
	move position.Move
	err  error
}

func NewController(pos position.Model, eng Engine, cfg Config) *Controller {
	if cfg.MoveTime <= 0 {
		cfg.MoveTime = engine.DefaultMoveTime
	}
	return &Controller{
		ID:      uuid.New(),
		cfg:     cfg,
		engine:  eng,
		pos:     pos,
		sel:     selection.NewMachine(cfg.Promotion),
		outcome: outcome.Detect(pos),
	}
}

// Subscribe registers l. It must be called before Run.
func (c *Controller) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

func (c *Controller) emit(ev Event) {
	for _, l := range c.listeners {
		l(ev)
	}
}

func (c *Controller) Outcome() outcome.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Run is the game loop. It returns when the game is decided, on a Quit input,
// when inputs is closed, or when ctx is done. The error is non-nil only for a
// rules fault or a done context.
func (c *Controller) Run(ctx context.Context, inputs <-chan Input) (outcome.Outcome, error) {
	log.Printf("[%s] game started, human plays %s", c.ID, c.cfg.Human)
	for {
		if o := c.Outcome(); o.Over() {
			log.Printf("[%s] game over: %s", c.ID, o)
			c.emit(GameEnded{Outcome: o})
			return o, nil
		}

		if c.engineToMove() {
			quit, err := c.engineTurn(ctx, inputs)
			if err != nil {
				return c.Outcome(), err
			}
			if quit {
				log.Printf("[%s] quit while the engine was thinking", c.ID)
				return c.Outcome(), nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			return c.Outcome(), ctx.Err()
		case in, ok := <-inputs:
			if !ok || in.Action == ActionQuit {
				log.Printf("[%s] quit", c.ID)
				return c.Outcome(), nil
			}
			if err := c.handle(in); err != nil {
				return c.Outcome(), err
			}
		}
	}
}

// engineToMove is false after a failure until the operator retries.
func (c *Controller) engineToMove() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos.SideToMove() != c.cfg.Human && c.engineErr == nil
}

func (c *Controller) handle(in Input) error {
	switch in.Action {
	case ActionClick:
		return c.click(in.Square)
	case ActionRetry:
		c.mu.Lock()
		failed := c.engineErr != nil
		c.engineErr = nil
		c.mu.Unlock()
		if failed {
			log.Printf("[%s] retrying the engine", c.ID)
		}
	}
	return nil
}

func (c *Controller) click(sq position.Square) error {
	c.mu.Lock()
	if c.pos.SideToMove() != c.cfg.Human {
		c.mu.Unlock()
		return nil
	}
	mv, ok := c.sel.Click(c.pos, sq)
	ev := c.selectionLocked()
	c.mu.Unlock()
	c.emit(ev)

	if !ok {
		return nil
	}
	err := c.apply(mv, false)
	if errors.Is(err, position.ErrIllegalMove) {
		log.Printf("[%s] rejected %s: %v", c.ID, mv, err)
		return nil
	}
	return err
}

func (c *Controller) selectionLocked() SelectionChanged {
	var ev SelectionChanged
	if origin, ok := c.sel.Origin(); ok {
		ev.Origin = &origin
		for _, d := range c.sel.Destinations(c.pos) {
			ev.Destinations = append(ev.Destinations, DestinationView{Square: d.Square, Capture: d.Occupied})
		}
	}
	return ev
}

func (c *Controller) apply(mv position.Move, byEngine bool) error {
	c.mu.Lock()
	side := c.pos.SideToMove()
	capture := c.pos.IsCapture(mv)
	if err := c.pos.Apply(mv); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lastMove = &mv
	c.outcome = outcome.Detect(c.pos)
	c.mu.Unlock()

	log.Printf("[%s] %s played %s", c.ID, side, mv)
	c.emit(MoveApplied{Move: mv, Side: side, Capture: capture, ByEngine: byEngine})
	return nil
}

// engineTurn runs one engine request. Inputs are drained while it is
// outstanding: clicks are dropped and Quit cancels the request. It never
// returns before the request has.
func (c *Controller) engineTurn(ctx context.Context, inputs <-chan Input) (quit bool, err error) {
	c.mu.Lock()
	side := c.pos.SideToMove()
	pos, err := c.pos.Clone()
	if err != nil {
		c.mu.Unlock()
		return false, err
	}
	c.thinking = true
	c.mu.Unlock()
	defer c.setThinking(false)

	c.emit(EngineThinking{Side: side})
	log.Printf("[%s] asking the engine for %s", c.ID, side)

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make(chan engineResult, 1)
	go func() {
		mv, err := c.engine.RequestMove(reqCtx, pos, c.cfg.MoveTime)
		results <- engineResult{move: mv, err: err}
	}()

	for {
		select {
		case r := <-results:
			return false, c.finishEngineTurn(r)
		case in, ok := <-inputs:
			if ok && in.Action != ActionQuit {
				continue
			}
			cancel()
			<-results
			return true, nil
		case <-ctx.Done():
			<-results
			return false, ctx.Err()
		}
	}
}

func (c *Controller) finishEngineTurn(r engineResult) error {
	if r.err != nil {
		c.fail(r.err)
		return nil
	}
	err := c.apply(r.move, true)
	if errors.Is(err, position.ErrIllegalMove) {
		c.fail(&engine.Failure{Kind: engine.IllegalProposal, Err: err})
		return nil
	}
	return err
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.engineErr = err
	c.mu.Unlock()
	log.Printf("[%s] %v", c.ID, err)
	c.emit(EngineFailed{Err: err})
}

func (c *Controller) setThinking(thinking bool) {
	c.mu.Lock()
	c.thinking = thinking
	c.mu.Unlock()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		ID:         c.ID,
		FEN:        c.pos.FEN(),
		SideToMove: c.pos.SideToMove(),
		Human:      c.cfg.Human,
		InCheck:    c.pos.InCheck(),
		Moves:      c.pos.MoveList(),
		Outcome:    c.outcome,
		Thinking:   c.thinking,
		EngineErr:  c.engineErr,
	}
	s.FirstMove, s.FirstSide = c.pos.FirstMove()
	for r := 0; r < position.NumRanks; r++ {
		for f := 0; f < position.NumFiles; f++ {
			if p, ok := c.pos.PieceAt(position.NewSquare(f, r)); ok {
				s.Board[r][f] = p
			}
		}
	}
	if c.lastMove != nil {
		mv := *c.lastMove
		s.LastMove = &mv
	}
	sel := c.selectionLocked()
	s.Origin = sel.Origin
	s.Destinations = sel.Destinations
	return s
}
