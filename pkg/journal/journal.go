// Package journal records game events as JSON lines.
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qnkhuat/stockterm/pkg/game"
	"github.com/qnkhuat/stockterm/pkg/outcome"
)

type EntryType int

const (
	TypeMoveApplied EntryType = iota
	TypeGameEnded
	TypeEngineFailed
)

func (t EntryType) String() string {
	switch t {
	case TypeMoveApplied:
		return "MoveApplied"
	case TypeGameEnded:
		return "GameEnded"
	case TypeEngineFailed:
		return "EngineFailed"
	default:
		return "Unknown"
	}
}

func (t EntryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EntryType) UnmarshalText(b []byte) error {
	for _, candidate := range []EntryType{TypeMoveApplied, TypeGameEnded, TypeEngineFailed} {
		if candidate.String() == string(b) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("journal: unknown entry type %q", b)
}

// Entry wraps one event payload, like a message on the wire.
type Entry struct {
	Game uuid.UUID       `json:"game"`
	Time time.Time       `json:"time"`
	Type EntryType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Move struct {
	Move     string `json:"move"`
	Side     string `json:"side"`
	Capture  bool   `json:"capture"`
	ByEngine bool   `json:"byEngine"`
}

type Ended struct {
	Result string `json:"result"`
	Kind   string `json:"kind"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type Failed struct {
	Error string `json:"error"`
}

// Journal writes one Entry per line. Events it does not record are skipped.
type Journal struct {
	mu  sync.Mutex
	w   io.Writer
	id  uuid.UUID
	now func() time.Time
}

func New(w io.Writer, id uuid.UUID) *Journal {
	return &Journal{w: w, id: id, now: time.Now}
}

// Listener returns a game.Listener that records into j.
func (j *Journal) Listener() game.Listener {
	return func(ev game.Event) {
		if err := j.Record(ev); err != nil {
			log.Printf("journal: %v", err)
		}
	}
}

func (j *Journal) Record(ev game.Event) error {
	var (
		typ     EntryType
		payload interface{}
	)
	switch e := ev.(type) {
	case game.MoveApplied:
		typ = TypeMoveApplied
		payload = Move{Move: e.Move.String(), Side: e.Side.String(), Capture: e.Capture, ByEngine: e.ByEngine}
	case game.GameEnded:
		typ = TypeGameEnded
		ended := Ended{Result: e.Outcome.Result(), Kind: e.Outcome.Kind.String()}
		if e.Outcome.Kind == outcome.Checkmate {
			ended.Winner = e.Outcome.Winner.String()
		} else {
			ended.Reason = e.Outcome.Reason.String()
		}
		payload = ended
	case game.EngineFailed:
		typ = TypeEngineFailed
		payload = Failed{Error: e.Err.Error()}
	default:
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Entry{Game: j.id, Time: j.now().UTC(), Type: typ, Data: data})
	if err != nil {
		return err
	}
	b = append(b, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.w.Write(b)
	return err
}
