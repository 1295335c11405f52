// Package engine asks an external UCI engine for moves. Every request runs
// its own engine process, which is released before the request returns.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/notnil/chess/uci"
	"github.com/qnkhuat/stockterm/pkg/position"
)

const (
	DefaultMoveTime = time.Second
	DefaultGrace    = 2 * time.Second

	// quitDelay is how long the engine may take to honour "quit" before it is killed.
	quitDelay = 250 * time.Millisecond
	// waitDelay bounds pipe draining after the process is gone.
	waitDelay  = time.Second
	lineBuffer = 64
)

// Session describes how to run the engine. The zero Grace means DefaultGrace.
type Session struct {
	Path string
	Args []string
	// Env is appended to the current environment.
	Env   []string
	Grace time.Duration
	// Logger receives the protocol exchange when set.
	Logger *log.Logger

	started func(*exec.Cmd)
}

// RequestMove starts the engine, lets it search pos for at most limit and
// returns its best move. The wait is bounded by limit plus the grace period.
// Any returned move is a member of pos.LegalMoves(); every error is a
// *Failure.
func (s *Session) RequestMove(ctx context.Context, pos position.Model, limit time.Duration) (position.Move, error) {
	if limit <= 0 {
		limit = DefaultMoveTime
	}
	grace := s.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	ctx, cancel := context.WithTimeout(ctx, limit+grace)
	defer cancel()

	p, err := s.start(ctx)
	if err != nil {
		return position.Move{}, &Failure{Kind: StartupFailed, Err: err}
	}
	defer p.release()

	best, err := p.search(ctx, pos.PositionCommand(), limit)
	if err != nil {
		return position.Move{}, &Failure{Kind: NoResponse, Err: err}
	}
	mv, err := position.ParseMove(best)
	if err != nil {
		return position.Move{}, &Failure{Kind: NoResponse, Err: err}
	}
	if !position.Contains(pos.LegalMoves(), mv) {
		return position.Move{}, &Failure{
			Kind: IllegalProposal,
			Err:  fmt.Errorf("%s is not legal in %s", mv, pos.FEN()),
		}
	}
	return mv, nil
}

type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	done   chan struct{}
	logger *log.Logger
}

func (s *Session) start(ctx context.Context) (*process, error) {
	if s.Path == "" {
		return nil, errors.New("no engine path configured")
	}
	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &process{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, lineBuffer),
		done:   make(chan struct{}),
		logger: s.Logger,
	}
	go p.read(stdout)
	if s.started != nil {
		s.started(cmd)
	}
	return p, nil
}

func (p *process) read(r io.Reader) {
	defer close(p.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case p.lines <- scanner.Text():
		case <-p.done:
			return
		}
	}
}

func (p *process) tracef(format string, v ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, v...)
	}
}

func (p *process) send(cmd fmt.Stringer) error {
	line := cmd.String()
	p.tracef("> %s", line)
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("writing %q: %w", line, err)
	}
	return nil
}

// expect skips lines until one starts with token.
func (p *process) expect(ctx context.Context, token string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for %s: %w", token, ctx.Err())
		case line, ok := <-p.lines:
			if !ok {
				return "", fmt.Errorf("engine exited while waiting for %s", token)
			}
			p.tracef("< %s", line)
			if line == token || strings.HasPrefix(line, token+" ") {
				return line, nil
			}
		}
	}
}

func (p *process) search(ctx context.Context, setup uci.CmdPosition, limit time.Duration) (string, error) {
	if err := p.send(uci.CmdUCI); err != nil {
		return "", err
	}
	if _, err := p.expect(ctx, "uciok"); err != nil {
		return "", err
	}
	if err := p.send(uci.CmdUCINewGame); err != nil {
		return "", err
	}
	if err := p.send(uci.CmdIsReady); err != nil {
		return "", err
	}
	if _, err := p.expect(ctx, "readyok"); err != nil {
		return "", err
	}
	if err := p.send(setup); err != nil {
		return "", err
	}
	if err := p.send(uci.CmdGo{MoveTime: limit}); err != nil {
		return "", err
	}
	line, err := p.expect(ctx, "bestmove")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", fmt.Errorf("malformed reply %q", line)
	}
	switch fields[1] {
	case "(none)", "0000":
		return "", fmt.Errorf("engine has no move: %q", line)
	}
	return fields[1], nil
}

// release asks the engine to quit, kills it if it does not, and reaps it.
func (p *process) release() {
	close(p.done)
	p.send(uci.CmdQuit)
	p.stdin.Close()

	exited := make(chan error, 1)
	go func() {
		exited <- p.cmd.Wait()
	}()
	var err error
	select {
	case err = <-exited:
	case <-time.After(quitDelay):
		p.tracef("engine ignored quit, killing pid %d", p.cmd.Process.Pid)
		p.cmd.Process.Kill()
		err = <-exited
	}
	if err != nil {
		p.tracef("engine exited: %v", err)
	}
}
