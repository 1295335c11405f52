package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/qnkhuat/stockterm/pkg"
	"github.com/qnkhuat/stockterm/pkg/engine"
	"github.com/qnkhuat/stockterm/pkg/game"
	"github.com/qnkhuat/stockterm/pkg/journal"
	"github.com/qnkhuat/stockterm/pkg/outcome"
	"github.com/qnkhuat/stockterm/pkg/position"
	"github.com/qnkhuat/stockterm/pkg/tui"
	"golang.org/x/term"
)

const inputQueueSize = 16

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, " ")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type result struct {
	outcome outcome.Outcome
	err     error
}

func fatalf(format string, v ...interface{}) {
	log.Printf(format, v...)
	color.Red(format, v...)
	os.Exit(1)
}

func main() {
	os.Exit(run())
}

func run() int {
	var engineArgs stringList
	enginePath := flag.String("engine", "stockfish", "path to a UCI engine")
	flag.Var(&engineArgs, "engine-arg", "argument passed to the engine, may be repeated")
	moveTime := flag.Duration("movetime", engine.DefaultMoveTime, "engine thinking time per move")
	grace := flag.Duration("grace", engine.DefaultGrace, "time on top of movetime before the engine is abandoned")
	sideFlag := flag.String("side", "white", "side played by the human")
	fen := flag.String("fen", "", "start position in FEN, the initial layout when empty")
	promote := flag.String("promote", "q", "piece chosen for promotions: q, r, b or n")
	name := flag.String("name", "", "player name, a random pet name when empty")
	themeName := flag.String("theme", tui.ThemeBasic.Name, "board theme")
	themeFile := flag.String("theme-file", "", "JSON file with additional themes")
	journalPath := flag.String("journal", "", "append game events as JSON lines to this file")
	logPath := flag.String("log", "./stockterm.log", "path to log file")
	debug := flag.Bool("debug", false, "log the engine protocol")
	flag.Parse()

	pkg.InitLog(*logPath, "STOCKTERM: ")

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fatalf("failed to start stockterm: non-interactive terminals are not supported")
	}

	human, err := position.ParseSide(*sideFlag)
	if err != nil {
		fatalf("%v", err)
	}
	promotion, ok := position.ParsePromotion(*promote)
	if !ok {
		fatalf("invalid promotion piece %q", *promote)
	}
	theme, err := loadTheme(*themeName, *themeFile)
	if err != nil {
		fatalf("%v", err)
	}
	pos := position.NewGame()
	if *fen != "" {
		if pos, err = position.NewGameFromFEN(*fen); err != nil {
			fatalf("%v", err)
		}
	}

	session := &engine.Session{Path: *enginePath, Args: engineArgs, Grace: *grace}
	if *debug {
		session.Logger = log.New(log.Writer(), "ENGINE: ", log.LstdFlags)
	}
	ctrl := game.NewController(pos, session, game.Config{
		Human:     human,
		MoveTime:  *moveTime,
		Promotion: promotion,
	})

	if *journalPath != "" {
		f, err := os.OpenFile(*journalPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			fatalf("error opening journal: %v", err)
		}
		defer f.Close()
		ctrl.Subscribe(journal.New(f, ctrl.ID).Listener())
	}

	playerName := pkg.Nickname(*name)
	in := make(chan game.Input, inputQueueSize)
	ui := tui.New(ctrl, in, theme, playerName)
	ctrl.Subscribe(ui.HandleEvent)
	log.Printf("game %s: %s plays %s against %s", ctrl.ID, playerName, human, *enginePath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		o, err := ctrl.Run(ctx, in)
		done <- result{outcome: o, err: err}
		// A finished game stays on screen until the player leaves.
		if err != nil || !o.Over() {
			ui.Stop()
		}
	}()

	uiErr := ui.Run()
	// The game loop only returns once an outstanding engine request is released.
	cancel()
	res := <-done

	return report(ctrl, pos, res, uiErr)
}

func loadTheme(name, file string) (tui.Theme, error) {
	var themes []tui.ThemeHex
	if file != "" {
		var err error
		if themes, err = tui.LoadThemes(file); err != nil {
			return tui.Theme{}, err
		}
	}
	theme, err := tui.ImportThemes(name, themes)
	if err != nil {
		return tui.Theme{}, fmt.Errorf("%w: %q", err, name)
	}
	return theme, nil
}

// report prints the end of the session for the operator and returns the
// exit code.
func report(ctrl *game.Controller, pos *position.Game, res result, uiErr error) int {
	code := 0
	if uiErr != nil {
		color.Red("terminal error: %v", uiErr)
		code = 1
	}
	if res.err != nil && !errors.Is(res.err, context.Canceled) {
		color.Red("stockterm: %v", res.err)
		log.Printf("fatal: %v", res.err)
		return 1
	}

	snap := ctrl.Snapshot()
	if snap.EngineErr != nil {
		color.Red("engine failure: %v", snap.EngineErr)
	}
	if res.outcome.Over() {
		color.New(color.FgGreen, color.Bold).Printf("Game over: %s\n", res.outcome)
	} else {
		color.Yellow("Game left after %d moves", len(snap.Moves))
	}
	fmt.Println(pos.PGN())
	return code
}
