package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/qnkhuat/stockterm/pkg"
	"github.com/qnkhuat/stockterm/pkg/engine"
	"github.com/qnkhuat/stockterm/pkg/sshserve"
)

var (
	done = make(chan bool)
)

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, " ")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var gameArgs stringList
	listen := flag.String("listen", sshserve.DefaultAddress, "address to listen for ssh connections")
	binary := flag.String("binary", "stockterm", "path to the stockterm binary started per session")
	hostKey := flag.String("hostkey", "", "ssh host key file, generated when empty or missing")
	idle := flag.Duration("idle", sshserve.ServerIdleTimeout, "disconnect idle sessions after this long")
	logPath := flag.String("log", "./server.log", "path to log file")
	enginePath := flag.String("engine", "stockfish", "path to a UCI engine, passed to every session")
	moveTime := flag.Duration("movetime", engine.DefaultMoveTime, "engine thinking time per move, passed to every session")
	flag.Var(&gameArgs, "game-arg", "extra argument for every session, may be repeated")
	flag.Parse()

	pkg.InitLog(*logPath, "SERVER: ")
	log.Println("Server started")

	args := append([]string{
		"-engine", *enginePath,
		"-movetime", moveTime.String(),
		"-log", os.DevNull,
	}, gameArgs...)
	s := &sshserve.Server{
		ListenAddress: *listen,
		Binary:        *binary,
		Args:          args,
		HostKeyFile:   *hostKey,
		IdleTimeout:   *idle,
	}

	go func() {
		if err := s.ListenAndServe(); err != nil {
			color.Red("server: %v", err)
			log.Printf("server stopped: %v", err)
		}
		done <- true
	}()
	color.Green("Serving stockterm over ssh at %s", *listen)

	// Wait for terminate signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGINT,
		syscall.SIGTERM)
	go func() {
		<-sigc

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	<-done
}
