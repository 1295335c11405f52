// Package sshserve hosts the game binary over SSH: every session gets its own
// pseudo-terminal running a fresh game.
package sshserve

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/qnkhuat/stockterm/pkg"
	gossh "golang.org/x/crypto/ssh"
)

const (
	ServerIdleTimeout = 5 * time.Minute
	DefaultAddress    = ":2222"
)

type Server struct {
	ListenAddress string
	IdleTimeout   time.Duration

	// Binary is the stockterm executable started for each session.
	Binary string

	// Args are passed to Binary before the per-session flags.
	Args []string

	// HostKeyFile is used when it exists; otherwise a key is generated.
	HostKeyFile string

	mu     sync.Mutex
	server *ssh.Server
}

// SessionArgs returns the arguments Binary is started with for a user.
func (s *Server) SessionArgs(user string) []string {
	args := append([]string(nil), s.Args...)
	return append(args, "-name", pkg.Nickname(user))
}

func (s *Server) handle(sess ssh.Session) {
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "failed to start stockterm: non-interactive terminals are not supported\n")
		sess.Exit(1)
		return
	}

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	args := s.SessionArgs(sess.User())
	cmd := exec.CommandContext(cmdCtx, s.Binary, args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(ptyReq.Window.Height),
		Cols: uint16(ptyReq.Window.Width),
	})
	if err != nil {
		log.Printf("failed to start %s for %s: %v", s.Binary, sess.User(), err)
		io.WriteString(sess, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		sess.Exit(1)
		return
	}
	defer f.Close()
	log.Printf("session for %s started %s %v", sess.User(), s.Binary, args)

	go func() {
		for win := range winCh {
			pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)})
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	cancelCmd()
	if err := cmd.Wait(); err != nil {
		log.Printf("session for %s ended: %v", sess.User(), err)
	}
	sess.Exit(0)
}

// hostKey loads HostKeyFile or, when it does not exist, generates an ed25519
// key for the lifetime of the process.
func (s *Server) hostKey() (ssh.Option, error) {
	if s.HostKeyFile != "" {
		_, err := os.Stat(s.HostKeyFile)
		if err == nil {
			return ssh.HostKeyFile(s.HostKeyFile), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Printf("host key %s not found, generating one", s.HostKeyFile)
	}
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, err := gossh.NewSignerFromKey(priv)
	if err != nil {
		return nil, err
	}
	return func(srv *ssh.Server) error {
		srv.AddHostKey(signer)
		return nil
	}, nil
}

func (s *Server) setup() error {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultAddress
	}
	if s.Binary == "" {
		return errors.New("sshserve: no game binary configured")
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = ServerIdleTimeout
	}
	server := &ssh.Server{
		Addr:        s.ListenAddress,
		IdleTimeout: s.IdleTimeout,
		Handler:     s.handle,
	}
	opt, err := s.hostKey()
	if err != nil {
		return fmt.Errorf("sshserve: host key: %w", err)
	}
	if err := server.SetOption(opt); err != nil {
		return fmt.Errorf("sshserve: host key: %w", err)
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()
	return nil
}

// ListenAndServe blocks until the server fails or is shut down.
func (s *Server) ListenAndServe() error {
	if err := s.setup(); err != nil {
		return err
	}
	log.Printf("listening for ssh at %s", s.ListenAddress)
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	err := server.ListenAndServe()
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
