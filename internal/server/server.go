// Package server exposes the manager over a line-oriented unix control
// socket. One connection may pipeline any number of commands; every
// command line gets exactly one reply, payload lines followed by a
// terminator.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/shoji-wm/shoji/internal/proto"
)

const (
	readPollInterval = 100 * time.Millisecond
	writeTimeout     = 5 * time.Second
	maxLineLength    = 4096
)

// Executor runs one command line and returns its reply. The manager's
// event loop is the real implementation.
type Executor interface {
	Execute(ctx context.Context, line string) proto.Reply
}

// Server accepts control connections on a unix socket and feeds their
// command lines to the executor.
type Server struct {
	exec Executor
	path string

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *log.Logger

	conns   map[string]net.Conn
	connsMu sync.Mutex
	wg      sync.WaitGroup
}

// New creates a server for the given socket path.
func New(exec Executor, socketPath string) *Server {
	return &Server{
		exec:  exec,
		path:  socketPath,
		conns: make(map[string]net.Conn),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "ctl",
		}),
	}
}

// Start binds the socket and launches the accept loop. A live socket at
// the path means another instance is running; a dead one is removed.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := os.Stat(s.path); err == nil {
		if socketAlive(s.path) {
			return fmt.Errorf("control socket %s is in use", s.path)
		}
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}
	if err := os.Chmod(s.path, 0o700); err != nil {
		_ = listener.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}
	s.listener = listener

	if err := s.writePidFile(); err != nil {
		s.logger.Warn("write pid file", "err", err)
	}

	s.logger.Info("listening", "socket", s.path, "pid", os.Getpid())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Close stops accepting, drops every connection and removes the socket.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.connsMu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = make(map[string]net.Conn)
	s.connsMu.Unlock()

	s.wg.Wait()
	_ = os.Remove(s.path)
	_ = os.Remove(s.pidPath())
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("accept", "err", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	id := uuid.NewString()

	s.connsMu.Lock()
	s.conns[id] = conn
	s.connsMu.Unlock()

	s.logger.Debug("client connected", "client", id)
	defer func() {
		s.connsMu.Lock()
		delete(s.conns, id)
		s.connsMu.Unlock()
		_ = conn.Close()
		s.logger.Debug("client disconnected", "client", id)
	}()

	reader := bufio.NewReaderSize(conn, maxLineLength)
	var pending strings.Builder
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readPollInterval))
		chunk, err := reader.ReadString('\n')
		pending.WriteString(chunk)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Partial line; keep what arrived and poll again.
				continue
			}
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("read", "client", id, "err", err)
			}
			return
		}

		line := strings.TrimRight(pending.String(), "\r\n")
		pending.Reset()
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply := s.exec.Execute(s.ctx, line)
		if err := s.writeReply(conn, reply); err != nil {
			s.logger.Warn("write", "client", id, "err", err)
			return
		}
	}
}

// writeReply sends one framed reply. A deadline bounds how long a slow
// client can hold the connection goroutine.
func (s *Server) writeReply(conn net.Conn, reply proto.Reply) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := conn.Write([]byte(reply.Encode()))
	return err
}

func (s *Server) pidPath() string {
	return s.path + ".pid"
}

func (s *Server) writePidFile() error {
	return os.WriteFile(s.pidPath(), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600)
}

func socketAlive(path string) bool {
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
