package nats

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/smazurov/ledring/internal/logging"
)

// ErrServerNotReady is returned when the embedded server does not accept
// connections in time.
var ErrServerNotReady = errors.New("embedded NATS server not ready")

const (
	defaultServerPort = 4222
	defaultServerHost = "127.0.0.1"
	readyTimeout      = 5 * time.Second
)

// ServerOptions configures the embedded NATS server. Zero values take the
// defaults: 127.0.0.1:4222, named "ledring".
type ServerOptions struct {
	Port   int
	Host   string
	Name   string
	Debug  bool // forward the server's debug output
	Logger logging.Logger
}

// Server is an in-process NATS server for single-host setups, so the
// bridge and `ledring send --nats` work without a separate broker.
type Server struct {
	opts   ServerOptions
	logger logging.Logger

	mu sync.Mutex
	ns *server.Server
}

// NewServer creates a stopped embedded server.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == 0 {
		opts.Port = defaultServerPort
	}
	if opts.Host == "" {
		opts.Host = defaultServerHost
	}
	if opts.Name == "" {
		opts.Name = "ledring"
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger("nats")
	}
	return &Server{opts: opts, logger: opts.Logger}
}

// Start runs the server and blocks until it accepts connections. Calling
// Start on a running server does nothing.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ns != nil {
		return nil
	}

	ns, err := server.NewServer(&server.Options{
		Host:           s.opts.Host,
		Port:           s.opts.Port,
		ServerName:     s.opts.Name,
		NoSigs:         true,
		MaxControlLine: 4096,
		MaxPayload:     64 * 1024,
	})
	if err != nil {
		return fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLoggerV2(serverLog{s.logger}, s.opts.Debug, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return fmt.Errorf("%w after %v on %s:%d", ErrServerNotReady, readyTimeout, s.opts.Host, s.opts.Port)
	}

	s.ns = ns
	s.logger.Info("Embedded NATS server started", "url", ns.ClientURL())
	return nil
}

// Stop shuts the server down and waits for it to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	ns := s.ns
	s.ns = nil
	s.mu.Unlock()

	if ns == nil {
		return
	}
	s.logger.Info("Stopping embedded NATS server")
	ns.Shutdown()
	ns.WaitForShutdown()
}

// ClientURL returns the URL clients connect to.
func (s *Server) ClientURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ns == nil {
		return fmt.Sprintf("nats://%s:%d", s.opts.Host, s.opts.Port)
	}
	return s.ns.ClientURL()
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns != nil && s.ns.Running()
}

// NumClients returns the number of connected clients.
func (s *Server) NumClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ns == nil {
		return 0
	}
	return s.ns.NumClients()
}

// serverLog routes nats-server output to our logger.
type serverLog struct {
	logger logging.Logger
}

func (l serverLog) Noticef(format string, v ...any) { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l serverLog) Warnf(format string, v ...any)   { l.logger.Warn(fmt.Sprintf(format, v...)) }
func (l serverLog) Fatalf(format string, v ...any)  { l.logger.Error(fmt.Sprintf(format, v...)) }
func (l serverLog) Errorf(format string, v ...any)  { l.logger.Error(fmt.Sprintf(format, v...)) }
func (l serverLog) Debugf(format string, v ...any)  { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l serverLog) Tracef(format string, v ...any)  { l.logger.Debug(fmt.Sprintf(format, v...)) }
