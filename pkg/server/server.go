package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crystal-mush/rpkit/pkg/events"
	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// Server is the TCP front end for a Game.
type Server struct {
	Game        *Game
	IdleTimeout time.Duration // zero disables the idle disconnect
	MaxRetries  int
	WelcomeText string

	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer creates a server for g using its configuration.
func NewServer(g *Game) *Server {
	return &Server{
		Game:        g,
		IdleTimeout: g.Conf.IdleTimeout,
		MaxRetries:  3,
		WelcomeText: WelcomeText,
	}
}

// Start listens on addr and accepts connections in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.listener = ln
	s.Game.Logger.Info("listening", zap.String("addr", ln.Addr().String()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ln)
	}()
	return nil
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.Game.Logger.Warn("accept error", zap.Error(err))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// Stop closes the listener, drops every connection and waits for their
// handlers to finish.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	for _, d := range s.Game.Conns.AllDescriptors() {
		d.Close()
	}
	s.wg.Wait()
}

// handleConnection manages a single client connection lifecycle.
func (s *Server) handleConnection(conn net.Conn) {
	g := s.Game
	d := NewDescriptor(g.Conns.NextID(), conn)
	d.Retries = s.MaxRetries
	g.Conns.Add(d)
	g.Metrics.ConnectionOpened()

	log := g.Logger.With(zap.Int("desc", d.ID), zap.String("addr", d.Addr))
	log.Info("new connection")

	defer func() {
		g.runLocked(func() { g.disconnect(d) })
		d.Close()
		log.Info("connection closed")
	}()

	d.SendNoNewline(s.WelcomeText)

	scanner := bufio.NewScanner(d.Conn)
	scanner.Buffer(make([]byte, 8192), 8192)

	for {
		if s.IdleTimeout > 0 {
			d.Conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		}
		if !scanner.Scan() {
			break
		}
		if d.IsClosed() {
			return
		}

		line := scanner.Text()
		d.BytesRecv += len(line) + 1
		line = strings.TrimRight(stripTelnet(line), "\r\n")
		d.Touch()

		if d.State == ConnLogin {
			g.runLocked(func() { s.handleLoginCommand(d, line) })
		} else {
			d.CmdCount++
			log.Debug("command", zap.Int("player", int(d.Player)), zap.String("input", line))
			DispatchCommand(g, d, line)
		}

		if d.IsClosed() {
			return
		}
	}
	if err := scanner.Err(); errors.Is(err, os.ErrDeadlineExceeded) {
		d.Send("You have been idle too long. Goodbye.")
		log.Info("idle timeout")
	}
}

// disconnect announces a departure and forgets the descriptor. Callers
// hold the game lock.
func (g *Game) disconnect(d *Descriptor) {
	if d.State == ConnConnected {
		if obj, ok := g.DB.Get(d.Player); ok && len(g.Conns.GetByPlayer(d.Player)) == 1 {
			g.announce(d.Player, events.EvDisconnect, obj.Name+" has disconnected.")
		}
	}
	g.Conns.Remove(d)
}

// handleLoginCommand processes pre-login commands. Callers hold the game lock.
func (s *Server) handleLoginCommand(d *Descriptor, input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	if strings.EqualFold(input, "QUIT") {
		d.Send("Goodbye!")
		d.Close()
		return
	}

	command, user, password := ParseConnect(input)
	switch {
	case strings.HasPrefix(command, "co"):
		s.handleConnect(d, user, password)
	case strings.HasPrefix(command, "cr"):
		s.handleCreate(d, user, password)
	default:
		d.Send("Welcome to " + s.Game.Conf.MudName + ". Commands: connect, create, QUIT")
	}
}

func (s *Server) failLogin(d *Descriptor) {
	d.Send("Either that player does not exist, or has a different password.")
	d.Retries--
	if d.Retries <= 0 {
		d.Send("Too many failed attempts. Disconnecting.")
		d.Close()
	}
}

// handleConnect authenticates and logs in a player.
func (s *Server) handleConnect(d *Descriptor, user, password string) {
	g := s.Game
	if user == "" {
		d.Send("Usage: connect <name> <password>")
		return
	}
	player := g.DB.LookupPlayer(user)
	if player == gamedb.Nothing || !CheckPassword(g.DB, player, password) {
		g.Logger.Info("failed login", zap.Int("desc", d.ID), zap.String("user", user))
		s.failLogin(d)
		return
	}
	s.login(d, player)
	obj, _ := g.DB.Get(player)
	d.Send(fmt.Sprintf("Welcome back, %s!", obj.Name))
	g.ShowRoom(d, obj.Location)
}

// handleCreate creates a new player and logs them in.
func (s *Server) handleCreate(d *Descriptor, user, password string) {
	g := s.Game
	if user == "" || password == "" {
		d.Send("Usage: create <name> <password>")
		return
	}
	if g.DB.LookupPlayer(user) != gamedb.Nothing {
		d.Send("That name is already taken.")
		return
	}
	if msg, ok := validPlayerName(user); !ok {
		d.Send(msg)
		return
	}
	hash, err := HashPassword(password)
	if err != nil {
		g.Logger.Error("hash password", zap.Error(err))
		d.Send("Character creation failed. Please try again.")
		return
	}

	first := !g.hasPlayers()
	obj := g.DB.Create(user, gamedb.TypePlayer)
	obj.PassHash = hash
	obj.Location = g.StartingRoom()
	if first {
		obj.Perm = gamedb.PermDeveloper
	}
	c := g.wrap(obj)
	if err := c.InitFingerDefaults(); err != nil {
		g.Logger.Error("persist new player", zap.Stringer("character", c), zap.Error(err))
	}
	g.Logger.Info("player created", zap.Stringer("character", c), zap.String("addr", d.Addr))

	s.login(d, obj.DBRef)
	d.Send(fmt.Sprintf("Welcome to %s, %s! Your character has been created as #%d.", g.Conf.MudName, user, obj.DBRef))
	g.ShowRoom(d, obj.Location)
}

func (s *Server) login(d *Descriptor, player gamedb.DBRef) {
	g := s.Game
	already := g.Conns.IsConnected(player)
	g.Conns.Login(d, player)
	obj, _ := g.DB.Get(player)
	g.Logger.Info("player connected", zap.Int("desc", d.ID), zap.String("player", obj.Name), zap.Int("ref", int(player)))
	if !already {
		g.announce(player, events.EvConnect, obj.Name+" has connected.")
	}
}

func (g *Game) hasPlayers() bool {
	for _, obj := range g.DB.Objects {
		if obj.Type == gamedb.TypePlayer {
			return true
		}
	}
	return false
}

// stripTelnet removes telnet IAC command sequences from input.
func stripTelnet(s string) string {
	var buf strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == 0xFF && i+2 < len(s) {
			// IAC command: skip 3 bytes (IAC + cmd + option)
			i += 3
			continue
		}
		if s[i] == 0xFF && i+1 < len(s) {
			i += 2
			continue
		}
		if s[i] < 32 && s[i] != '\t' {
			i++
			continue
		}
		buf.WriteByte(s[i])
		i++
	}
	return buf.String()
}
