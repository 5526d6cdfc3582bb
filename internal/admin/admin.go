// Package admin implements the server side of the admin wire protocol:
// password authentication, a per-endpoint session token, and a
// space-delimited command dispatcher returning pipe-delimited records.
// Grounded on the original AdminClient's login-then-command exchange.
package admin

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rtype-go/server/internal/net"
)

type session struct {
	token     string
	client    net.ClientID
	expiresAt time.Time
}

// Dispatcher authenticates admin connections and routes their commands.
// Disabled entirely when no password hash is configured.
type Dispatcher struct {
	mu           sync.Mutex
	passwordHash string
	sessionTTL   time.Duration
	sessions     map[string]*session
	commands     map[string]CommandFunc
	log          *zap.Logger
}

// CommandFunc handles one admin command's arguments and returns the
// response body (without the leading OK/ERR marker).
type CommandFunc func(args []string) (string, error)

func NewDispatcher(passwordHash string, sessionTTL time.Duration, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		passwordHash: passwordHash,
		sessionTTL:   sessionTTL,
		sessions:     make(map[string]*session),
		commands:     make(map[string]CommandFunc),
		log:          log,
	}
}

func (d *Dispatcher) Enabled() bool { return d.passwordHash != "" }

// Register adds a named command handler (e.g. "list-players", "kick").
func (d *Dispatcher) Register(name string, fn CommandFunc) {
	d.commands[name] = fn
}

// Login verifies the password and, on success, mints a session token bound
// to the requesting client's endpoint.
func (d *Dispatcher) Login(client net.ClientID, password string) (token string, ok bool) {
	if !d.Enabled() {
		return "", false
	}
	if bcrypt.CompareHashAndPassword([]byte(d.passwordHash), []byte(password)) != nil {
		return "", false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	tok := uuid.NewString()
	d.sessions[tok] = &session{token: tok, client: client, expiresAt: time.Now().Add(d.sessionTTL)}
	return tok, true
}

// Dispatch validates the session token against the requesting client and
// runs the named command. A stale, expired, or endpoint-mismatched token is
// rejected so a session can't be replayed from a different connection.
func (d *Dispatcher) Dispatch(client net.ClientID, token, command string) (ok bool, body string) {
	d.mu.Lock()
	sess, exists := d.sessions[token]
	if exists {
		if time.Now().After(sess.expiresAt) {
			delete(d.sessions, token)
			exists = false
		} else if sess.client != client {
			exists = false
		}
	}
	d.mu.Unlock()

	if !exists {
		return false, "unauthorized"
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, "empty command"
	}
	fn, ok := d.commands[fields[0]]
	if !ok {
		return false, fmt.Sprintf("unknown command %q", fields[0])
	}

	out, err := fn(fields[1:])
	if err != nil {
		d.log.Info("admin command failed", zap.String("command", fields[0]), zap.Error(err))
		return false, err.Error()
	}
	return true, out
}

// HashPassword is a small helper for operators generating a config value;
// not called from the hot path.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("admin: hash password: %w", err)
	}
	return string(hash), nil
}
