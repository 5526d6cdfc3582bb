package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(t *testing.T, ttl time.Duration) *Dispatcher {
	t.Helper()
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	return NewDispatcher(hash, ttl, zap.NewNop())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	d := newTestDispatcher(t, time.Minute)
	_, ok := d.Login(1, "wrong")
	assert.False(t, ok)
}

func TestLoginThenDispatchSucceeds(t *testing.T) {
	d := newTestDispatcher(t, time.Minute)
	d.Register("list-players", func(args []string) (string, error) { return "alice|bob", nil })

	token, ok := d.Login(1, "hunter2")
	require.True(t, ok)

	success, body := d.Dispatch(1, token, "list-players")
	assert.True(t, success)
	assert.Equal(t, "alice|bob", body)
}

func TestDispatchRejectsTokenFromDifferentClient(t *testing.T) {
	d := newTestDispatcher(t, time.Minute)
	d.Register("list-players", func(args []string) (string, error) { return "", nil })

	token, _ := d.Login(1, "hunter2")
	ok, body := d.Dispatch(2, token, "list-players")
	assert.False(t, ok)
	assert.Equal(t, "unauthorized", body)
}

func TestDispatchRejectsExpiredSession(t *testing.T) {
	d := newTestDispatcher(t, time.Millisecond)
	d.Register("list-players", func(args []string) (string, error) { return "", nil })

	token, _ := d.Login(1, "hunter2")
	time.Sleep(5 * time.Millisecond)

	ok, _ := d.Dispatch(1, token, "list-players")
	assert.False(t, ok)
}

func TestDispatchUnknownCommand(t *testing.T) {
	d := newTestDispatcher(t, time.Minute)
	token, _ := d.Login(1, "hunter2")
	ok, body := d.Dispatch(1, token, "nonexistent")
	assert.False(t, ok)
	assert.Contains(t, body, "unknown command")
}
