package dbus

import (
	"errors"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signal struct {
	name   string
	values []any
}

type fakeEmitter struct {
	mu      sync.Mutex
	signals []signal
	err     error
}

func (e *fakeEmitter) Emit(path dbus.ObjectPath, name string, values ...any) error {
	if path != DBusPath {
		return errors.New("unexpected path")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.signals = append(e.signals, signal{name: name, values: values})
	return nil
}

func (e *fakeEmitter) sent() []signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]signal(nil), e.signals...)
}

// fakeRegistry treats every delivered notification as open until closed.
type fakeRegistry struct {
	mu   sync.Mutex
	open map[uint32]bool
}

func (r *fakeRegistry) IsUnread(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open[id]
}

func (r *fakeRegistry) set(id uint32, open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[id] = open
}

func newTestServer() (*Server, *fakeEmitter, *fakeRegistry) {
	e := &fakeEmitter{}
	reg := &fakeRegistry{open: make(map[uint32]bool)}
	s := NewServer(nil)
	s.emitter = e
	s.SetRegistry(reg)
	s.SetNotifyHandler(func(_ *Request, id uint32) { reg.set(id, true) })
	s.SetCloseHandler(func(id uint32) bool {
		open := reg.IsUnread(id)
		reg.set(id, false)
		return open
	})
	return s, e, reg
}

func notify(s *Server, appName string, replacesID uint32) uint32 {
	id, err := s.Notify(appName, replacesID, "", "summary", "", nil, nil, -1)
	if err != nil {
		panic(err)
	}
	return id
}

func TestServer_NotifyAssignsIncreasingIDs(t *testing.T) {
	s, _, _ := newTestServer()

	a := notify(s, "app", 0)
	b := notify(s, "app", 0)
	c := s.NotifyInternal(&Request{AppName: "notistack", Summary: "c"})

	assert.Equal(t, []uint32{1, 2, 3}, []uint32{a, b, c})
	assert.True(t, s.IsOpen(c))
}

func TestServer_NotifyReplacesOpenID(t *testing.T) {
	s, _, reg := newTestServer()

	var reqs []*Request
	s.SetNotifyHandler(func(req *Request, id uint32) {
		reqs = append(reqs, req)
		reg.set(id, true)
	})

	first := notify(s, "app", 0)
	second := notify(s, "app", first)

	assert.Equal(t, first, second)
	require.Len(t, reqs, 2)
	assert.Equal(t, first, reqs[1].ReplacesID)
	assert.Equal(t, first+1, notify(s, "app", 0))
}

func TestServer_NotifyIgnoresUnknownReplacesID(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *Server) uint32
	}{
		{
			name:    "never issued",
			prepare: func(*Server) uint32 { return 3 },
		},
		{
			name: "already closed",
			prepare: func(s *Server) uint32 {
				id := notify(s, "a", 0)
				s.CloseNotification(id)
				return id
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, reg := newTestServer()
			var reqs []*Request
			s.SetNotifyHandler(func(req *Request, id uint32) {
				reqs = append(reqs, req)
				reg.set(id, true)
			})

			stale := tt.prepare(s)
			replaced := notify(s, "a", stale)
			assert.Zero(t, reqs[len(reqs)-1].ReplacesID)

			seen := map[uint32]bool{replaced: true}
			for range 3 {
				id := notify(s, "b", 0)
				assert.False(t, seen[id], "id %d issued twice while open", id)
				seen[id] = true
			}
		})
	}
}

func TestServer_AllocateSkipsOpenIDsAfterWrap(t *testing.T) {
	s, _, reg := newTestServer()
	reg.set(1, true)
	reg.set(2, true)
	s.nextID.Store(^uint32(0) - 1)

	assert.Equal(t, ^uint32(0), notify(s, "a", 0))
	assert.Equal(t, uint32(3), notify(s, "a", 0))
}

func TestServer_NoRegistryNeverReplaces(t *testing.T) {
	s := NewServer(nil)
	first := notify(s, "a", 0)
	assert.NotEqual(t, first, notify(s, "a", first))
}

func TestServer_CloseNotification(t *testing.T) {
	s, e, _ := newTestServer()

	id := notify(s, "app", 0)
	assert.Nil(t, s.CloseNotification(id))
	assert.False(t, s.IsOpen(id))

	assert.Nil(t, s.CloseNotification(id))
	assert.Nil(t, s.CloseNotification(99))

	assert.Equal(t, []signal{{
		name:   DBusInterface + ".NotificationClosed",
		values: []any{id, uint32(CloseReasonClosed)},
	}}, e.sent(), "only the open notification is signalled")
}

func TestServer_InvokeAction(t *testing.T) {
	tests := []struct {
		name     string
		resident bool
		signals  []string
	}{
		{
			name:     "non-resident closes",
			resident: false,
			signals:  []string{"ActionInvoked", "NotificationClosed"},
		},
		{
			name:     "resident stays",
			resident: true,
			signals:  []string{"ActionInvoked"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, _ := newTestServer()
			id := notify(s, "app", 0)

			require.NoError(t, s.InvokeAction(id, "default", tt.resident))

			var names []string
			for _, sig := range e.sent() {
				names = append(names, sig.name[len(DBusInterface)+1:])
			}
			assert.Equal(t, tt.signals, names)
		})
	}
}

func TestServer_CloseWithReason(t *testing.T) {
	s, e, _ := newTestServer()

	require.NoError(t, s.CloseWithReason(4, CloseReasonExpired))

	sent := e.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []any{uint32(4), uint32(CloseReasonExpired)}, sent[0].values)
}

func TestServer_EmitErrors(t *testing.T) {
	s := NewServer(nil)
	assert.ErrorIs(t, s.EmitActionInvoked(1, "default"), ErrNotConnected)

	s, e, _ := newTestServer()
	e.err = errors.New("bus gone")
	err := s.EmitNotificationClosed(1, CloseReasonExpired)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus gone")
}

func TestServer_Information(t *testing.T) {
	s, _, _ := newTestServer()
	s.SetServerInfo(ServerInfo{Name: "notistackd", Vendor: "notistack", Version: "1.0.0", SpecVersion: "1.2"})

	name, vendor, version, spec, err := s.GetServerInformation()
	assert.Nil(t, err)
	assert.Equal(t, []string{"notistackd", "notistack", "1.0.0", "1.2"}, []string{name, vendor, version, spec})

	caps, err := s.GetCapabilities()
	assert.Nil(t, err)
	assert.Equal(t, ServerCapabilities, caps)
}
