package core

import (
	"sync"

	"github.com/miali88/flowonai/internal/domain"
)

// memberSession pairs member meta with its transports.
type memberSession struct {
	meta *domain.Member

	mu     sync.RWMutex
	signal SignalConnection
	media  MediaConnection
}

func NewMemberSession(meta *domain.Member) MemberSession {
	return &memberSession{meta: meta}
}

func (m *memberSession) Meta() *domain.Member { return m.meta }

func (m *memberSession) Signal() SignalConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signal
}

func (m *memberSession) Media() MediaConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.media
}

func (m *memberSession) UpdateSignal(sc SignalConnection) MemberSession {
	m.mu.Lock()
	m.signal = sc
	m.mu.Unlock()
	return m
}

func (m *memberSession) UpdateMedia(mc MediaConnection) MemberSession {
	m.mu.Lock()
	m.media = mc
	m.mu.Unlock()
	return m
}

func (m *memberSession) SetMuted(muted bool) {
	m.mu.Lock()
	m.meta.Muted = muted
	m.mu.Unlock()
}

func (m *memberSession) Muted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta.Muted
}
