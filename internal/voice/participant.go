package voice

import "sync"

// Participant is a read-only view of the local participant for UI code.
// The controller owns the underlying endpoint; after teardown the handle
// reports a detached, silent participant.
type Participant struct {
	identity string

	mu    sync.RWMutex
	local LocalParticipant
	muted bool
}

func newParticipant(local LocalParticipant) *Participant {
	return &Participant{identity: local.Identity(), local: local}
}

func (p *Participant) Identity() string { return p.identity }

// MicrophoneEnabled reports whether the microphone is currently live.
func (p *Participant) MicrophoneEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.local == nil {
		return false
	}
	return p.local.MicrophoneEnabled()
}

func (p *Participant) Muted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.muted
}

// Attached reports whether the handle still refers to a live session.
func (p *Participant) Attached() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.local != nil
}

func (p *Participant) setMuted(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
}

func (p *Participant) detach() {
	p.mu.Lock()
	p.local = nil
	p.mu.Unlock()
}
