package voice

// teardown releases everything s acquired. It runs once per session no matter
// how many triggers race; every caller returns after it completed.
func (c *Controller) teardown(s *session, cause error) {
	c.teardownThen(s, cause, nil)
}

// teardownThen is teardown with released run between releasing s and notifying
// the observer. The Start goroutine passes s.exit so that observer callbacks
// may call Start again.
func (c *Controller) teardownThen(s *session, cause error, released func()) {
	ran := false
	s.teardownOnce.Do(func() {
		ran = true
		c.mu.Lock()
		s.tornDown = true
		if c.current == s {
			c.state = StateDisconnecting
		}
		room := s.room
		c.mu.Unlock()

		s.detached.Store(true)
		s.cancel(cause)
		s.closeRemote()
		s.logger.Info().AnErr("cause", cause).Msg("tearing down session")

		c.binder.release(s, room)

		if room != nil {
			if err := room.Disconnect(); err != nil {
				s.logger.Warn().Err(err).Msg("room disconnect failed")
			}
		}
		if !s.waitPlayback(c.cfg.TeardownTimeout) {
			s.logger.Warn().Dur("timeout", c.cfg.TeardownTimeout).Msg("playback still running after teardown")
		}

		c.mu.Lock()
		s.room = nil
		p := s.participant
		s.participant = nil
		if c.current == s {
			c.current = nil
			c.state = StateIdle
		}
		c.mu.Unlock()

		if p != nil {
			p.detach()
		}
		s.logger.Info().Msg("session idle")
		if released != nil {
			released()
		}
		c.observer.OnDisconnected()
		close(s.done)
	})
	if !ran && released != nil {
		released()
	}
	<-s.done
}
