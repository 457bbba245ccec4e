package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/voice"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OggRecorder writes every remote audio track to its own .ogg file in Dir.
type OggRecorder struct {
	Dir string
}

// Path is the file a track is recorded to.
func (r OggRecorder) Path(track voice.RemoteAudioTrack) string {
	name := unsafeName.ReplaceAllString(track.Participant()+"-"+track.ID(), "_")
	return filepath.Join(r.Dir, name+".ogg")
}

func (r OggRecorder) Play(ctx context.Context, track voice.RemoteAudioTrack) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("record dir: %w", err)
	}
	path := r.Path(track)
	w, err := oggwriter.New(path, opusClockRate, 2)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	logger := log.With().Str("module", "media.recorder").Str("track", track.ID()).Str("file", path).Logger()
	logger.Info().Msg("recording remote audio")

	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn().Err(err).Msg("close recording")
		}
	}()

	packets := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, err := track.ReadRTP()
		if errors.Is(err, io.EOF) {
			logger.Info().Int("packets", packets).Msg("track ended")
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.WriteRTP(pkt); err != nil {
			return fmt.Errorf("write recording: %w", err)
		}
		packets++
	}
}
