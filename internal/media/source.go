// Package media provides the local microphone track and remote audio sinks
// used by the voice client.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

// ErrSourceUnavailable means the microphone input could not be opened.
var ErrSourceUnavailable = errors.New("audio source unavailable")

const (
	opusClockRate = 48000
	frameDuration = 20 * time.Millisecond
)

// SampleSource yields opus frames ready to be written to a track.
type SampleSource interface {
	NextSample() (media.Sample, error)
	Close() error
}

// Opener opens a SampleSource. Opening is where access to the input is checked.
type Opener func() (SampleSource, error)

// silenceFrame is a 20ms opus frame of digital silence.
var silenceFrame = []byte{0xf8, 0xff, 0xfe}

type silence struct{}

func (silence) NextSample() (media.Sample, error) {
	return media.Sample{Data: silenceFrame, Duration: frameDuration}, nil
}

func (silence) Close() error { return nil }

// Silence feeds endless silent frames.
func Silence() Opener {
	return func() (SampleSource, error) { return silence{}, nil }
}

// OggFile feeds the pages of an Ogg/Opus file, looping at the end.
func OggFile(path string) Opener {
	return func() (SampleSource, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		src := &oggSource{f: f}
		if err := src.rewind(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return src, nil
	}
}

type oggSource struct {
	f           *os.File
	reader      *oggreader.OggReader
	lastGranule uint64
	// pages counts audio pages since the last rewind.
	pages int
}

func (s *oggSource) rewind() error {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	reader, _, err := oggreader.NewWith(s.f)
	if err != nil {
		return err
	}
	s.reader = reader
	s.lastGranule = 0
	s.pages = 0
	return nil
}

func (s *oggSource) NextSample() (media.Sample, error) {
	for {
		page, header, err := s.reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			if s.pages == 0 {
				return media.Sample{}, io.EOF
			}
			if err := s.rewind(); err != nil {
				return media.Sample{}, err
			}
			continue
		}
		if err != nil {
			return media.Sample{}, err
		}
		if bytes.HasPrefix(page, []byte("OpusTags")) || len(page) == 0 {
			continue
		}

		d := frameDuration
		if header.GranulePosition > s.lastGranule {
			d = time.Duration(header.GranulePosition-s.lastGranule) * time.Second / opusClockRate
		}
		s.lastGranule = header.GranulePosition
		s.pages++
		return media.Sample{Data: page, Duration: d}, nil
	}
}

func (s *oggSource) Close() error { return s.f.Close() }
