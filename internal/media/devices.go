// Package media provides file-backed and synthetic capture devices. They
// pace real encoded frames onto sample tracks, which is enough to drive a
// full mesh end to end on machines without cameras, in CI and in soak
// environments.
package media

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"github.com/pion/webrtc/v3/pkg/media/ivfreader"
	"github.com/rs/zerolog/log"

	"github.com/bcroc/teamchat/internal/call"
)

const opusFrameDuration = 20 * time.Millisecond

// Devices opens synthetic tracks: a silent Opus microphone and IVF-file
// backed camera and display captures.
type Devices struct {
	// CameraFile and DisplayFile are IVF (VP8) files looped as the
	// respective capture source. An empty DisplayFile falls back to
	// CameraFile.
	CameraFile  string
	DisplayFile string
}

func (d *Devices) OpenMicTrack(ctx context.Context, trackID, streamID string) (call.LocalTrack, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		trackID, streamID,
	)
	if err != nil {
		return nil, err
	}

	t := newSampleTrack(track)
	go t.pump(silentOpusSource{})
	return t, nil
}

func (d *Devices) OpenCameraTrack(ctx context.Context, trackID, streamID string) (call.LocalTrack, error) {
	return d.openVideoTrack(d.CameraFile, trackID, streamID)
}

func (d *Devices) OpenDisplayTrack(ctx context.Context, trackID, streamID string) (call.LocalTrack, error) {
	file := d.DisplayFile
	if file == "" {
		file = d.CameraFile
	}
	return d.openVideoTrack(file, trackID, streamID)
}

func (d *Devices) openVideoTrack(path, trackID, streamID string) (call.LocalTrack, error) {
	if path == "" {
		return nil, errors.New("no video source file configured")
	}

	src, err := newIVFSource(path)
	if err != nil {
		return nil, err
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		trackID, streamID,
	)
	if err != nil {
		src.Close()
		return nil, err
	}

	t := newSampleTrack(track)
	go t.pump(src)
	return t, nil
}

// sampleSource yields one encoded sample per call at the pace the pump
// should hold. io.EOF ends the track.
type sampleSource interface {
	Next() (media.Sample, time.Duration, error)
	Close() error
}

// sampleTrack drives a TrackLocalStaticSample from a sampleSource. While
// disabled the pump keeps its pace but skips writing, so re-enabling is
// instant and the sender slot never changes.
type sampleTrack struct {
	*webrtc.TrackLocalStaticSample

	lock    sync.Mutex
	enabled bool
	stopped bool
	onEnded func()
	quit    chan struct{}
}

func newSampleTrack(track *webrtc.TrackLocalStaticSample) *sampleTrack {
	return &sampleTrack{
		TrackLocalStaticSample: track,
		enabled:                true,
		quit:                   make(chan struct{}),
	}
}

func (t *sampleTrack) SetEnabled(enabled bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.enabled = enabled
}

func (t *sampleTrack) Enabled() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.enabled
}

func (t *sampleTrack) OnEnded(fn func()) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.onEnded = fn
}

func (t *sampleTrack) Stop() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.stopped {
		return nil
	}
	t.stopped = true
	close(t.quit)
	return nil
}

// ended fires the OnEnded hook once, for sources that ran out on their own.
func (t *sampleTrack) ended() {
	t.lock.Lock()
	if t.stopped {
		t.lock.Unlock()
		return
	}
	t.stopped = true
	close(t.quit)
	fn := t.onEnded
	t.lock.Unlock()

	if fn != nil {
		fn()
	}
}

func (t *sampleTrack) pump(src sampleSource) {
	defer src.Close()

	sample, wait, err := src.Next()
	for {
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Error().Err(err).Str("service", "media").Msg("read sample")
			}
			t.ended()
			return
		}

		select {
		case <-t.quit:
			return
		case <-time.After(wait):
		}

		if t.Enabled() {
			if err := t.WriteSample(sample); err != nil {
				log.Error().Err(err).Str("service", "media").Msg("write sample")
				t.ended()
				return
			}
		}

		sample, wait, err = src.Next()
	}
}

// silentOpusSource emits minimal Opus silence frames forever. Enough to
// keep the audio m-line alive and exercise the receive path.
type silentOpusSource struct{}

// A one-byte TOC plus empty frame decodes as silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

func (silentOpusSource) Next() (media.Sample, time.Duration, error) {
	return media.Sample{Data: opusSilence, Duration: opusFrameDuration}, opusFrameDuration, nil
}

func (silentOpusSource) Close() error { return nil }

// ivfSource loops a VP8 IVF file, rewinding to the first frame on EOF.
type ivfSource struct {
	path     string
	file     *os.File
	reader   *ivfreader.IVFReader
	interval time.Duration
}

func newIVFSource(path string) (*ivfSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	reader, header, err := ivfreader.NewWith(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	interval := time.Duration(
		(float64(header.TimebaseNumerator) / float64(header.TimebaseDenominator)) * float64(time.Second),
	)
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}

	return &ivfSource{
		path:     path,
		file:     file,
		reader:   reader,
		interval: interval,
	}, nil
}

func (s *ivfSource) Next() (media.Sample, time.Duration, error) {
	frame, _, err := s.reader.ParseNextFrame()
	if errors.Is(err, io.EOF) {
		if err := s.rewind(); err != nil {
			return media.Sample{}, 0, err
		}
		frame, _, err = s.reader.ParseNextFrame()
	}
	if err != nil {
		return media.Sample{}, 0, err
	}

	return media.Sample{Data: frame, Duration: s.interval}, s.interval, nil
}

func (s *ivfSource) rewind() error {
	file, err := os.Open(s.path)
	if err != nil {
		return err
	}

	reader, _, err := ivfreader.NewWith(file)
	if err != nil {
		file.Close()
		return err
	}

	s.file.Close()
	s.file = file
	s.reader = reader
	return nil
}

func (s *ivfSource) Close() error {
	return s.file.Close()
}

var _ call.MediaDevices = (*Devices)(nil)
