package opusparser

import (
	"testing"
	"time"

	"github.com/webmdk/webmdk/av"
)

func TestPacketDuration(t *testing.T) {
	values := []struct {
		Pkt []byte
		D   time.Duration
	}{
		// config 1 (SILK NB 20ms), code 0, one frame
		{[]byte{0x08, 0x00}, 20 * time.Millisecond},
		// config 3 (SILK NB 60ms), code 0
		{[]byte{0x18, 0x00}, 60 * time.Millisecond},
		// config 1, code 1, two frames
		{[]byte{0x09, 0x00, 0x00}, 40 * time.Millisecond},
		// config 16 (CELT NB 2.5ms), code 3, three frames
		{[]byte{0x83, 0x03}, 7500 * time.Microsecond},
		// code 0 with no payload carries no frame
		{[]byte{0x08}, 0},
	}
	for _, ex := range values {
		d, err := PacketDuration(ex.Pkt)
		if err != nil {
			t.Errorf("% x: unexpected error %v", ex.Pkt, err)
			continue
		}
		if d != ex.D {
			t.Errorf("% x: expected %s, got %s", ex.Pkt, ex.D, d)
		}
	}

	if _, err := PacketDuration(nil); err == nil {
		t.Error("empty packet should fail")
	}
	if _, err := PacketDuration([]byte{0x03}); err == nil {
		t.Error("code-3 packet without a count byte should fail")
	}
}

func TestChannels(t *testing.T) {
	if Channels([]byte{0x08}) != 1 {
		t.Error("expected mono")
	}
	if Channels([]byte{0x0C}) != 2 {
		t.Error("expected stereo")
	}
}

func TestDecoderParseFrame(t *testing.T) {
	d := NewDecoder()

	frame, err := d.ParseFrame([]byte{0x0C, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if frame == nil {
		t.Fatal("expected a PCM frame")
	}
	if frame.SampleRate != 48000 || frame.SampleFormat != av.S16 {
		t.Errorf("unexpected format: %d Hz fmt %d", frame.SampleRate, frame.SampleFormat)
	}
	if frame.ChannelLayout != av.CH_STEREO || len(frame.Data) != 2 {
		t.Errorf("expected stereo planes, got %v with %d planes", frame.ChannelLayout, len(frame.Data))
	}
	// 20 ms at 48 kHz.
	if frame.SampleCount() != 960 {
		t.Errorf("expected 960 samples, got %d", frame.SampleCount())
	}
	if frame.Duration() != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %s", frame.Duration())
	}

	// A packet with no frames yields no buffer.
	frame, err = d.ParseFrame([]byte{0x08})
	if err != nil {
		t.Fatal(err)
	}
	if frame != nil {
		t.Errorf("expected nil frame, got %d samples", frame.SampleCount())
	}
}
