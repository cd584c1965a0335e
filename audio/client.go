// Package audio provides the playback sink client the demuxer feeds
// decoded PCM into. It models the handshake-then-enqueue contract of an
// audio server connection; actual device output is someone else's job.
package audio

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/webmdk/webmdk"
	"github.com/webmdk/webmdk/av"
)

var ErrNotConnected = errors.New("audio: client has not completed the handshake")

// ClientConnection buffers PCM frames on behalf of an audio server.
type ClientConnection struct {
	id uuid.UUID

	mu         sync.Mutex
	handshaken bool
	queue      []av.AudioFrame
}

func NewClientConnection() *ClientConnection {
	return &ClientConnection{id: uuid.New()}
}

// ID identifies this client to the server.
func (c *ClientConnection) ID() string {
	return c.id.String()
}

// Handshake must succeed before frames are accepted.
func (c *ClientConnection) Handshake() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handshaken = true
	webmdk.Logger().Debugf("audio client %s connected", c.id)
	return nil
}

// Enqueue appends one PCM frame to the playback queue.
func (c *ClientConnection) Enqueue(frame av.AudioFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.handshaken {
		return ErrNotConnected
	}
	c.queue = append(c.queue, frame)
	return nil
}

// QueuedFrames reports how many frames are waiting.
func (c *ClientConnection) QueuedFrames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Dequeue pops the oldest frame, if any.
func (c *ClientConnection) Dequeue() (av.AudioFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return av.AudioFrame{}, false
	}
	frame := c.queue[0]
	c.queue = c.queue[1:]
	return frame, true
}
