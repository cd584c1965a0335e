// Package avutil keeps the registry of container format handlers.
package avutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"

	"github.com/webmdk/webmdk/av"
)

var ErrFormatNotFound = errors.New("avutil: format not found")

// RegisterHandler is filled in by a format package's Handler func.
type RegisterHandler struct {
	Ext           string
	Probe         func([]byte) bool
	ReaderDemuxer func(r io.Reader) av.Demuxer
	CodecTypes    []av.CodecType
}

type Handlers struct {
	handlers []RegisterHandler
}

func (h *Handlers) Add(fn func(*RegisterHandler)) {
	handler := &RegisterHandler{}
	fn(handler)
	h.handlers = append(h.handlers, *handler)
}

// Open reads the file and finds a demuxer for it, matching by extension
// first and content probe second.
func (h *Handlers) Open(uri string) (av.Demuxer, error) {
	data, err := os.ReadFile(uri)
	if err != nil {
		return nil, err
	}

	ext := path.Ext(uri)
	if ext != "" {
		for _, handler := range h.handlers {
			if handler.Ext == ext && handler.ReaderDemuxer != nil {
				return handler.ReaderDemuxer(bytes.NewReader(data)), nil
			}
		}
	}

	for _, handler := range h.handlers {
		if handler.Probe != nil && handler.Probe(data) && handler.ReaderDemuxer != nil {
			return handler.ReaderDemuxer(bytes.NewReader(data)), nil
		}
	}

	return nil, ErrFormatNotFound
}

var DefaultHandlers = &Handlers{}

func Open(uri string) (av.Demuxer, error) {
	return DefaultHandlers.Open(uri)
}
