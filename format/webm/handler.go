package webm

import (
	"io"

	"github.com/webmdk/webmdk/av"
	"github.com/webmdk/webmdk/av/avutil"
)

var CodecTypes = []av.CodecType{av.VP9, av.OPUS}

func Handler(h *avutil.RegisterHandler) {
	h.Ext = ".webm"

	h.Probe = func(b []byte) bool {
		return len(b) >= 4 && b[0] == 0x1A && b[1] == 0x45 && b[2] == 0xDF && b[3] == 0xA3
	}

	h.ReaderDemuxer = func(r io.Reader) av.Demuxer {
		return NewDemuxer(r)
	}

	h.CodecTypes = CodecTypes
}
