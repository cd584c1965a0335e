package webm

import (
	"github.com/webmdk/webmdk/av"
	"github.com/webmdk/webmdk/format/webm/webmio"
)

// Matroska codec selectors understood by this demuxer.
const (
	CodecVP9  = "V_VP9"
	CodecOpus = "A_OPUS"
)

type Stream struct {
	av.CodecData

	demuxer *Demuxer
	track   *webmio.TrackEntry
	idx     int8
}

// VP9CodecData reports the coded dimensions of a VP9 track.
type VP9CodecData struct {
	track *webmio.TrackEntry
}

func NewVP9CodecData(track *webmio.TrackEntry) VP9CodecData {
	return VP9CodecData{track: track}
}

func (d VP9CodecData) Type() av.CodecType {
	return av.VP9
}

func (d VP9CodecData) Width() int {
	if d.track.Video == nil {
		return 0
	}
	return int(d.track.Video.PixelWidth)
}

func (d VP9CodecData) Height() int {
	if d.track.Video == nil {
		return 0
	}
	return int(d.track.Video.PixelHeight)
}
