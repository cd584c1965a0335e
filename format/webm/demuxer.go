package webm

import (
	"errors"
	"io"
	"sort"
	"time"

	"github.com/webmdk/webmdk/av"
	"github.com/webmdk/webmdk/codec/opusparser"
	"github.com/webmdk/webmdk/format/webm/webmio"
)

// DefaultTimestampScale is applied when the Info element carries none:
// one millisecond per timestamp unit.
const DefaultTimestampScale = 1000000

// Demuxer parses a whole WebM document up front and then hands out its
// frames as timed packets, clusters and blocks in file order. Blocks
// whose track number does not resolve, or whose codec is not
// understood, are skipped.
type Demuxer struct {
	r   io.Reader
	doc *webmio.Document

	streams          []*Stream
	streamIdxByTrack map[uint64]int8
	timestampScale   uint64

	clusterIdx int
	blockIdx   int
	frameIdx   int

	stage int
}

func NewDemuxer(r io.Reader) *Demuxer {
	return &Demuxer{
		r:                r,
		streamIdxByTrack: make(map[uint64]int8),
	}
}

func (d *Demuxer) probe() error {
	if d.stage != 0 {
		return nil
	}

	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	doc, err := webmio.ParseDocumentFromData(data)
	if err != nil {
		return err
	}
	d.doc = doc

	d.timestampScale = DefaultTimestampScale
	if doc.SegmentInformation != nil && doc.SegmentInformation.TimestampScale != 0 {
		d.timestampScale = doc.SegmentInformation.TimestampScale
	}

	trackNumbers := make([]uint64, 0, len(doc.Tracks))
	for n := range doc.Tracks {
		trackNumbers = append(trackNumbers, n)
	}
	sort.Slice(trackNumbers, func(i, j int) bool { return trackNumbers[i] < trackNumbers[j] })

	for _, n := range trackNumbers {
		track := doc.Tracks[n]
		var codec av.CodecData
		switch track.CodecID {
		case CodecVP9:
			codec = NewVP9CodecData(track)
		case CodecOpus:
			channels := 2
			if track.Audio != nil && track.Audio.Channels != 0 {
				channels = int(track.Audio.Channels)
			}
			codec = opusparser.NewCodecData(channels)
		default:
			continue
		}
		stream := &Stream{
			CodecData: codec,
			demuxer:   d,
			track:     track,
			idx:       int8(len(d.streams)),
		}
		d.streamIdxByTrack[n] = stream.idx
		d.streams = append(d.streams, stream)
	}

	d.stage++
	return nil
}

func (d *Demuxer) Streams() (streams []av.CodecData, err error) {
	if err = d.probe(); err != nil {
		return
	}
	for _, stream := range d.streams {
		streams = append(streams, stream.CodecData)
	}
	if len(streams) == 0 {
		return nil, errors.New("streams not found")
	}
	return
}

// Document exposes the parsed tree for callers that want to walk it
// directly.
func (d *Demuxer) Document() (*webmio.Document, error) {
	if err := d.probe(); err != nil {
		return nil, err
	}
	return d.doc, nil
}

func (d *Demuxer) ReadPacket() (pkt av.Packet, err error) {
	if err = d.probe(); err != nil {
		return
	}

	for d.clusterIdx < len(d.doc.Clusters) {
		cluster := d.doc.Clusters[d.clusterIdx]
		for d.blockIdx < len(cluster.Blocks) {
			block := cluster.Blocks[d.blockIdx]
			idx, ok := d.streamIdxByTrack[block.TrackNumber]
			if !ok || d.frameIdx >= block.FrameCount() {
				d.blockIdx++
				d.frameIdx = 0
				continue
			}

			frame := block.Frame(d.frameIdx)
			d.frameIdx++

			pkt = av.Packet{
				IsKeyFrame: block.OnlyKeyframes,
				Idx:        idx,
				Time:       d.blockTime(cluster, block),
				Data:       frame,
			}
			if audio, ok := d.streams[idx].CodecData.(av.AudioCodecData); ok {
				if duration, derr := audio.PacketDuration(frame); derr == nil {
					pkt.Duration = duration
				}
			}
			return pkt, nil
		}
		d.clusterIdx++
		d.blockIdx = 0
		d.frameIdx = 0
	}
	return av.Packet{}, io.EOF
}

func (d *Demuxer) blockTime(cluster *webmio.Cluster, block *webmio.Block) time.Duration {
	units := int64(cluster.Timestamp) + int64(block.Timestamp)
	return time.Duration(units * int64(d.timestampScale))
}
