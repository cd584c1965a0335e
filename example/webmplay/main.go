// Command webmplay demuxes a WebM file, pushes its Opus audio through
// the decoder into an audio sink client, and runs the first frame of
// every VP9 video block through the uncompressed-header parser.
package main

import (
	"log"
	"os"

	"github.com/webmdk/webmdk/audio"
	"github.com/webmdk/webmdk/codec/opusparser"
	"github.com/webmdk/webmdk/codec/vp9parser"
	"github.com/webmdk/webmdk/format/webm"
	"github.com/webmdk/webmdk/format/webm/webmio"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalln("usage: webmplay <file.webm>")
	}

	doc, err := webmio.ParseDocumentFromFile(os.Args[1])
	if err != nil {
		log.Fatalln("parse failed:", err)
	}

	log.Printf("doc type %q version %d", doc.Header.DocType, doc.Header.DocTypeVersion)
	if info := doc.SegmentInformation; info != nil {
		log.Printf("muxed by %q, written by %q", info.MuxingApp, info.WritingApp)
	}
	if videoTrack, ok := doc.TrackForTrackType(webmio.TrackTypeVideo); ok && videoTrack.Video != nil {
		log.Printf("video track %d: %dx%d", videoTrack.TrackNumber, videoTrack.Video.PixelWidth, videoTrack.Video.PixelHeight)
	}

	opusDecoder := opusparser.NewDecoder()
	audioClient := audio.NewClientConnection()
	if err := audioClient.Handshake(); err != nil {
		log.Fatalln("audio handshake failed:", err)
	}
	for _, cluster := range doc.Clusters {
		for _, block := range cluster.Blocks {
			track, ok := doc.TrackForTrackNumber(block.TrackNumber)
			if !ok {
				continue
			}
			if track.TrackType != webmio.TrackTypeAudio || track.CodecID != webm.CodecOpus {
				continue
			}
			for i := 0; i < block.FrameCount(); i++ {
				buffer, err := opusDecoder.ParseFrame(block.Frame(i))
				if err != nil || buffer == nil {
					continue
				}
				if err := audioClient.Enqueue(*buffer); err != nil {
					log.Fatalln("audio enqueue failed:", err)
				}
			}
		}
	}
	log.Printf("queued %d audio frames", audioClient.QueuedFrames())

	vp9 := vp9parser.NewParser()
	for _, cluster := range doc.Clusters {
		for _, block := range cluster.Blocks {
			track, ok := doc.TrackForTrackNumber(block.TrackNumber)
			if !ok {
				continue
			}
			if track.TrackType != webmio.TrackTypeVideo || track.CodecID != webm.CodecVP9 {
				continue
			}
			if block.FrameCount() == 0 {
				continue
			}
			if err := vp9.ParseFrame(block.Frame(0)); err != nil {
				log.Println("vp9 header parse failed:", err)
				continue
			}
			log.Printf("vp9 %s frame %dx%d render %dx%d bit depth %d filter %s",
				vp9.FrameType, vp9.FrameWidth, vp9.FrameHeight,
				vp9.RenderWidth, vp9.RenderHeight, vp9.BitDepth, vp9.InterpolationFilter)
		}
	}
}
