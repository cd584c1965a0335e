// Command webmrtc streams a WebM file's VP9 and Opus tracks to a
// browser peer. It reads a base64 SDP offer on stdin and prints the
// base64 answer, then writes each packet as soon as it is demuxed; the
// packet timestamps set the sample durations, not the sending pace.
package main

import (
	"bufio"
	"io"
	"log"
	"os"
	"strings"

	"github.com/webmdk/webmdk/av/avutil"
	"github.com/webmdk/webmdk/format"
	"github.com/webmdk/webmdk/format/webrtc"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalln("usage: webmrtc <file.webm> < offer.b64")
	}

	format.RegisterAll()
	demuxer, err := avutil.Open(os.Args[1])
	if err != nil {
		log.Fatalln("open failed:", err)
	}
	streams, err := demuxer.Streams()
	if err != nil {
		log.Fatalln("no usable streams:", err)
	}

	offer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		log.Fatalln("read offer:", err)
	}

	muxer := webrtc.NewMuxer()
	answer, err := muxer.WriteHeader(streams, strings.TrimSpace(offer))
	if err != nil {
		log.Fatalln("negotiation failed:", err)
	}
	os.Stdout.WriteString(answer + "\n")

	for {
		pkt, err := demuxer.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalln("read packet:", err)
		}
		if err := muxer.WritePacket(pkt); err != nil {
			log.Println("write packet:", err)
		}
	}
	muxer.Close()
}
