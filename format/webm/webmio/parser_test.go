package webmio

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Test fixture builders. Element IDs are written verbatim (they carry
// their own width marker); sizes get a minimal-width VINT.

func appendElementID(b []byte, id uint64) []byte {
	width := (bits.Len64(id) + 7) / 8
	for i := width - 1; i >= 0; i-- {
		b = append(b, byte(id>>uint(8*i)))
	}
	return b
}

func appendSize(b []byte, size uint64) []byte {
	width := 1
	for size >= uint64(1)<<uint(7*width)-1 {
		width++
	}
	return appendVInt(b, size, width)
}

func el(id uint64, payload []byte) []byte {
	b := appendElementID(nil, id)
	b = appendSize(b, uint64(len(payload)))
	return append(b, payload...)
}

func uintEl(id uint64, v uint64) []byte {
	var payload []byte
	for i := (bits.Len64(v|1) + 7) / 8; i > 0; i-- {
		payload = append(payload, byte(v>>uint(8*(i-1))))
	}
	return el(id, payload)
}

func strEl(id uint64, s string) []byte {
	return el(id, []byte(s))
}

func cat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func TestParseMinimalHeader(t *testing.T) {
	// A 31-octet header stating DocType "webm\0\0\0\0" and version 2,
	// followed by an empty segment.
	data := []byte{
		0x1A, 0x45, 0xDF, 0xA3, 0x9F,
		0x42, 0x82, 0x88, 0x77, 0x65, 0x62, 0x6D, 0x00, 0x00, 0x00, 0x00,
		0x42, 0x87, 0x81, 0x02,
		// Void padding fills the rest of the declared 31 octets.
		0xEC, 0x8E, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	data = append(data, el(ElementSegment, nil)...)

	doc, err := ParseDocumentFromData(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Header.DocType) < 4 || doc.Header.DocType[:4] != "webm" {
		t.Errorf("unexpected DocType %q", doc.Header.DocType)
	}
	if doc.Header.DocTypeVersion != 2 {
		t.Errorf("expected DocTypeVersion 2, got %d", doc.Header.DocTypeVersion)
	}
}

func buildTestDocument() []byte {
	header := el(ElementEBML, cat(
		strEl(ElementDocType, "webm"),
		uintEl(ElementDocTypeVersion, 4),
	))
	info := el(ElementInfo, cat(
		uintEl(ElementTimestampScale, 1000000),
		strEl(ElementMuxingApp, "webmdk-test"),
		strEl(ElementWritingApp, "webmdk-test"),
	))
	tracks := el(ElementTracks, cat(
		el(ElementTrackEntry, cat(
			uintEl(ElementTrackNumber, 1),
			uintEl(ElementTrackUID, 0xDEAD),
			uintEl(ElementTrackType, 1),
			strEl(ElementCodecID, "V_VP9"),
			el(ElementVideo, cat(
				uintEl(ElementPixelWidth, 640),
				uintEl(ElementPixelHeight, 360),
			)),
		)),
		el(ElementTrackEntry, cat(
			uintEl(ElementTrackNumber, 2),
			uintEl(ElementTrackUID, 0xBEEF),
			uintEl(ElementTrackType, 2),
			strEl(ElementLanguage, "fra"),
			strEl(ElementCodecID, "A_OPUS"),
			el(ElementAudio, cat(
				uintEl(ElementChannels, 2),
				uintEl(ElementBitDepth, 16),
			)),
		)),
	))
	cluster := el(ElementCluster, cat(
		uintEl(ElementTimestamp, 1000),
		// No lacing, track 1, offset 0, two payload octets.
		el(ElementSimpleBlock, []byte{0x81, 0x00, 0x00, 0x00, 0xAA, 0xBB}),
	))
	segment := el(ElementSegment, cat(info, tracks, cluster))
	return cat(header, segment)
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocumentFromData(buildTestDocument())
	if err != nil {
		t.Fatal(err)
	}

	want := &Document{
		Header: EBMLHeader{DocType: "webm", DocTypeVersion: 4},
		SegmentInformation: &SegmentInformation{
			TimestampScale: 1000000,
			MuxingApp:      "webmdk-test",
			WritingApp:     "webmdk-test",
		},
		Tracks: map[uint64]*TrackEntry{
			1: {
				TrackNumber: 1,
				TrackUID:    0xDEAD,
				TrackType:   TrackTypeVideo,
				Language:    "eng",
				CodecID:     "V_VP9",
				Video:       &VideoTrack{PixelWidth: 640, PixelHeight: 360},
			},
			2: {
				TrackNumber: 2,
				TrackUID:    0xBEEF,
				TrackType:   TrackTypeAudio,
				Language:    "fra",
				CodecID:     "A_OPUS",
				Audio:       &AudioTrack{Channels: 2, BitDepth: 16},
			},
		},
		Clusters: []*Cluster{
			{
				Timestamp: 1000,
				Blocks: []*Block{
					{
						TrackNumber: 1,
						Frames:      [][]byte{{0xAA, 0xBB}},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackLookup(t *testing.T) {
	doc, err := ParseDocumentFromData(buildTestDocument())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.TrackForTrackNumber(1); !ok {
		t.Error("track 1 not found")
	}
	if _, ok := doc.TrackForTrackNumber(9); ok {
		t.Error("track 9 should not resolve")
	}
	audio, ok := doc.TrackForTrackType(TrackTypeAudio)
	if !ok || audio.CodecID != "A_OPUS" {
		t.Errorf("audio track lookup failed: %+v", audio)
	}
	if _, ok := doc.TrackForTrackType(TrackTypeSubtitle); ok {
		t.Error("subtitle track should not exist")
	}
}

func TestUnknownElementsSkipped(t *testing.T) {
	// 0xEC is Void; the builder does not recognize it anywhere.
	header := el(ElementEBML, cat(
		strEl(ElementDocType, "webm"),
		el(0xEC, []byte{1, 2, 3}),
		uintEl(ElementDocTypeVersion, 2),
	))
	segment := el(ElementSegment, cat(
		el(0xEC, []byte{9, 9}),
		el(ElementInfo, uintEl(ElementTimestampScale, 500)),
	))
	doc, err := ParseDocumentFromData(cat(header, segment))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Header.DocTypeVersion != 2 {
		t.Errorf("unknown element broke the header: %+v", doc.Header)
	}
	if doc.SegmentInformation == nil || doc.SegmentInformation.TimestampScale != 500 {
		t.Errorf("unknown element broke the segment: %+v", doc.SegmentInformation)
	}
}

func TestNotMatroska(t *testing.T) {
	for _, in := range [][]byte{
		nil,
		{0x00, 0x01, 0x02},
		el(0xEC, nil), // valid EBML, wrong magic
		cat(el(ElementEBML, strEl(ElementDocType, "webm")), el(0xEC, nil)), // wrong root
	} {
		if _, err := ParseDocumentFromData(in); !errors.Is(err, ErrNotMatroska) {
			t.Errorf("% x: expected ErrNotMatroska, got %v", in, err)
		}
	}
}

func TestSizeOverrun(t *testing.T) {
	// Header claims 3 octets of data but its only child occupies 4.
	data := []byte{
		0x1A, 0x45, 0xDF, 0xA3, 0x83,
		0x42, 0x82, 0x81, 0x78,
	}
	_, err := ParseDocumentFromData(data)
	if !errors.Is(err, ErrSizeOverrun) {
		t.Fatalf("expected ErrSizeOverrun, got %v", err)
	}
}

func TestMalformedElement(t *testing.T) {
	// DocType declares 8 octets of string data but only 1 follows.
	data := []byte{
		0x1A, 0x45, 0xDF, 0xA3, 0x84,
		0x42, 0x82, 0x88, 0x77,
	}
	_, err := ParseDocumentFromData(data)
	if !errors.Is(err, ErrMalformedElement) {
		t.Fatalf("expected ErrMalformedElement, got %v", err)
	}
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected the underlying ErrShortRead to be preserved, got %v", err)
	}
}
