package webmio

// Recognized element IDs, marker bit included. Everything else is
// skipped by its declared size.
const (
	ElementEBML    uint64 = 0x1A45DFA3
	ElementSegment uint64 = 0x18538067

	ElementDocType        uint64 = 0x4282
	ElementDocTypeVersion uint64 = 0x4287

	ElementInfo    uint64 = 0x1549A966
	ElementTracks  uint64 = 0x1654AE6B
	ElementCluster uint64 = 0x1F43B675

	ElementTimestampScale uint64 = 0x2AD7B1
	ElementMuxingApp      uint64 = 0x4D80
	ElementWritingApp     uint64 = 0x5741

	ElementTrackEntry  uint64 = 0xAE
	ElementTrackNumber uint64 = 0xD7
	ElementTrackUID    uint64 = 0x73C5
	ElementTrackType   uint64 = 0x83
	ElementLanguage    uint64 = 0x22B59C
	ElementCodecID     uint64 = 0x86
	ElementVideo       uint64 = 0xE0
	ElementAudio       uint64 = 0xE1

	ElementPixelWidth  uint64 = 0xB0
	ElementPixelHeight uint64 = 0xBA

	ElementChannels uint64 = 0x9F
	ElementBitDepth uint64 = 0x6264

	ElementSimpleBlock uint64 = 0xA3
	ElementTimestamp   uint64 = 0xE7
)

var elementNames = map[uint64]string{
	ElementEBML:           "EBML",
	ElementSegment:        "Segment",
	ElementDocType:        "DocType",
	ElementDocTypeVersion: "DocTypeVersion",
	ElementInfo:           "Info",
	ElementTracks:         "Tracks",
	ElementCluster:        "Cluster",
	ElementTimestampScale: "TimestampScale",
	ElementMuxingApp:      "MuxingApp",
	ElementWritingApp:     "WritingApp",
	ElementTrackEntry:     "TrackEntry",
	ElementTrackNumber:    "TrackNumber",
	ElementTrackUID:       "TrackUID",
	ElementTrackType:      "TrackType",
	ElementLanguage:       "Language",
	ElementCodecID:        "CodecID",
	ElementVideo:          "Video",
	ElementAudio:          "Audio",
	ElementPixelWidth:     "PixelWidth",
	ElementPixelHeight:    "PixelHeight",
	ElementChannels:       "Channels",
	ElementBitDepth:       "BitDepth",
	ElementSimpleBlock:    "SimpleBlock",
	ElementTimestamp:      "Timestamp",
}

// ElementName returns a readable name for log lines.
func ElementName(id uint64) string {
	if name, ok := elementNames[id]; ok {
		return name
	}
	return "Unknown"
}
