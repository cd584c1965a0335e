package webmio

import (
	"fmt"
	"os"

	"github.com/webmdk/webmdk"
)

// Reader parses a WebM/Matroska byte range into a Document.
type Reader struct {
	s *Streamer
}

// ParseDocumentFromData parses a complete in-memory document. On any
// error no document is returned; there are no partial results.
func ParseDocumentFromData(data []byte) (*Document, error) {
	r := &Reader{s: NewStreamer(data)}
	return r.parse()
}

// ParseDocumentFromFile reads the whole file and parses it.
func ParseDocumentFromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocumentFromData(data)
}

func (r *Reader) parse() (*Document, error) {
	firstElementID, err := r.s.ReadVInt(true)
	if err != nil || firstElementID != ElementEBML {
		return nil, ErrNotMatroska
	}
	webmdk.Logger().Debugf("first element ID is %#010x", firstElementID)

	doc := &Document{Tracks: make(map[uint64]*TrackEntry)}
	if err := r.parseEBMLHeader(&doc.Header); err != nil {
		return nil, err
	}

	rootElementID, err := r.s.ReadVInt(true)
	if err != nil || rootElementID != ElementSegment {
		return nil, ErrNotMatroska
	}

	if err := r.parseSegmentElements(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseMasterElement reads the master's data size, then feeds child
// element IDs to consumer until the size is used up. The consumer must
// consume each child's size and payload before returning.
func (r *Reader) parseMasterElement(name string, consumer func(elementID uint64) error) error {
	size, err := r.s.ReadVInt(false)
	if err != nil {
		return err
	}
	webmdk.Logger().Debugf("%s has %d octets of data", name, size)

	r.s.PushOctetsRead()
	defer r.s.PopOctetsRead()

	for uint64(r.s.OctetsRead()) < size {
		elementID, err := r.s.ReadVInt(true)
		if err != nil {
			return err
		}
		if err := consumer(elementID); err != nil {
			webmdk.Logger().Debugf("%s consumer failed on %s (%#010x)", name, ElementName(elementID), elementID)
			return fmt.Errorf("%w: %s child %s (%#010x): %w", ErrMalformedElement, name, ElementName(elementID), elementID, err)
		}
	}
	if uint64(r.s.OctetsRead()) > size {
		return fmt.Errorf("%w: %s declared %d octets", ErrSizeOverrun, name, size)
	}
	return nil
}

// readUnknownElement skips an unrecognized child by its declared size.
func (r *Reader) readUnknownElement() error {
	size, err := r.s.ReadVInt(false)
	if err != nil {
		return err
	}
	return r.s.DropOctets(size)
}

// readUintElement reads a length-prefixed big-endian unsigned integer.
func (r *Reader) readUintElement() (uint64, error) {
	length, err := r.s.ReadVInt(false)
	if err != nil {
		return 0, err
	}
	if length > 8 || uint64(r.s.Remaining()) < length {
		return 0, ErrShortRead
	}
	var result uint64
	for i := uint64(0); i < length; i++ {
		b, err := r.s.ReadOctet()
		if err != nil {
			return 0, err
		}
		result = result<<8 | uint64(b)
	}
	return result, nil
}

// readStringElement reads a length-prefixed string. Bytes are copied
// verbatim; invalid UTF-8 never fails the parse.
func (r *Reader) readStringElement() (string, error) {
	length, err := r.s.ReadVInt(false)
	if err != nil {
		return "", err
	}
	if uint64(r.s.Remaining()) < length {
		return "", ErrShortRead
	}
	value := string(r.s.Data()[:length])
	if err := r.s.DropOctets(length); err != nil {
		return "", err
	}
	return value, nil
}

func (r *Reader) parseEBMLHeader(header *EBMLHeader) error {
	return r.parseMasterElement("Header", func(elementID uint64) error {
		switch elementID {
		case ElementDocType:
			docType, err := r.readStringElement()
			if err != nil {
				return err
			}
			header.DocType = docType
			webmdk.Logger().Debugf("read DocType attribute: %q", docType)
		case ElementDocTypeVersion:
			version, err := r.readUintElement()
			if err != nil {
				return err
			}
			header.DocTypeVersion = version
			webmdk.Logger().Debugf("read DocTypeVersion attribute: %d", version)
		default:
			return r.readUnknownElement()
		}
		return nil
	})
}

func (r *Reader) parseSegmentElements(doc *Document) error {
	return r.parseMasterElement("Segment", func(elementID uint64) error {
		switch elementID {
		case ElementInfo:
			info, err := r.parseInformation()
			if err != nil {
				return err
			}
			doc.SegmentInformation = info
		case ElementTracks:
			return r.parseTracks(doc)
		case ElementCluster:
			cluster, err := r.parseCluster()
			if err != nil {
				return err
			}
			doc.Clusters = append(doc.Clusters, cluster)
		default:
			return r.readUnknownElement()
		}
		return nil
	})
}

func (r *Reader) parseInformation() (*SegmentInformation, error) {
	info := &SegmentInformation{}
	err := r.parseMasterElement("Segment Information", func(elementID uint64) error {
		switch elementID {
		case ElementTimestampScale:
			scale, err := r.readUintElement()
			if err != nil {
				return err
			}
			info.TimestampScale = scale
			webmdk.Logger().Debugf("read TimestampScale attribute: %d", scale)
		case ElementMuxingApp:
			app, err := r.readStringElement()
			if err != nil {
				return err
			}
			info.MuxingApp = app
		case ElementWritingApp:
			app, err := r.readStringElement()
			if err != nil {
				return err
			}
			info.WritingApp = app
		default:
			return r.readUnknownElement()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (r *Reader) parseTracks(doc *Document) error {
	return r.parseMasterElement("Tracks", func(elementID uint64) error {
		if elementID != ElementTrackEntry {
			return r.readUnknownElement()
		}
		track, err := r.parseTrackEntry()
		if err != nil {
			return err
		}
		doc.Tracks[track.TrackNumber] = track
		return nil
	})
}

func (r *Reader) parseTrackEntry() (*TrackEntry, error) {
	// Language defaults to "eng" when the element is absent.
	track := &TrackEntry{Language: "eng"}
	err := r.parseMasterElement("Track", func(elementID uint64) error {
		switch elementID {
		case ElementTrackNumber:
			n, err := r.readUintElement()
			if err != nil {
				return err
			}
			track.TrackNumber = n
		case ElementTrackUID:
			uid, err := r.readUintElement()
			if err != nil {
				return err
			}
			track.TrackUID = uid
		case ElementTrackType:
			t, err := r.readUintElement()
			if err != nil {
				return err
			}
			track.TrackType = TrackType(t)
		case ElementLanguage:
			language, err := r.readStringElement()
			if err != nil {
				return err
			}
			track.Language = language
		case ElementCodecID:
			codecID, err := r.readStringElement()
			if err != nil {
				return err
			}
			track.CodecID = codecID
			webmdk.Logger().Debugf("read track's CodecID attribute: %q", codecID)
		case ElementVideo:
			video, err := r.parseVideoTrackInformation()
			if err != nil {
				return err
			}
			track.Video = video
		case ElementAudio:
			audio, err := r.parseAudioTrackInformation()
			if err != nil {
				return err
			}
			track.Audio = audio
		default:
			return r.readUnknownElement()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (r *Reader) parseVideoTrackInformation() (*VideoTrack, error) {
	video := &VideoTrack{}
	err := r.parseMasterElement("VideoTrack", func(elementID uint64) error {
		switch elementID {
		case ElementPixelWidth:
			w, err := r.readUintElement()
			if err != nil {
				return err
			}
			video.PixelWidth = w
		case ElementPixelHeight:
			h, err := r.readUintElement()
			if err != nil {
				return err
			}
			video.PixelHeight = h
		default:
			return r.readUnknownElement()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (r *Reader) parseAudioTrackInformation() (*AudioTrack, error) {
	audio := &AudioTrack{}
	err := r.parseMasterElement("AudioTrack", func(elementID uint64) error {
		switch elementID {
		case ElementChannels:
			channels, err := r.readUintElement()
			if err != nil {
				return err
			}
			audio.Channels = channels
		case ElementBitDepth:
			depth, err := r.readUintElement()
			if err != nil {
				return err
			}
			audio.BitDepth = depth
		default:
			return r.readUnknownElement()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (r *Reader) parseCluster() (*Cluster, error) {
	cluster := &Cluster{}
	err := r.parseMasterElement("Cluster", func(elementID uint64) error {
		switch elementID {
		case ElementSimpleBlock:
			block, err := r.parseSimpleBlock()
			if err != nil {
				return err
			}
			cluster.Blocks = append(cluster.Blocks, block)
		case ElementTimestamp:
			timestamp, err := r.readUintElement()
			if err != nil {
				return err
			}
			cluster.Timestamp = timestamp
		default:
			return r.readUnknownElement()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cluster, nil
}
