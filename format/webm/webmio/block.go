package webmio

import (
	"fmt"

	"github.com/webmdk/webmdk"
)

// parseSimpleBlock decodes one SimpleBlock: track number, relative
// timestamp, flags, then the frame payloads according to the lacing
// discipline in the flag byte.
func (r *Reader) parseSimpleBlock() (*Block, error) {
	block := &Block{}

	contentSize, err := r.s.ReadVInt(false)
	if err != nil {
		return nil, err
	}

	octetsReadBeforeTrackNumber := r.s.OctetsRead()
	trackNumber, err := r.s.ReadVInt(false)
	if err != nil {
		return nil, err
	}
	block.TrackNumber = trackNumber

	if r.s.Remaining() < 3 {
		return nil, ErrShortRead
	}
	timestamp, err := r.s.ReadInt16()
	if err != nil {
		return nil, err
	}
	block.Timestamp = timestamp

	flags, err := r.s.ReadOctet()
	if err != nil {
		return nil, err
	}
	block.OnlyKeyframes = flags&0x80 != 0
	block.Invisible = flags&0x08 != 0
	block.Lacing = Lacing((flags & 0x06) >> 1)
	block.Discardable = flags&0x01 != 0

	headerOctets := uint64(r.s.OctetsRead() - octetsReadBeforeTrackNumber)
	if contentSize < headerOctets {
		return nil, ErrShortRead
	}
	totalFrameContentSize := contentSize - headerOctets

	switch block.Lacing {
	case LacingEBML:
		if err := r.parseEBMLLacedFrames(block, totalFrameContentSize); err != nil {
			return nil, err
		}
	case LacingFixedSize:
		countMinusOne, err := r.s.ReadOctet()
		if err != nil {
			return nil, err
		}
		frameCount := uint64(countMinusOne) + 1
		// The count byte is part of the payload remainder and does
		// not take part in the division.
		individualFrameSize := (totalFrameContentSize - 1) / frameCount
		for i := uint64(0); i < frameCount; i++ {
			if err := r.appendFrame(block, individualFrameSize); err != nil {
				return nil, err
			}
		}
	case LacingXiph:
		return nil, fmt.Errorf("%w: Xiph", ErrUnsupportedLacing)
	default:
		if err := r.appendFrame(block, totalFrameContentSize); err != nil {
			return nil, err
		}
	}

	webmdk.Logger().Debugf("read SimpleBlock for track %d: %d frame(s), %s lacing", block.TrackNumber, block.FrameCount(), block.Lacing)
	return block, nil
}

// parseEBMLLacedFrames reads the EBML lacing header: a frame count,
// the first frame's size as a plain VINT, then signed VINT deltas for
// all but the last frame, whose size is whatever remains.
func (r *Reader) parseEBMLLacedFrames(block *Block, totalFrameContentSize uint64) error {
	octetsReadBeforeFrameSizes := r.s.OctetsRead()
	countMinusOne, err := r.s.ReadOctet()
	if err != nil {
		return err
	}
	frameCount := int(countMinusOne) + 1
	frameSizes := make([]uint64, 0, frameCount)

	firstFrameSize, err := r.s.ReadVInt(false)
	if err != nil {
		return err
	}
	frameSizes = append(frameSizes, firstFrameSize)
	frameSizeSum := firstFrameSize
	previousFrameSize := firstFrameSize

	for i := 0; i < frameCount-2; i++ {
		difference, err := r.s.ReadSignedVInt()
		if err != nil {
			return err
		}
		var frameSize uint64
		if difference < 0 {
			if uint64(-difference) > previousFrameSize {
				return ErrShortRead
			}
			frameSize = previousFrameSize - uint64(-difference)
		} else {
			frameSize = previousFrameSize + uint64(difference)
		}
		frameSizes = append(frameSizes, frameSize)
		frameSizeSum += frameSize
		previousFrameSize = frameSize
	}

	lacingHeaderOctets := uint64(r.s.OctetsRead() - octetsReadBeforeFrameSizes)
	if frameSizeSum+lacingHeaderOctets > totalFrameContentSize {
		return ErrShortRead
	}
	frameSizes = append(frameSizes, totalFrameContentSize-frameSizeSum-lacingHeaderOctets)

	for _, frameSize := range frameSizes {
		if err := r.appendFrame(block, frameSize); err != nil {
			return err
		}
	}
	return nil
}

// appendFrame copies the next size octets into an owned buffer.
func (r *Reader) appendFrame(block *Block, size uint64) error {
	if uint64(r.s.Remaining()) < size {
		return ErrShortRead
	}
	frame := make([]byte, size)
	copy(frame, r.s.Data())
	if err := r.s.DropOctets(size); err != nil {
		return err
	}
	block.Frames = append(block.Frames, frame)
	return nil
}
