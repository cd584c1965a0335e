package vp9parser

import (
	"github.com/webmdk/webmdk"
)

type FrameType uint8

const (
	KeyFrame FrameType = iota
	NonKeyFrame
)

func (t FrameType) String() string {
	if t == KeyFrame {
		return "key"
	}
	return "non-key"
}

type ColorSpace uint8

const (
	CSUnknown ColorSpace = iota
	CSBT601
	CSBT709
	CSSMPTE170
	CSSMPTE240
	CSBT2020
	CSReserved
	CSRGB
)

type ColorRange uint8

const (
	StudioSwing ColorRange = iota
	FullSwing
)

type InterpolationFilter uint8

const (
	EightTap InterpolationFilter = iota
	EightTapSmooth
	EightTapSharp
	Bilinear
	Switchable
)

func (f InterpolationFilter) String() string {
	switch f {
	case EightTap:
		return "eighttap"
	case EightTapSmooth:
		return "eighttap-smooth"
	case EightTapSharp:
		return "eighttap-sharp"
	case Bilinear:
		return "bilinear"
	case Switchable:
		return "switchable"
	}
	return "unknown"
}

var literalToType = [4]InterpolationFilter{EightTapSmooth, EightTap, EightTapSharp, Bilinear}

// Reference frame slots.
const (
	IntraFrame = iota
	LastFrame
	GoldenFrame
	AltRefFrame
	MaxRefFrames
)

const (
	maxSegments = 8
	segLvlMax   = 4

	// Reference picture buffer slots addressed by refresh_frame_flags.
	numRefFrames = 8

	maxTileWidthB64 = 64
	minTileWidthB64 = 4
)

var segmentationFeatureBits = [segLvlMax]uint{8, 6, 2, 0}
var segmentationFeatureSigned = [segLvlMax]bool{true, true, false, false}

// Parser consumes VP9 uncompressed frame headers. State carries across
// frames within one coded stream; a failed parse leaves it unspecified
// and callers must not consume it.
type Parser struct {
	b *BitStream

	Profile             uint8
	ShowExistingFrame   bool
	FrameToShowMapIndex uint8
	HeaderSizeInBytes   uint16
	RefreshFrameFlags   uint8

	FrameType                 FrameType
	LastFrameType             FrameType
	ShowFrame                 bool
	ErrorResilientMode        bool
	FrameIsIntra              bool
	ResetFrameContext         uint8
	AllowHighPrecisionMV      bool
	RefFrameIdx               [3]uint8
	RefFrameSignBias          [MaxRefFrames]bool
	RefreshFrameContext       bool
	FrameParallelDecodingMode bool
	FrameContextIdx           uint8

	BitDepth     uint8
	ColorSpace   ColorSpace
	ColorRange   ColorRange
	SubsamplingX bool
	SubsamplingY bool

	FrameWidth   uint32
	FrameHeight  uint32
	RenderWidth  uint32
	RenderHeight uint32
	MiCols       uint32
	MiRows       uint32
	Sb64Cols     uint32
	Sb64Rows     uint32

	InterpolationFilter InterpolationFilter

	LoopFilterLevel        uint8
	LoopFilterSharpness    uint8
	LoopFilterDeltaEnabled bool
	LoopFilterRefDeltas    [MaxRefFrames]int8
	LoopFilterModeDeltas   [2]int8

	BaseQIdx   uint8
	DeltaQYDc  int8
	DeltaQUVDc int8
	DeltaQUVAc int8
	Lossless   bool

	SegmentationEnabled          bool
	SegmentationTreeProbs        [7]uint8
	SegmentationPredProb         [3]uint8
	FeatureEnabled               [maxSegments][segLvlMax]bool
	FeatureData                  [maxSegments][segLvlMax]int16
	SegmentationAbsOrDeltaUpdate bool

	TileColsLog2 uint16
	TileRowsLog2 uint16

	// Dimensions of the frames currently held in the reference
	// picture buffer, refreshed by RefreshFrameFlags.
	refFrameWidth  [numRefFrames]uint32
	refFrameHeight [numRefFrames]uint32

	// Reused across frames; resized when the mi grid grows.
	prevSegmentIDs []uint8

	probs probabilityTables
}

func NewParser() *Parser {
	return &Parser{}
}

// ParseFrame consumes the uncompressed header of one coded frame, then
// walks the compressed-header bytes through the boolean decoder. Frame
// reconstruction is not attempted.
func (p *Parser) ParseFrame(frame []byte) error {
	p.b = NewBitStream(frame)

	if err := p.uncompressedHeader(); err != nil {
		return err
	}
	if err := p.trailingBits(); err != nil {
		return err
	}
	if p.ShowExistingFrame {
		// The frame repeats a reference; nothing to decode.
		return nil
	}
	if p.HeaderSizeInBytes > 0 {
		p.probs.load(p.FrameContextIdx)
		if err := p.b.InitBool(uint64(p.HeaderSizeInBytes)); err != nil {
			return err
		}
		// TODO: parse the compressed header here once mode/coefficient
		// probability updates are implemented.
		if err := p.b.ExitBool(); err != nil {
			return err
		}
	}

	p.refreshReferenceSizes()
	return nil
}

func (p *Parser) uncompressedHeader() error {
	frameMarker, err := p.b.ReadF(2)
	if err != nil {
		return err
	}
	if frameMarker != 2 {
		return ErrBadHeader
	}

	profileLowBit, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	profileHighBit, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	p.Profile = 0
	if profileLowBit {
		p.Profile |= 1
	}
	if profileHighBit {
		p.Profile |= 2
	}
	if p.Profile == 3 {
		if err := p.reservedZero(); err != nil {
			return err
		}
	}

	showExistingFrame, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	p.ShowExistingFrame = showExistingFrame
	if showExistingFrame {
		index, err := p.b.ReadF(3)
		if err != nil {
			return err
		}
		p.FrameToShowMapIndex = uint8(index)
		p.HeaderSizeInBytes = 0
		p.RefreshFrameFlags = 0
		p.LoopFilterLevel = 0
		return nil
	}

	p.LastFrameType = p.FrameType
	frameType, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	if frameType {
		p.FrameType = NonKeyFrame
	} else {
		p.FrameType = KeyFrame
	}
	if p.ShowFrame, err = p.b.ReadBit(); err != nil {
		return err
	}
	if p.ErrorResilientMode, err = p.b.ReadBit(); err != nil {
		return err
	}

	if p.FrameType == KeyFrame {
		if err := p.frameSyncCode(); err != nil {
			return err
		}
		if err := p.colorConfig(); err != nil {
			return err
		}
		if err := p.frameSize(); err != nil {
			return err
		}
		if err := p.renderSize(); err != nil {
			return err
		}
		p.RefreshFrameFlags = 0xFF
		p.FrameIsIntra = true
	} else {
		if p.ShowFrame {
			p.FrameIsIntra = false
		} else {
			intraOnly, err := p.b.ReadBit()
			if err != nil {
				return err
			}
			p.FrameIsIntra = intraOnly
		}

		if p.ErrorResilientMode {
			p.ResetFrameContext = 0
		} else {
			reset, err := p.b.ReadF(2)
			if err != nil {
				return err
			}
			p.ResetFrameContext = uint8(reset)
		}

		if p.FrameIsIntra {
			if err := p.frameSyncCode(); err != nil {
				return err
			}
			if p.Profile > 0 {
				if err := p.colorConfig(); err != nil {
					return err
				}
			} else {
				p.ColorSpace = CSBT601
				p.SubsamplingX = true
				p.SubsamplingY = true
				p.BitDepth = 8
			}
			if p.RefreshFrameFlags, err = p.b.ReadF8(); err != nil {
				return err
			}
			if err := p.frameSize(); err != nil {
				return err
			}
			if err := p.renderSize(); err != nil {
				return err
			}
		} else {
			if p.RefreshFrameFlags, err = p.b.ReadF8(); err != nil {
				return err
			}
			for i := 0; i < 3; i++ {
				idx, err := p.b.ReadF(3)
				if err != nil {
					return err
				}
				p.RefFrameIdx[i] = uint8(idx)
				bias, err := p.b.ReadBit()
				if err != nil {
					return err
				}
				p.RefFrameSignBias[LastFrame+i] = bias
			}
			if err := p.frameSizeWithRefs(); err != nil {
				return err
			}
			if p.AllowHighPrecisionMV, err = p.b.ReadBit(); err != nil {
				return err
			}
			if err := p.readInterpolationFilter(); err != nil {
				return err
			}
		}
	}

	if p.ErrorResilientMode {
		p.RefreshFrameContext = false
		p.FrameParallelDecodingMode = true
	} else {
		if p.RefreshFrameContext, err = p.b.ReadBit(); err != nil {
			return err
		}
		if p.FrameParallelDecodingMode, err = p.b.ReadBit(); err != nil {
			return err
		}
	}

	frameContextIdx, err := p.b.ReadF(2)
	if err != nil {
		return err
	}
	p.FrameContextIdx = uint8(frameContextIdx)
	if p.FrameIsIntra || p.ErrorResilientMode {
		p.setupPastIndependence()
		if p.FrameType == KeyFrame || p.ErrorResilientMode || p.ResetFrameContext == 3 {
			for i := uint8(0); i < 4; i++ {
				p.probs.save(i)
			}
		} else if p.ResetFrameContext == 2 {
			p.probs.save(p.FrameContextIdx)
		}
		p.FrameContextIdx = 0
	}

	if err := p.loopFilterParams(); err != nil {
		return err
	}
	if err := p.quantizationParams(); err != nil {
		return err
	}
	if err := p.segmentationParams(); err != nil {
		return err
	}
	if err := p.tileInfo(); err != nil {
		return err
	}

	if p.HeaderSizeInBytes, err = p.b.ReadF16(); err != nil {
		return err
	}
	return nil
}

func (p *Parser) reservedZero() error {
	bit, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	if bit {
		return ErrBadHeader
	}
	return nil
}

func (p *Parser) frameSyncCode() error {
	for _, expected := range [3]uint8{0x49, 0x83, 0x42} {
		b, err := p.b.ReadByte()
		if err != nil {
			return err
		}
		if b != expected {
			return ErrBadHeader
		}
	}
	return nil
}

func (p *Parser) colorConfig() error {
	if p.Profile >= 2 {
		twelveBit, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		if twelveBit {
			p.BitDepth = 12
		} else {
			p.BitDepth = 10
		}
	} else {
		p.BitDepth = 8
	}

	colorSpace, err := p.b.ReadF(3)
	if err != nil {
		return err
	}
	if colorSpace > uint32(CSRGB) {
		return ErrBadHeader
	}
	p.ColorSpace = ColorSpace(colorSpace)

	if p.ColorSpace != CSRGB {
		fullRange, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		if fullRange {
			p.ColorRange = FullSwing
		} else {
			p.ColorRange = StudioSwing
		}
		if p.Profile == 1 || p.Profile == 3 {
			if p.SubsamplingX, err = p.b.ReadBit(); err != nil {
				return err
			}
			if p.SubsamplingY, err = p.b.ReadBit(); err != nil {
				return err
			}
			if err := p.reservedZero(); err != nil {
				return err
			}
		} else {
			p.SubsamplingX = true
			p.SubsamplingY = true
		}
	} else {
		p.ColorRange = FullSwing
		if p.Profile == 1 || p.Profile == 3 {
			p.SubsamplingX = false
			p.SubsamplingY = false
			if err := p.reservedZero(); err != nil {
				return err
			}
		} else {
			// RGB is only expressible in the 4:4:4-capable profiles.
			return ErrBadHeader
		}
	}
	return nil
}

func (p *Parser) frameSize() error {
	widthMinusOne, err := p.b.ReadF16()
	if err != nil {
		return err
	}
	heightMinusOne, err := p.b.ReadF16()
	if err != nil {
		return err
	}
	p.FrameWidth = uint32(widthMinusOne) + 1
	p.FrameHeight = uint32(heightMinusOne) + 1
	p.computeImageSize()
	return nil
}

func (p *Parser) renderSize() error {
	different, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	if different {
		widthMinusOne, err := p.b.ReadF16()
		if err != nil {
			return err
		}
		heightMinusOne, err := p.b.ReadF16()
		if err != nil {
			return err
		}
		p.RenderWidth = uint32(widthMinusOne) + 1
		p.RenderHeight = uint32(heightMinusOne) + 1
	} else {
		p.RenderWidth = p.FrameWidth
		p.RenderHeight = p.FrameHeight
	}
	return nil
}

func (p *Parser) frameSizeWithRefs() error {
	foundRef := false
	for i := 0; i < 3; i++ {
		bit, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		if bit {
			foundRef = true
			slot := p.RefFrameIdx[i]
			p.FrameWidth = p.refFrameWidth[slot]
			p.FrameHeight = p.refFrameHeight[slot]
			break
		}
	}

	if !foundRef {
		if err := p.frameSize(); err != nil {
			return err
		}
	} else {
		p.computeImageSize()
	}
	return p.renderSize()
}

func (p *Parser) computeImageSize() {
	p.MiCols = (p.FrameWidth + 7) >> 3
	p.MiRows = (p.FrameHeight + 7) >> 3
	p.Sb64Cols = (p.MiCols + 7) >> 3
	p.Sb64Rows = (p.MiRows + 7) >> 3
}

func (p *Parser) readInterpolationFilter() error {
	isSwitchable, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	if isSwitchable {
		p.InterpolationFilter = Switchable
		return nil
	}
	literal, err := p.b.ReadF(2)
	if err != nil {
		return err
	}
	p.InterpolationFilter = literalToType[literal]
	return nil
}

func (p *Parser) loopFilterParams() error {
	level, err := p.b.ReadF(6)
	if err != nil {
		return err
	}
	p.LoopFilterLevel = uint8(level)
	sharpness, err := p.b.ReadF(3)
	if err != nil {
		return err
	}
	p.LoopFilterSharpness = uint8(sharpness)
	if p.LoopFilterDeltaEnabled, err = p.b.ReadBit(); err != nil {
		return err
	}
	if !p.LoopFilterDeltaEnabled {
		return nil
	}
	update, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	if !update {
		return nil
	}
	for i := 0; i < MaxRefFrames; i++ {
		present, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		if present {
			delta, err := p.b.ReadS(6)
			if err != nil {
				return err
			}
			p.LoopFilterRefDeltas[i] = int8(delta)
		}
	}
	for i := 0; i < 2; i++ {
		present, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		if present {
			delta, err := p.b.ReadS(6)
			if err != nil {
				return err
			}
			p.LoopFilterModeDeltas[i] = int8(delta)
		}
	}
	return nil
}

func (p *Parser) quantizationParams() error {
	baseQIdx, err := p.b.ReadByte()
	if err != nil {
		return err
	}
	p.BaseQIdx = baseQIdx
	if p.DeltaQYDc, err = p.readDeltaQ(); err != nil {
		return err
	}
	if p.DeltaQUVDc, err = p.readDeltaQ(); err != nil {
		return err
	}
	if p.DeltaQUVAc, err = p.readDeltaQ(); err != nil {
		return err
	}
	p.Lossless = p.BaseQIdx == 0 && p.DeltaQYDc == 0 && p.DeltaQUVDc == 0 && p.DeltaQUVAc == 0
	return nil
}

func (p *Parser) readDeltaQ() (int8, error) {
	present, err := p.b.ReadBit()
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, nil
	}
	delta, err := p.b.ReadS(4)
	if err != nil {
		return 0, err
	}
	return int8(delta), nil
}

func (p *Parser) segmentationParams() error {
	enabled, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	p.SegmentationEnabled = enabled
	if !enabled {
		return nil
	}

	updateMap, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	if updateMap {
		for i := 0; i < 7; i++ {
			if p.SegmentationTreeProbs[i], err = p.readProb(); err != nil {
				return err
			}
		}
		temporalUpdate, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if temporalUpdate {
				if p.SegmentationPredProb[i], err = p.readProb(); err != nil {
					return err
				}
			} else {
				p.SegmentationPredProb[i] = 255
			}
		}
	}

	updateData, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	if !updateData {
		return nil
	}

	if p.SegmentationAbsOrDeltaUpdate, err = p.b.ReadBit(); err != nil {
		return err
	}
	for i := 0; i < maxSegments; i++ {
		for j := 0; j < segLvlMax; j++ {
			var featureValue int16
			featureEnabled, err := p.b.ReadBit()
			if err != nil {
				return err
			}
			p.FeatureEnabled[i][j] = featureEnabled
			if featureEnabled {
				value, err := p.b.ReadF(segmentationFeatureBits[j])
				if err != nil {
					return err
				}
				featureValue = int16(value)
				if segmentationFeatureSigned[j] {
					negative, err := p.b.ReadBit()
					if err != nil {
						return err
					}
					if negative {
						featureValue = -featureValue
					}
				}
			}
			p.FeatureData[i][j] = featureValue
		}
	}
	return nil
}

func (p *Parser) readProb() (uint8, error) {
	present, err := p.b.ReadBit()
	if err != nil {
		return 0, err
	}
	if !present {
		return 255, nil
	}
	return p.b.ReadByte()
}

func (p *Parser) tileInfo() error {
	minLog2TileCols := p.calcMinLog2TileCols()
	maxLog2TileCols := p.calcMaxLog2TileCols()
	p.TileColsLog2 = minLog2TileCols
	for p.TileColsLog2 < maxLog2TileCols {
		increment, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		if !increment {
			break
		}
		p.TileColsLog2++
	}

	rowsBit, err := p.b.ReadBit()
	if err != nil {
		return err
	}
	p.TileRowsLog2 = 0
	if rowsBit {
		p.TileRowsLog2 = 1
		extra, err := p.b.ReadBit()
		if err != nil {
			return err
		}
		if extra {
			p.TileRowsLog2 = 2
		}
	}
	return nil
}

func (p *Parser) calcMinLog2TileCols() uint16 {
	var minLog2 uint16
	for (maxTileWidthB64 << minLog2) < p.Sb64Cols {
		minLog2++
	}
	return minLog2
}

func (p *Parser) calcMaxLog2TileCols() uint16 {
	maxLog2 := uint16(1)
	for (p.Sb64Cols >> maxLog2) >= minTileWidthB64 {
		maxLog2++
	}
	return maxLog2 - 1
}

func (p *Parser) setupPastIndependence() {
	for i := 0; i < maxSegments; i++ {
		for j := 0; j < segLvlMax; j++ {
			p.FeatureData[i][j] = 0
			p.FeatureEnabled[i][j] = false
		}
	}
	p.SegmentationAbsOrDeltaUpdate = false

	segmentIDCount := int(p.MiRows * p.MiCols)
	if cap(p.prevSegmentIDs) < segmentIDCount {
		p.prevSegmentIDs = make([]uint8, segmentIDCount)
	}
	p.prevSegmentIDs = p.prevSegmentIDs[:segmentIDCount]
	for i := range p.prevSegmentIDs {
		p.prevSegmentIDs[i] = 0
	}

	p.LoopFilterDeltaEnabled = true
	p.LoopFilterRefDeltas[IntraFrame] = 1
	p.LoopFilterRefDeltas[LastFrame] = 0
	p.LoopFilterRefDeltas[GoldenFrame] = -1
	p.LoopFilterRefDeltas[AltRefFrame] = -1
	p.LoopFilterModeDeltas[0] = 0
	p.LoopFilterModeDeltas[1] = 0

	p.probs.reset()
}

func (p *Parser) trailingBits() error {
	for p.b.Position()&7 != 0 {
		if err := p.reservedZero(); err != nil {
			return err
		}
	}
	return nil
}

// refreshReferenceSizes records this frame's dimensions in every
// reference slot the frame refreshes.
func (p *Parser) refreshReferenceSizes() {
	for i := 0; i < numRefFrames; i++ {
		if p.RefreshFrameFlags&(1<<uint(i)) != 0 {
			p.refFrameWidth[i] = p.FrameWidth
			p.refFrameHeight[i] = p.FrameHeight
		}
	}
}

// DumpInfo logs the headline facts of the last parsed frame.
func (p *Parser) DumpInfo() {
	log := webmdk.Logger()
	log.Debugf("frame dimensions: %dx%d", p.FrameWidth, p.FrameHeight)
	log.Debugf("render dimensions: %dx%d", p.RenderWidth, p.RenderHeight)
	log.Debugf("bit depth: %d", p.BitDepth)
	log.Debugf("interpolation filter: %s", p.InterpolationFilter)
}
