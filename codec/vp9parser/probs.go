package vp9parser

// frameContext is the probability state saved into and restored from
// the four frame-context slots. It currently carries the probabilities
// owned by the uncompressed header layer.
// TODO: add mode, motion-vector and coefficient probabilities together
// with compressed-header parsing.
type frameContext struct {
	segmentationTreeProbs [7]uint8
	segmentationPredProb  [3]uint8
}

func defaultFrameContext() frameContext {
	ctx := frameContext{}
	for i := range ctx.segmentationTreeProbs {
		ctx.segmentationTreeProbs[i] = 255
	}
	for i := range ctx.segmentationPredProb {
		ctx.segmentationPredProb[i] = 255
	}
	return ctx
}

// probabilityTables holds the four persistent frame-context slots plus
// the working context. Allocated once per parser, reused every frame.
type probabilityTables struct {
	current frameContext
	saved   [4]frameContext
}

func (t *probabilityTables) reset() {
	t.current = defaultFrameContext()
}

func (t *probabilityTables) save(idx uint8) {
	t.saved[idx&3] = t.current
}

func (t *probabilityTables) load(idx uint8) {
	t.current = t.saved[idx&3]
}
