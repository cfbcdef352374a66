package tob

import "fmt"

// Frame header and footer sizes by format.
var frameControl = map[Format][2]int{
	TOB1: {0, 0},
	TOB2: {8, 4},
	TOB3: {12, 4},
}

// deriveGeometry computes the row layout of a frame. It must run after the
// columns are parsed and FirstFrameStart is known.
func (h *Header) deriveGeometry(size int64) error {
	if h.FrameRowSize <= 0 {
		return fmt.Errorf("%w: empty record", ErrGeometry)
	}
	ctl := frameControl[h.Format]
	h.FrameHeaderSize, h.FrameFooterSize = ctl[0], ctl[1]

	if h.Format == TOB1 {
		h.FrameSize = h.FrameRowSize
		h.FrameRowCount = 1
		h.FrameRowPadding = 0
		if size >= h.FirstFrameStart {
			h.IntendedTableSize = int((size - h.FirstFrameStart) / int64(h.FrameRowSize))
		}
		return nil
	}

	payload := h.FrameSize - h.FrameHeaderSize - h.FrameFooterSize
	if payload < h.FrameRowSize {
		return fmt.Errorf("%w: frame size %d leaves %d payload bytes for a %d byte record",
			ErrGeometry, h.FrameSize, payload, h.FrameRowSize)
	}
	h.FrameRowCount = payload / h.FrameRowSize
	slack := payload - h.FrameRowCount*h.FrameRowSize
	if slack%h.FrameRowCount != 0 {
		return fmt.Errorf("%w: %d slack bytes do not divide over %d records",
			ErrGeometry, slack, h.FrameRowCount)
	}
	h.FrameRowPadding = slack / h.FrameRowCount
	return nil
}

// frameOffset returns the absolute offset of frame i.
func (h *Header) frameOffset(i int) int64 {
	return h.FirstFrameStart + int64(i)*int64(h.FrameSize)
}
