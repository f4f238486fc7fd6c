package video

// FrameBuffer holds the last fully rendered frame as RGBA8888 pixels.
type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

// GBColor is a DMG 2-bit shade rendered as RGBA8888.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

// ByteToColor maps a DMG 2-bit color index (0-3), as selected through BGP/
// OBP0/OBP1, to its display shade.
func ByteToColor(value byte) GBColor {
	switch value {
	case 0:
		return BlackColor
	case 1:
		return DarkGreyColor
	case 2:
		return LightGreyColor
	case 3:
		return WhiteColor
	}
	return 0
}

// rgb555ToRGBA8888 expands a CGB 15-bit BGR555 palette entry (as stored in
// BCPD/OCPD: bits 0-4 red, 5-9 green, 10-14 blue) to a full RGBA8888 color.
func rgb555ToRGBA8888(value uint16) uint32 {
	r5 := uint32(value & 0x1F)
	g5 := uint32((value >> 5) & 0x1F)
	b5 := uint32((value >> 10) & 0x1F)

	r8 := (r5*255 + 15) / 31
	g8 := (g5*255 + 15) / 31
	b8 := (b5*255 + 15) / 31

	return r8<<24 | g8<<16 | b8<<8 | 0xFF
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferSize),
	}
}

func (fb FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color uint32) {
	fb.buffer[y*fb.width+x] = color
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = 0
	}
}

// ToBinaryData returns the framebuffer as raw RGBA bytes, for snapshot
// comparisons in tests or a file-dumping backend.
func (fb *FrameBuffer) ToBinaryData() []byte {
	data := make([]byte, len(fb.buffer)*4)
	for i, pixel := range fb.buffer {
		data[i*4] = byte(pixel >> 24)
		data[i*4+1] = byte(pixel >> 16)
		data[i*4+2] = byte(pixel >> 8)
		data[i*4+3] = byte(pixel)
	}
	return data
}
