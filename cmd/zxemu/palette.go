package main

// palette maps the 16 palette indices internal/video.Video.FrameBuffer
// produces (ink/paper 0-7, +8 when the BRIGHT attribute bit is set)
// to RGBA host pixels. Values match the canonical Spectrum ULA output
// levels: normal colours hold their guns at 0xCD, bright at 0xFF.
var palette = [16][4]byte{
	{0x00, 0x00, 0x00, 0xFF}, // 0 black
	{0x00, 0x00, 0xCD, 0xFF}, // 1 blue
	{0xCD, 0x00, 0x00, 0xFF}, // 2 red
	{0xCD, 0x00, 0xCD, 0xFF}, // 3 magenta
	{0x00, 0xCD, 0x00, 0xFF}, // 4 green
	{0x00, 0xCD, 0xCD, 0xFF}, // 5 cyan
	{0xCD, 0xCD, 0x00, 0xFF}, // 6 yellow
	{0xCD, 0xCD, 0xCD, 0xFF}, // 7 white
	{0x00, 0x00, 0x00, 0xFF}, // 8 bright black (same as black)
	{0x00, 0x00, 0xFF, 0xFF}, // 9 bright blue
	{0xFF, 0x00, 0x00, 0xFF}, // 10 bright red
	{0xFF, 0x00, 0xFF, 0xFF}, // 11 bright magenta
	{0x00, 0xFF, 0x00, 0xFF}, // 12 bright green
	{0x00, 0xFF, 0xFF, 0xFF}, // 13 bright cyan
	{0xFF, 0xFF, 0x00, 0xFF}, // 14 bright yellow
	{0xFF, 0xFF, 0xFF, 0xFF}, // 15 bright white
}

// rgbaFromIndices expands a palette-index frame buffer (FrameWidth*
// FrameHeight bytes) into the RGBA buffer ebiten.Image.WritePixels
// wants (4 bytes per pixel).
func rgbaFromIndices(dst []byte, src []byte) {
	for i, idx := range src {
		c := palette[idx&0x0F]
		o := i * 4
		dst[o], dst[o+1], dst[o+2], dst[o+3] = c[0], c[1], c[2], c[3]
	}
}
