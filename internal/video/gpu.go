package video

import (
	"github.com/gbcore-dev/pocketgb/internal/addr"
	"github.com/gbcore-dev/pocketgb/internal/bit"
)

// Bus is what the PPU needs from the MMU: register access plus the CGB
// VRAM-bank/palette-RAM accessors.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	ReadBit(index uint8, address uint16) bool
	RequestInterrupt(interrupt addr.Interrupt)
	ReadVRAMBank(bank uint8, address uint16) uint8
	CGBMode() bool
	BGPaletteColor(palette, colorIndex uint8) uint16
	ObjPaletteColor(palette, colorIndex uint8) uint16
}

// GpuMode is the PPU's current rendering stage, matching STAT bits 1-0.
type GpuMode int

const (
	hblankMode   GpuMode = 0
	vblankMode   GpuMode = 1
	oamReadMode  GpuMode = 2
	vramReadMode GpuMode = 3
)

const (
	hblankCycles       = 204
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	scanlineCycles     = oamScanlineCycles + vramScanlineCycles + hblankCycles
)

type GPU struct {
	bus            Bus
	framebuffer    *FrameBuffer
	bgPixelBuffer  []byte
	bgPriority     []bool // CGB tile-attribute BG-over-OBJ priority bit, per pixel
	spritePriority SpritePriorityBuffer

	mode                 GpuMode
	line                 int
	cycles               int
	modeCounterAux       int
	vBlankLine           int
	isScanLineTransfered bool
	windowLine           int

	statLine bool // combined OR of enabled STAT conditions, for rising-edge detection

	// hblankDMA is invoked once per HBlank entry, wired to the MMU's
	// TickHBlankDMA by whoever constructs the GPU (cgb HDMA, spec.md §4.2).
	hblankDMA func()
}

func NewGpu(bus Bus) *GPU {
	gpu := &GPU{
		framebuffer:   NewFrameBuffer(),
		bus:           bus,
		mode:          vblankMode,
		bgPixelBuffer: make([]byte, FramebufferSize),
		bgPriority:    make([]bool, FramebufferSize),
		line:          144,
	}
	return gpu
}

// SetHBlankDMAHook wires the HBlank-triggered HDMA step; called once per
// HBlank mode entry when a CGB HDMA transfer is in flight.
func (g *GPU) SetHBlankDMAHook(hook func()) {
	g.hblankDMA = hook
}

func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Tick advances the PPU's scanline state machine by cycles dots.
func (g *GPU) Tick(cycles int) {
	g.cycles += cycles

	switch g.mode {
	case hblankMode:
		if g.cycles < hblankCycles {
			break
		}
		g.cycles -= hblankCycles
		g.setMode(oamReadMode)
		g.setLY(g.line + 1)

		if g.line == 144 {
			g.setMode(vblankMode)
			g.vBlankLine = 0
			g.modeCounterAux = g.cycles
			g.windowLine = 0
			g.bus.RequestInterrupt(addr.VBlankInterrupt)
		}
		g.updateStatInterrupt()
	case vblankMode:
		g.modeCounterAux += cycles

		if g.modeCounterAux >= scanlineCycles {
			g.modeCounterAux -= scanlineCycles
			g.vBlankLine++
			if g.vBlankLine <= 9 {
				g.setLY(g.line + 1)
			}
		}

		if g.cycles >= 4104 && g.modeCounterAux >= 4 && g.line == 153 {
			g.setLY(0)
		}

		if g.cycles >= 4560 {
			g.cycles -= 4560
			g.setMode(oamReadMode)
			g.updateStatInterrupt()
		}
	case oamReadMode:
		if g.cycles >= oamScanlineCycles {
			g.cycles -= oamScanlineCycles
			g.setMode(vramReadMode)
			g.isScanLineTransfered = false
		}
	case vramReadMode:
		if !g.isScanLineTransfered {
			if g.readLCDCVariable(lcdDisplayEnable) == 1 {
				g.drawScanline()
			}
			g.isScanLineTransfered = true
		}

		if g.cycles >= vramScanlineCycles {
			g.cycles -= vramScanlineCycles
			g.setMode(hblankMode)
			g.updateStatInterrupt()
			if g.hblankDMA != nil {
				g.hblankDMA()
			}
		}
	}

	if g.cycles >= 70224 {
		g.cycles -= 70224
	}
}

func (g *GPU) drawScanline() {
	if g.readLCDCVariable(lcdDisplayEnable) != 1 {
		lineWidth := g.line * FramebufferWidth
		for i := 0; i < FramebufferWidth; i++ {
			g.framebuffer.buffer[lineWidth+i] = uint32(WhiteColor)
		}
		return
	}

	g.drawBackground()
	g.drawWindow()
	g.drawSprites()
}

func (g *GPU) bgColor(shade uint8) uint32 {
	if g.bus.CGBMode() {
		return rgb555ToRGBA8888(g.bus.BGPaletteColor(0, shade))
	}
	return uint32(ByteToColor(shade))
}

// cgbTileAttributes reads the tile-map attribute byte stored in VRAM bank
// 1 at the same address as the tile index in bank 0 (spec.md's CGB tile
// attribute layout): bits 0-2 palette, bit 3 VRAM bank, bit 5 X flip,
// bit 6 Y flip, bit 7 BG-to-OBJ priority.
func (g *GPU) cgbTileAttributes(mapAddr uint16) (palette, vramBank uint8, flipX, flipY, priority bool) {
	if !g.bus.CGBMode() {
		return 0, 0, false, false, false
	}
	attr := g.bus.ReadVRAMBank(1, mapAddr)
	palette = attr & 0x07
	vramBank = (attr >> 3) & 0x01
	flipX = bit.IsSet(5, attr)
	flipY = bit.IsSet(6, attr)
	priority = bit.IsSet(7, attr)
	return
}

func (g *GPU) drawBackground() {
	lineWidth := g.line * FramebufferWidth
	backgroundEnabled := g.readLCDCVariable(bgDisplay) == 1
	cgb := g.bus.CGBMode()

	// In CGB mode, LCDC bit 0 stops meaning "disable background" and
	// instead becomes the BG/Window-over-OBJ master priority switch; the
	// background is still drawn (spec.md's CGB LCDC semantics).
	if !backgroundEnabled && !cgb {
		palette := g.bus.Read(addr.BGP)
		color0 := palette & 0x03
		displayColor := g.bgColor(color0)

		for i := 0; i < FramebufferWidth; i++ {
			g.framebuffer.buffer[lineWidth+i] = displayColor
			g.bgPixelBuffer[lineWidth+i] = 0
			g.bgPriority[lineWidth+i] = false
		}
		return
	}

	useSignedTileSet := g.readLCDCVariable(bgWindowTileDataSelect) == 0
	useTileMapZero := g.readLCDCVariable(bgTileMapDisplaySelect) == 0

	tilesAddr := addr.TileData0
	if useSignedTileSet {
		tilesAddr = addr.TileData2
	}
	tileMapAddr := addr.TileMap1
	if useTileMapZero {
		tileMapAddr = addr.TileMap0
	}

	scrollX := g.bus.Read(addr.SCX)
	scrollY := g.bus.Read(addr.SCY)
	lineScrolled := (g.line + int(scrollY)) & 0xFF
	lineScrolled32 := (lineScrolled / 8) * 32
	tilePixelY := lineScrolled % 8

	for screenPixelX := 0; screenPixelX < FramebufferWidth; screenPixelX++ {
		mapPixelX := (screenPixelX + int(scrollX)) & 0xFF
		mapTileX := mapPixelX / 8
		mapTileXOffset := mapPixelX % 8
		mapTileAddr := tileMapAddr + uint16(lineScrolled32+mapTileX)

		mapTileValue := g.bus.Read(mapTileAddr)
		palette, vramBank, flipX, flipY, priority := g.cgbTileAttributes(mapTileAddr)

		effectivePixelY := tilePixelY
		if flipY {
			effectivePixelY = 7 - tilePixelY
		}
		tilePixelY2 := effectivePixelY * 2

		var tileAddr uint16
		if useSignedTileSet {
			tileAddr = uint16(int(tilesAddr) + int(int8(mapTileValue))*16 + tilePixelY2)
		} else {
			tileAddr = tilesAddr + uint16(int(mapTileValue)*16) + uint16(tilePixelY2)
		}

		var low, high uint8
		if cgb && vramBank == 1 {
			low = g.bus.ReadVRAMBank(1, tileAddr)
			high = g.bus.ReadVRAMBank(1, tileAddr+1)
		} else {
			low = g.bus.Read(tileAddr)
			high = g.bus.Read(tileAddr + 1)
		}

		pixelIndex := uint8(7 - mapTileXOffset)
		if flipX {
			pixelIndex = uint8(mapTileXOffset)
		}

		pixel := 0
		if bit.IsSet(pixelIndex, low) {
			pixel |= 1
		}
		if bit.IsSet(pixelIndex, high) {
			pixel |= 2
		}

		pixelPosition := lineWidth + screenPixelX

		var finalColor uint32
		if cgb {
			finalColor = rgb555ToRGBA8888(g.bus.BGPaletteColor(palette, uint8(pixel)))
		} else {
			bgp := g.bus.Read(addr.BGP)
			shade := (bgp >> (pixel * 2)) & 0x03
			finalColor = uint32(ByteToColor(shade))
		}

		g.framebuffer.buffer[pixelPosition] = finalColor
		g.bgPixelBuffer[pixelPosition] = uint8(pixel)
		g.bgPriority[pixelPosition] = cgb && priority
	}
}

func (g *GPU) drawWindow() {
	if g.windowLine > 143 {
		return
	}
	if g.readLCDCVariable(windowDisplayEnable) != 1 {
		return
	}

	wx := g.bus.Read(addr.WX) - 7
	wy := g.bus.Read(addr.WY)

	if wx > 159 || wy > 143 || int(wy) > g.line {
		return
	}

	cgb := g.bus.CGBMode()
	useSignedTileSet := g.readLCDCVariable(bgWindowTileDataSelect) == 0
	useTileMapZero := g.readLCDCVariable(windowTileMapSelect) == 0

	tilesAddr := addr.TileData0
	if useSignedTileSet {
		tilesAddr = addr.TileData2
	}
	tileMapAddr := addr.TileMap1
	if useTileMapZero {
		tileMapAddr = addr.TileMap0
	}

	lineAdj := g.windowLine
	y32 := (lineAdj / 8) * 32
	pixelY := lineAdj & 7
	lineWidth := g.line * FramebufferWidth

	endTileX := (FramebufferWidth - int(wx) + 7) / 8
	if endTileX > 32 {
		endTileX = 32
	}

	for x := 0; x < endTileX; x++ {
		tileIndexAddr := tileMapAddr + uint16(y32+x)
		tileValue := g.bus.Read(tileIndexAddr)
		palette, vramBank, flipX, flipY, priority := g.cgbTileAttributes(tileIndexAddr)
		xOffset := x * 8

		effectivePixelY := pixelY
		if flipY {
			effectivePixelY = 7 - pixelY
		}
		pixelY2 := effectivePixelY * 2

		var tileAddr uint16
		if useSignedTileSet {
			tileAddr = uint16(int(tilesAddr) + int(int8(tileValue))*16 + pixelY2)
		} else {
			tileAddr = tilesAddr + uint16(int(tileValue)*16) + uint16(pixelY2)
		}

		var low, high uint8
		if cgb && vramBank == 1 {
			low = g.bus.ReadVRAMBank(1, tileAddr)
			high = g.bus.ReadVRAMBank(1, tileAddr+1)
		} else {
			low = g.bus.Read(tileAddr)
			high = g.bus.Read(tileAddr + 1)
		}

		for pixelX := 0; pixelX < 8; pixelX++ {
			bufferX := xOffset + pixelX + int(wx)
			if bufferX < int(wx) || bufferX >= FramebufferWidth {
				continue
			}

			srcBit := uint8(7 - pixelX)
			if flipX {
				srcBit = uint8(pixelX)
			}

			pixel := 0
			if bit.IsSet(srcBit, low) {
				pixel |= 1
			}
			if bit.IsSet(srcBit, high) {
				pixel |= 2
			}

			position := lineWidth + bufferX
			if position >= len(g.framebuffer.buffer) {
				continue
			}

			var finalColor uint32
			if cgb {
				finalColor = rgb555ToRGBA8888(g.bus.BGPaletteColor(palette, uint8(pixel)))
			} else {
				bgp := g.bus.Read(addr.BGP)
				shade := (bgp >> (pixel * 2)) & 0x03
				finalColor = uint32(ByteToColor(shade))
			}

			g.framebuffer.buffer[position] = finalColor
			g.bgPixelBuffer[position] = uint8(pixel)
			g.bgPriority[position] = cgb && priority
		}
	}
	g.windowLine++
}

func (g *GPU) drawSprites() {
	if g.readLCDCVariable(spriteDisplayEnable) != 1 {
		return
	}

	spriteHeight := 8
	if g.readLCDCVariable(spriteSize) == 1 {
		spriteHeight = 16
	}

	cgb := g.bus.CGBMode()
	bgMasterPriority := g.readLCDCVariable(bgDisplay) == 1
	lineWidth := g.line * FramebufferWidth

	var spritesToDraw []int
	for sprite := 0; sprite < 40; sprite++ {
		oamAddr := addr.OAMStart + uint16(sprite*4)
		spriteY := int(g.bus.Read(oamAddr)) - 16
		if spriteY > g.line || (spriteY+spriteHeight) <= g.line {
			continue
		}
		spritesToDraw = append(spritesToDraw, sprite)
		if len(spritesToDraw) >= 10 {
			break
		}
	}

	g.spritePriority.Clear(cgb)

	for _, sprite := range spritesToDraw {
		oamAddr := addr.OAMStart + uint16(sprite*4)
		spriteX := int(g.bus.Read(oamAddr+1)) - 8
		for pixelOffset := 0; pixelOffset < 8; pixelOffset++ {
			g.spritePriority.TryClaimPixel(spriteX+pixelOffset, sprite, spriteX)
		}
	}

	for _, sprite := range spritesToDraw {
		oamAddr := addr.OAMStart + uint16(sprite*4)
		spriteY := int(g.bus.Read(oamAddr)) - 16
		spriteX := int(g.bus.Read(oamAddr+1)) - 8
		spriteTile := g.bus.Read(oamAddr + 2)
		spriteFlags := g.bus.Read(oamAddr + 3)

		hasPixels := false
		for x := 0; x < 8; x++ {
			if g.spritePriority.GetOwner(spriteX+x) == sprite {
				hasPixels = true
				break
			}
		}
		if !hasPixels {
			continue
		}

		spriteMask := 0xFF
		if spriteHeight == 16 {
			spriteMask = 0xFE
		}
		spriteTile16 := (int(spriteTile) & spriteMask) * 16

		var paletteIdx uint8
		if cgb {
			paletteIdx = spriteFlags & 0x07
		} else if bit.IsSet(4, spriteFlags) {
			paletteIdx = 1
		}

		vramBank := uint8(0)
		if cgb && bit.IsSet(3, spriteFlags) {
			vramBank = 1
		}

		flipX := bit.IsSet(5, spriteFlags)
		flipY := bit.IsSet(6, spriteFlags)
		aboveBG := !bit.IsSet(7, spriteFlags)

		pixelY := g.line - spriteY
		if flipY {
			pixelY = spriteHeight - 1 - pixelY
		}

		var pixelY2, offset int
		if spriteHeight == 16 && pixelY >= 8 {
			pixelY2 = (pixelY - 8) * 2
			offset = 16
		} else {
			pixelY2 = pixelY * 2
		}

		tileAddr := addr.TileData0 + uint16(spriteTile16+pixelY2+offset)
		var low, high uint8
		if vramBank == 1 {
			low = g.bus.ReadVRAMBank(1, tileAddr)
			high = g.bus.ReadVRAMBank(1, tileAddr+1)
		} else {
			low = g.bus.Read(tileAddr)
			high = g.bus.Read(tileAddr + 1)
		}

		for pixelX := 0; pixelX < 8; pixelX++ {
			bufferX := spriteX + pixelX
			if g.spritePriority.GetOwner(bufferX) != sprite {
				continue
			}

			pixelIdx := 7 - pixelX
			if flipX {
				pixelIdx = pixelX
			}

			pixel := 0
			if bit.IsSet(uint8(pixelIdx), low) {
				pixel |= 1
			}
			if bit.IsSet(uint8(pixelIdx), high) {
				pixel |= 2
			}
			if pixel == 0 {
				continue
			}

			position := lineWidth + bufferX

			// CGB: LCDC bit 0 clear makes OBJ always win regardless of any
			// priority bit; otherwise the tile attribute's BG-priority bit
			// or this sprite's own OBJ-behind-BG bit can hide it behind a
			// non-zero background pixel.
			if cgb {
				bgWins := bgMasterPriority && (g.bgPriority[position] || !aboveBG) && g.bgPixelBuffer[position] != 0
				if bgWins {
					continue
				}
			} else if !aboveBG && g.bgPixelBuffer[position] != 0 {
				continue
			}

			var finalColor uint32
			if cgb {
				finalColor = rgb555ToRGBA8888(g.bus.ObjPaletteColor(paletteIdx, uint8(pixel)))
			} else {
				objPaletteAddr := addr.OBP0
				if paletteIdx == 1 {
					objPaletteAddr = addr.OBP1
				}
				obp := g.bus.Read(objPaletteAddr)
				shade := (obp >> (pixel * 2)) & 0x03
				finalColor = uint32(ByteToColor(shade))
			}

			g.framebuffer.buffer[position] = finalColor
		}
	}
}

// STAT register bit positions.
type statFlag uint8

const (
	statLycIrq       statFlag = 6
	statOamIrq       statFlag = 5
	statVblankIrq    statFlag = 4
	statHblankIrq    statFlag = 3
	statLycCondition statFlag = 2
)

// LCDC register bit positions.
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteSize             lcdcFlag = 2
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

func (g *GPU) readLCDCVariable(flag lcdcFlag) byte {
	if bit.IsSet(uint8(flag), g.bus.Read(addr.LCDC)) {
		return 1
	}
	return 0
}

// updateStatInterrupt recomputes the combined, enable-gated STAT condition
// signal and requests the LCDSTAT interrupt only on its rising edge — real
// hardware's STAT IRQ line is the OR of four sources, and only a 0->1
// transition on that combined line fires an interrupt. A naive
// request-on-every-check implementation (the teacher's original shape)
// double-fires when two conditions are true at once or stay true across
// calls; this fixes that.
func (g *GPU) updateStatInterrupt() {
	stat := g.bus.Read(addr.STAT)

	current := false
	if bit.IsSet(uint8(statLycIrq), stat) && bit.IsSet(uint8(statLycCondition), stat) {
		current = true
	}
	if bit.IsSet(uint8(statOamIrq), stat) && g.mode == oamReadMode {
		current = true
	}
	if bit.IsSet(uint8(statVblankIrq), stat) && g.mode == vblankMode {
		current = true
	}
	if bit.IsSet(uint8(statHblankIrq), stat) && g.mode == hblankMode {
		current = true
	}

	if current && !g.statLine {
		g.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.statLine = current
}

func (g *GPU) compareLYToLYC() {
	ly := g.bus.Read(addr.LY)
	lyc := g.bus.Read(addr.LYC)
	stat := g.bus.Read(addr.STAT)

	if ly == lyc {
		stat = bit.Set(uint8(statLycCondition), stat)
	} else {
		stat = bit.Reset(uint8(statLycCondition), stat)
	}
	g.bus.Write(addr.STAT, stat)
	g.updateStatInterrupt()
}

func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode
	stat := g.bus.Read(addr.STAT)
	stat = stat&0xFC | byte(g.mode)
	g.bus.Write(addr.STAT, stat)
}

func (g *GPU) setLY(line int) {
	g.line = line
	g.bus.Write(addr.LY, byte(g.line))
	g.compareLYToLYC()
}
