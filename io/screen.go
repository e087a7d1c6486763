package io

import (
	"fmt"
	"io"
	"iter"
	"maps"
)

// Screen framebuffer defaults.
const (
	SCREEN_ADDRESS = 0x10000
	SCREEN_WIDTH   = 32
	SCREEN_HEIGHT  = 16
)

// screenShades maps a pixel intensity, darkest first, to a character.
const screenShades = " .:-=+*#%@"

// Screen is a Width x Height framebuffer of one grey byte per pixel,
// row major, starting at Address.
type Screen struct {
	Address uint32
	Width   int
	Height  int
}

var _ Device = (*Screen)(nil)

// Defines returns the framebuffer equates.
func (scr *Screen) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"SCREEN_ADDRESS": fmt.Sprintf("0x%x", scr.Address),
		"SCREEN_WIDTH":   fmt.Sprintf("%d", scr.Width),
		"SCREEN_HEIGHT":  fmt.Sprintf("%d", scr.Height),
	})
}

// Rewind does nothing; the framebuffer lives in memory.
func (scr *Screen) Rewind() {
}

// Sync does nothing; the screen is only read by Render.
func (scr *Screen) Sync(bus Bus) error {
	return nil
}

// Pixels returns a copy of the framebuffer.
func (scr *Screen) Pixels(bus Bus) (pixels []byte, err error) {
	pixels = make([]byte, scr.Width*scr.Height)
	err = bus.Load(scr.Address, pixels)
	if err != nil {
		pixels = nil
	}
	return
}

// Render writes the framebuffer as lines of shade characters.
func (scr *Screen) Render(bus Bus, out io.Writer) (err error) {
	pixels, err := scr.Pixels(bus)
	if err != nil {
		return
	}

	line := make([]byte, scr.Width+1)
	line[scr.Width] = '\n'
	for y := range scr.Height {
		for x, pixel := range pixels[y*scr.Width : (y+1)*scr.Width] {
			line[x] = screenShades[int(pixel)*len(screenShades)/256]
		}
		_, err = out.Write(line)
		if err != nil {
			return
		}
	}

	return
}
