package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Canvas is the cell surface a framebuffer is drawn onto. uv.Screen and
// *uv.Terminal satisfy it.
type Canvas interface {
	SetCell(x, y int, c *uv.Cell)
}

// Draw writes the framebuffer onto c inside area.
// Each cell shows two pixels: ▀ with fg = top pixel and bg = bottom pixel.
func (fb *Framebuffer) Draw(c Canvas, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		if topY >= fb.Height {
			break
		}
		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			c.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(col, topY)),
					Bg: rgbaToColor(fb.GetPixel(col, topY+1)),
				},
			})
		}
	}
}

// rgbaToColor maps fully transparent pixels to the terminal default color.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// CellSize returns the framebuffer dimensions for a terminal of cols x rows.
func CellSize(cols, rows int) (width, height int) {
	return max(cols, 1), max(rows, 1) * 2
}

// RGB creates an opaque color.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}
