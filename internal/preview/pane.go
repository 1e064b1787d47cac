package preview

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
)

var (
	colWhite     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	colGray      = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	colLightGray = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	colDanger    = color.NRGBA{R: 220, G: 53, B: 69, A: 255}
)

// Show paints the current preview state: the image if resident, text or an
// error message otherwise, a loading placeholder while a decode is in flight.
func (p *Preview) Show(gtx layout.Context, th *material.Theme) layout.Dimensions {
	// Background
	paint.FillShape(gtx.Ops, colWhite, clip.Rect{Max: gtx.Constraints.Max}.Op())

	if p.current == "" {
		return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			lbl := material.Body1(th, "Select a file to preview")
			lbl.Color = colGray
			return lbl.Layout(gtx)
		})
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		// Header: filename plus the info line
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(8), Bottom: unit.Dp(8), Left: unit.Dp(12), Right: unit.Dp(8)}.Layout(gtx,
				func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							lbl := material.Body1(th, p.info.name)
							lbl.Font.Weight = font.Bold
							lbl.MaxLines = 1
							return lbl.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							if p.info.typ == "" {
								return layout.Dimensions{}
							}
							detail := fmt.Sprintf("%s · %s · %s", p.info.typ, p.info.size, p.info.modified)
							lbl := material.Body2(th, detail)
							lbl.Color = colGray
							return lbl.Layout(gtx)
						}),
					)
				})
		}),
		// Divider
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, colLightGray, clip.Rect{Max: image.Pt(gtx.Constraints.Max.X, gtx.Dp(1))}.Op())
			return layout.Dimensions{Size: image.Pt(gtx.Constraints.Max.X, gtx.Dp(1))}
		}),
		// Error message if any
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if p.errText == "" {
				return layout.Dimensions{}
			}
			return layout.Inset{Top: unit.Dp(8), Left: unit.Dp(12), Right: unit.Dp(12)}.Layout(gtx,
				func(gtx layout.Context) layout.Dimensions {
					lbl := material.Body2(th, p.errText)
					lbl.Color = colDanger
					return lbl.Layout(gtx)
				})
		}),
		// Content area
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			switch {
			case p.isImage && p.imgSize != (image.Point{}):
				return p.layoutImage(gtx)
			case p.isImage && p.errText == "":
				return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					lbl := material.Body2(th, "Loading…")
					lbl.Color = colGray
					return lbl.Layout(gtx)
				})
			case p.content != "":
				return p.layoutText(gtx, th)
			default:
				return layout.Dimensions{}
			}
		}),
	)
}

// layoutImage scales the resident texture to fit the pane, preserving aspect
// ratio and never scaling up.
func (p *Preview) layoutImage(gtx layout.Context) layout.Dimensions {
	return layout.Inset{Top: unit.Dp(8), Left: unit.Dp(12), Right: unit.Dp(12), Bottom: unit.Dp(8)}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			availWidth := float32(gtx.Constraints.Max.X)
			availHeight := float32(gtx.Constraints.Max.Y)
			imgWidth := float32(p.imgSize.X)
			imgHeight := float32(p.imgSize.Y)

			scale := availWidth / imgWidth
			if s := availHeight / imgHeight; s < scale {
				scale = s
			}
			if scale > 1 {
				scale = 1
			}

			finalWidth := int(imgWidth * scale)
			finalHeight := int(imgHeight * scale)

			img := widget.Image{
				Src:   p.img,
				Fit:   widget.Contain,
				Scale: 1.0 / scale, // Inverse because Scale is pixels per dp
			}

			return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints = layout.Exact(image.Pt(finalWidth, finalHeight))
				return img.Layout(gtx)
			})
		})
}

// layoutText renders text content line by line in a scrollable list.
func (p *Preview) layoutText(gtx layout.Context, th *material.Theme) layout.Dimensions {
	lines := strings.Split(p.content, "\n")

	return layout.Inset{Top: unit.Dp(8), Left: unit.Dp(12), Right: unit.Dp(12), Bottom: unit.Dp(8)}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			return p.list.Layout(gtx, len(lines), func(gtx layout.Context, i int) layout.Dimensions {
				line := lines[i]
				if line == "" {
					line = " " // Preserve empty lines
				}
				lbl := material.Body2(th, line)
				lbl.Font.Typeface = "monospace"
				lbl.TextSize = unit.Sp(12)
				return lbl.Layout(gtx)
			})
		})
}
