package app

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/justyntemme/loupe/internal/fs"
	"github.com/justyntemme/loupe/internal/thumb"
)

var (
	colToolbar   = color.NRGBA{R: 245, G: 245, B: 245, A: 255}
	colSidebar   = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	colSelected  = color.NRGBA{R: 66, G: 133, B: 244, A: 60}
	colHover     = color.NRGBA{R: 0, G: 0, B: 0, A: 15}
	colDivider   = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	colFolder    = color.NRGBA{R: 255, G: 200, B: 80, A: 255}
	colFileIcon  = color.NRGBA{R: 180, G: 180, B: 190, A: 255}
	colDimText   = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
)

const sidebarWidth = 170

func (o *Orchestrator) layout(gtx layout.Context) layout.Dimensions {
	paint.Fill(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(o.layoutToolbar),
		layout.Rigid(divider),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				layout.Rigid(o.layoutRecents),
				layout.Flexed(0.55, o.layoutFileList),
				layout.Flexed(0.45, func(gtx layout.Context) layout.Dimensions {
					return o.preview.Show(gtx, o.theme)
				}),
			)
		}),
	)
}

func divider(gtx layout.Context) layout.Dimensions {
	size := image.Pt(gtx.Constraints.Max.X, gtx.Dp(1))
	paint.FillShape(gtx.Ops, colDivider, clip.Rect{Max: size}.Op())
	return layout.Dimensions{Size: size}
}

func (o *Orchestrator) layoutToolbar(gtx layout.Context) layout.Dimensions {
	if o.backBtn.Clicked(gtx) {
		o.goBack()
	}
	if o.upBtn.Clicked(gtx) {
		o.goUp()
	}
	if o.refreshBtn.Clicked(gtx) {
		o.requestDir(o.currentPath)
	}

	paint.FillShape(gtx.Ops, colToolbar, clip.Rect{Max: image.Pt(gtx.Constraints.Max.X, gtx.Dp(40))}.Op())

	return layout.Inset{Top: unit.Dp(6), Bottom: unit.Dp(6), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(toolButton(o.theme, &o.backBtn, "←")),
				layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
				layout.Rigid(toolButton(o.theme, &o.upBtn, "↑")),
				layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
				layout.Rigid(toolButton(o.theme, &o.refreshBtn, "⟳")),
				layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					lbl := material.Body1(o.theme, o.currentPath)
					lbl.MaxLines = 1
					return lbl.Layout(gtx)
				}),
			)
		})
}

func toolButton(th *material.Theme, btn *widget.Clickable, txt string) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		b := material.Button(th, btn, txt)
		b.Inset = layout.UniformInset(unit.Dp(6))
		return b.Layout(gtx)
	}
}

// layoutRecents is a narrow strip of recently visited folders.
func (o *Orchestrator) layoutRecents(gtx layout.Context) layout.Dimensions {
	width := gtx.Dp(unit.Dp(sidebarWidth))
	gtx.Constraints.Min.X = width
	gtx.Constraints.Max.X = width

	paint.FillShape(gtx.Ops, colSidebar, clip.Rect{Max: image.Pt(width, gtx.Constraints.Max.Y)}.Op())

	return layout.Inset{Top: unit.Dp(8), Left: unit.Dp(8), Right: unit.Dp(4)}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					lbl := material.Body2(o.theme, "Recent")
					lbl.Color = colDimText
					return lbl.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					o.recentList.Axis = layout.Vertical
					return o.recentList.Layout(gtx, len(o.recents), o.layoutRecentRow)
				}),
			)
		})
}

func (o *Orchestrator) layoutRecentRow(gtx layout.Context, i int) layout.Dimensions {
	path := o.recents[i]
	btn := &o.recentRows[i]

	if btn.Clicked(gtx) && path != o.currentPath {
		o.navigate(path)
	}

	return btn.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if btn.Hovered() {
			paint.FillShape(gtx.Ops, colHover, clip.Rect{Max: image.Pt(gtx.Constraints.Max.X, gtx.Dp(24))}.Op())
		}
		return layout.Inset{Top: unit.Dp(3), Bottom: unit.Dp(3)}.Layout(gtx,
			func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body2(o.theme, filepath.Base(path))
				lbl.MaxLines = 1
				return lbl.Layout(gtx)
			})
	})
}

func (o *Orchestrator) layoutFileList(gtx layout.Context) layout.Dimensions {
	if len(o.entries) == 0 {
		return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			lbl := material.Body1(o.theme, "Empty folder")
			lbl.Color = colDimText
			return lbl.Layout(gtx)
		})
	}

	o.fileList.Axis = layout.Vertical
	return o.fileList.Layout(gtx, len(o.entries), o.layoutRow)
}

func (o *Orchestrator) layoutRow(gtx layout.Context, i int) layout.Dimensions {
	entry := o.entries[i]
	row := &o.rows[i]

	for {
		click, ok := row.click.Update(gtx)
		if !ok {
			break
		}
		if click.NumClicks >= 2 && entry.IsDir {
			o.navigate(entry.Path)
		} else {
			o.selectEntry(i)
		}
	}

	return row.click.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		rowHeight := gtx.Dp(48)
		switch {
		case i == o.selected:
			paint.FillShape(gtx.Ops, colSelected, clip.Rect{Max: image.Pt(gtx.Constraints.Max.X, rowHeight)}.Op())
		case row.click.Hovered():
			paint.FillShape(gtx.Ops, colHover, clip.Rect{Max: image.Pt(gtx.Constraints.Max.X, rowHeight)}.Op())
		}

		return layout.Inset{Top: unit.Dp(4), Bottom: unit.Dp(4), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx,
			func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return o.layoutRowIcon(gtx, entry)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(10)}.Layout),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						lbl := material.Body1(o.theme, entry.Name)
						lbl.MaxLines = 1
						return lbl.Layout(gtx)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						if entry.IsDir {
							return layout.Dimensions{}
						}
						lbl := material.Body2(o.theme, formatEntrySize(entry.Size))
						lbl.Color = colDimText
						return lbl.Layout(gtx)
					}),
				)
			})
	})
}

// layoutRowIcon draws a 40x40 thumbnail for images, a colored square for
// everything else. A thumbnail miss draws the plain icon and the pipeline
// repaints the row once the decode lands.
func (o *Orchestrator) layoutRowIcon(gtx layout.Context, entry fs.Entry) layout.Dimensions {
	iconSize := gtx.Dp(40)
	size := image.Pt(iconSize, iconSize)

	if !entry.IsDir && thumb.IsImagePath(entry.Path, o.cfg.Thumbnails.ImageExts) {
		if op, _, ok := o.preview.Thumbnail(entry.Path); ok {
			img := widget.Image{Src: op, Fit: widget.Contain}
			gtx.Constraints = layout.Exact(size)
			return img.Layout(gtx)
		}
	}

	iconColor := colFileIcon
	if entry.IsDir {
		iconColor = colFolder
	}
	inset := iconSize / 5
	rect := clip.Rect{
		Min: image.Pt(inset, inset),
		Max: image.Pt(iconSize-inset, iconSize-inset),
	}
	paint.FillShape(gtx.Ops, iconColor, rect.Op())
	return layout.Dimensions{Size: size}
}

func formatEntrySize(bytes int64) string {
	const unitSize = 1024
	if bytes < unitSize {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unitSize), 0
	for n := bytes / unitSize; n >= unitSize; n /= unitSize {
		div *= unitSize
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
