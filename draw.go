package ocr

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DrawBoxes 在图像副本上描出检测到的文本框, 便于调试检测效果
func DrawBoxes(img image.Image, boxes []TextBox) image.Image {
	canvas := imaging.Clone(img)
	for i, box := range boxes {
		c := paletteColor(i)
		for j := 0; j < 4; j++ {
			a := box.Points[j]
			b := box.Points[(j+1)%4]
			drawLine(canvas, a[0], a[1], b[0], b[1], c)
		}
	}
	return canvas
}

// DrawParagraphs 在图像副本上描出段落包围盒
func DrawParagraphs(img image.Image, paragraphs []Paragraph) image.Image {
	canvas := imaging.Clone(img)
	for i, p := range paragraphs {
		c := paletteColor(i)
		left, top := p.BoundingBox.Left, p.BoundingBox.Top
		right := left + p.BoundingBox.Width
		bottom := top + p.BoundingBox.Height
		drawLine(canvas, left, top, right, top, c)
		drawLine(canvas, right, top, right, bottom, c)
		drawLine(canvas, right, bottom, left, bottom, c)
		drawLine(canvas, left, bottom, left, top, c)
	}
	return canvas
}

// paletteColor 按序号生成区分度高的颜色
func paletteColor(i int) color.NRGBA {
	c := colorful.Hsv(float64(i*47%360), 0.9, 0.95)
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// drawLine 画一条 2 像素宽的线段
func drawLine(canvas *image.NRGBA, x0, y0, x1, y1 float64, c color.NRGBA) {
	length := math.Hypot(x1-x0, y1-y0)
	steps := int(length) + 1
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(x0 + (x1-x0)*t)
		y := int(y0 + (y1-y0)*t)
		canvas.SetNRGBA(x, y, c)
		canvas.SetNRGBA(x+1, y, c)
		canvas.SetNRGBA(x, y+1, c)
	}
}
