package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"glucoreport/pkg/contracts/domain"
)

// Example values shown when the real factors chart cannot be drawn.
var placeholderValues = [3]float64{
	domain.FallbackCarbs,
	domain.FallbackWalk,
	domain.FallbackSleep,
}

var (
	canvasBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	canvasText       = color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}
	canvasAxis       = color.RGBA{R: 0xbd, G: 0xc3, B: 0xc7, A: 0xff}
)

// placeholderFactors paints the example-data bar chart without the chart
// backend.
func placeholderFactors(w, h int) domain.ImagePayload {
	img := blank(w, h)
	drawCentered(img, "Factors Influencing Glucose (Example Data)", w/2, 24)

	top, bottom := 48, h-36
	left, right := 40, w-40
	if bottom <= top || right <= left {
		return encode(img)
	}
	draw.Draw(img, image.Rect(left, bottom, right, bottom+1), &image.Uniform{C: canvasAxis}, image.Point{}, draw.Src)

	labels := [3]string{"Carbohydrates", "Walking", "Sleep"}
	units := [3]string{"g", "min", "h"}
	colors := [3]color.Color{colorCarbs, colorWalk, colorSleep}

	// y axis spans 0..60 like the example chart
	const yMax = 60.0
	slot := (right - left) / len(labels)
	barW := slot / 2
	for i, v := range placeholderValues {
		x0 := left + i*slot + (slot-barW)/2
		barH := int(float64(bottom-top) * v / yMax)
		rect := image.Rect(x0, bottom-barH, x0+barW, bottom)
		draw.Draw(img, rect, &image.Uniform{C: colors[i]}, image.Point{}, draw.Src)

		cx := x0 + barW/2
		drawCentered(img, fmt.Sprintf("%.1f %s", v, units[i]), cx, bottom-barH-6)
		drawCentered(img, labels[i], cx, bottom+18)
	}
	return encode(img)
}

// placeholderMessage is a blank frame with a single centered line of text.
func placeholderMessage(w, h int, msg string) domain.ImagePayload {
	img := blank(w, h)
	drawCentered(img, msg, w/2, h/2)
	return encode(img)
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: canvasBackground}, image.Point{}, draw.Src)
	return img
}

// drawCentered writes text with its baseline at y, centered on x.
func drawCentered(img *image.RGBA, text string, x, y int) {
	dr := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(canvasText),
		Face: basicfont.Face7x13,
	}
	width := dr.MeasureString(text).Ceil()
	dr.Dot = fixed.Point26_6{X: fixed.I(x - width/2), Y: fixed.I(y)}
	dr.DrawString(text)
}

func encode(img image.Image) domain.ImagePayload {
	var buf bytes.Buffer
	// png.Encode only fails on writer errors or zero-sized images
	_ = png.Encode(&buf, img)
	return domain.ImagePayload{
		MIMEType:    domain.MIMETypePNG,
		Data:        buf.Bytes(),
		Placeholder: true,
	}
}
