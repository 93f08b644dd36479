package analyzer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/fogleman/gg"

	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// Per-model box colors: view-count blue, trending red.
const (
	viewCountColor = "#0074D9"
	trendingColor  = "#FF4136"

	boxLineWidth = 7
	jpegQuality  = 90
)

// drawComparison draws both models' boxes onto the image and returns it
// as a base64 JPEG. Boxes below the threshold are omitted. View-count
// captions sit at the top of their box, trending captions at the bottom,
// so overlapping detections stay readable.
func (a *Analyzer) drawComparison(
	imageData []byte,
	viewCount, trending []models.Prediction,
	threshold float64,
) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("uploaded image does not decode: %w", err)
	}

	dc := gg.NewContextForImage(img)
	width := float64(dc.Width())
	height := float64(dc.Height())

	drawBoxes := func(preds []models.Prediction, colorHex, modelName string, captionAtTop bool) {
		for _, pred := range preds {
			if pred.Probability < threshold {
				continue
			}
			box := pred.BoundingBox
			left := box.Left * width
			top := box.Top * height
			boxWidth := box.Width * width
			boxHeight := box.Height * height

			dc.SetHexColor(colorHex)
			dc.SetLineWidth(boxLineWidth)
			dc.DrawRectangle(left, top, boxWidth, boxHeight)
			dc.Stroke()

			caption := fmt.Sprintf("[%s] %s %.1f%%", modelName, pred.TagName, pred.Probability*100)
			captionY := top + 18
			if !captionAtTop {
				captionY = top + boxHeight - 8
			}
			dc.DrawString(caption, left+5, captionY)
		}
	}

	drawBoxes(viewCount, viewCountColor, "views", true)
	drawBoxes(trending, trendingColor, "trend", false)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
