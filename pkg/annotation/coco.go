// Package annotation converts between the three on-disk annotation
// representations the pipeline moves through: raw service predictions,
// COCO, and the labeling tool's task format.
package annotation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/internal"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

var log = internal.GetLogger()

// COCO is the standard annotation schema used as the pipeline's
// interchange format.
type COCO struct {
	Images      []COCOImage      `json:"images"`
	Annotations []COCOAnnotation `json:"annotations"`
	Categories  []COCOCategory   `json:"categories"`
}

type COCOImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// COCOAnnotation is one labeled box. BBox is [x, y, width, height] in
// pixels.
type COCOAnnotation struct {
	ID         int        `json:"id"`
	ImageID    int        `json:"image_id"`
	CategoryID int        `json:"category_id"`
	BBox       [4]float64 `json:"bbox"`
	Area       float64    `json:"area"`
	IsCrowd    int        `json:"iscrowd"`
	// Score carries the model confidence for machine-generated
	// annotations. Manually corrected files may omit it.
	Score float64 `json:"score,omitempty"`
}

type COCOCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ImageByID indexes the file's image entries.
func (c *COCO) ImageByID() map[int]COCOImage {
	images := make(map[int]COCOImage, len(c.Images))
	for _, img := range c.Images {
		images[img.ID] = img
	}
	return images
}

// CategoryNameByID indexes the file's categories.
func (c *COCO) CategoryNameByID() map[int]string {
	categories := make(map[int]string, len(c.Categories))
	for _, cat := range c.Categories {
		categories[cat.ID] = cat.Name
	}
	return categories
}

// LoadCOCOFile reads a COCO JSON file from disk.
func LoadCOCOFile(path string) (*COCO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read COCO file: %w", err)
	}
	var coco COCO
	if err := json.Unmarshal(data, &coco); err != nil {
		return nil, fmt.Errorf("failed to parse COCO file %s: %w", path, err)
	}
	return &coco, nil
}

// WriteJSONFile writes v to path as indented UTF-8 JSON without HTML
// escaping, the encoding the labeling tool expects.
func WriteJSONFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// COCOBuilder accumulates images and threshold-filtered predictions into a
// COCO document. Image and annotation IDs are assigned sequentially from 1.
type COCOBuilder struct {
	coco       COCO
	labels     map[string]config.LabelConfig
	nextImage  int
	nextAnnID  int
}

// NewCOCOBuilder creates a builder over the configured label set. The
// label set defines both the COCO categories and the per-label confidence
// thresholds.
func NewCOCOBuilder(labels []config.LabelConfig) *COCOBuilder {
	byName := make(map[string]config.LabelConfig, len(labels))
	categories := make([]COCOCategory, 0, len(labels))
	for _, label := range labels {
		byName[label.Name] = label
		categories = append(categories, COCOCategory{ID: label.ID, Name: label.Name})
	}
	return &COCOBuilder{
		coco:      COCO{Categories: categories},
		labels:    byName,
		nextImage: 1,
		nextAnnID: 1,
	}
}

// AddImage adds an image and the predictions that survive threshold
// filtering. Predictions with unknown labels are dropped. Boxes are
// denormalized to pixels against the image dimensions.
func (b *COCOBuilder) AddImage(fileName string, width, height int, predictions []models.Prediction) {
	imageID := b.nextImage
	b.nextImage++
	b.coco.Images = append(b.coco.Images, COCOImage{
		ID:       imageID,
		FileName: fileName,
		Width:    width,
		Height:   height,
	})

	for _, pred := range predictions {
		label, ok := b.labels[pred.TagName]
		if !ok {
			log.Debugf("dropping prediction with unknown label %q", pred.TagName)
			continue
		}
		if pred.Probability < label.Threshold {
			continue
		}

		box := pred.BoundingBox
		x := box.Left * float64(width)
		y := box.Top * float64(height)
		w := box.Width * float64(width)
		h := box.Height * float64(height)

		b.coco.Annotations = append(b.coco.Annotations, COCOAnnotation{
			ID:         b.nextAnnID,
			ImageID:    imageID,
			CategoryID: label.ID,
			BBox:       [4]float64{x, y, w, h},
			Area:       w * h,
			IsCrowd:    0,
			Score:      pred.Probability,
		})
		b.nextAnnID++
	}
}

// COCO returns the accumulated document.
func (b *COCOBuilder) COCO() *COCO {
	return &b.coco
}
