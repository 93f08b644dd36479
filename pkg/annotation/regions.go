package annotation

import (
	"fmt"

	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// ToUploadRegions converts a COCO document into per-file upload regions
// for the training API, renormalizing pixel boxes against each image's
// dimensions. Categories without a matching service tag are skipped.
// The returned file order follows first appearance in the annotation list.
func ToUploadRegions(coco *COCO, tagMap map[string]string) (map[string][]models.Region, []string, error) {
	images := coco.ImageByID()
	categories := coco.CategoryNameByID()

	regions := make(map[string][]models.Region)
	var fileOrder []string

	for _, ann := range coco.Annotations {
		img, ok := images[ann.ImageID]
		if !ok {
			return nil, nil, fmt.Errorf("annotation %d references unknown image %d", ann.ID, ann.ImageID)
		}
		category, ok := categories[ann.CategoryID]
		if !ok {
			return nil, nil, fmt.Errorf("annotation %d references unknown category %d", ann.ID, ann.CategoryID)
		}

		tagID, ok := tagMap[category]
		if !ok {
			log.Warnf("no service tag for category %q, skipping annotation %d", category, ann.ID)
			continue
		}

		x, y, w, h := ann.BBox[0], ann.BBox[1], ann.BBox[2], ann.BBox[3]
		region := models.Region{
			TagID:  tagID,
			Left:   x / float64(img.Width),
			Top:    y / float64(img.Height),
			Width:  w / float64(img.Width),
			Height: h / float64(img.Height),
		}

		if _, seen := regions[img.FileName]; !seen {
			fileOrder = append(fileOrder, img.FileName)
		}
		regions[img.FileName] = append(regions[img.FileName], region)
	}

	return regions, fileOrder, nil
}
