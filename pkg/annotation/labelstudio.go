package annotation

import (
	"fmt"
	"math"
	"path/filepath"
)

// Task is one labeling-tool import task: a single image plus the
// machine-generated annotations the annotator corrects.
type Task struct {
	Data        TaskData         `json:"data"`
	Annotations []TaskAnnotation `json:"annotations"`
}

type TaskData struct {
	Image string `json:"image"`
}

type TaskAnnotation struct {
	Result []TaskResult `json:"result"`
}

// TaskResult is one rectangle in the labeling tool's result schema.
type TaskResult struct {
	OriginalWidth  int            `json:"original_width"`
	OriginalHeight int            `json:"original_height"`
	ImageRotation  int            `json:"image_rotation"`
	Value          RectangleValue `json:"value"`
	FromName       string         `json:"from_name"`
	ToName         string         `json:"to_name"`
	Type           string         `json:"type"`
}

// RectangleValue positions a box as percentages of the image dimensions.
type RectangleValue struct {
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	Rotation        float64  `json:"rotation"`
	RectangleLabels []string `json:"rectanglelabels"`
}

const (
	resultFromName = "label"
	resultToName   = "image"
	resultType     = "rectanglelabels"
)

// localFilesPath builds the tool's local-files URL for an image. The tool
// requires forward slashes regardless of platform.
func localFilesPath(imageDir, fileName string) string {
	return "/data/local-files/?d=" + filepath.ToSlash(filepath.Join(imageDir, fileName))
}

// round2 rounds to two decimal places, the precision the tool displays.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToTasks converts a COCO document into labeling-tool tasks. Annotations
// are grouped per image, preserving the order images first appear in the
// annotation list. Images without annotations produce no task.
func ToTasks(coco *COCO, imageDir string) ([]Task, error) {
	images := coco.ImageByID()
	categories := coco.CategoryNameByID()

	taskIndex := make(map[string]int)
	var tasks []Task

	for _, ann := range coco.Annotations {
		img, ok := images[ann.ImageID]
		if !ok {
			return nil, fmt.Errorf("annotation %d references unknown image %d", ann.ID, ann.ImageID)
		}
		category, ok := categories[ann.CategoryID]
		if !ok {
			return nil, fmt.Errorf("annotation %d references unknown category %d", ann.ID, ann.CategoryID)
		}

		imagePath := localFilesPath(imageDir, img.FileName)
		idx, ok := taskIndex[imagePath]
		if !ok {
			idx = len(tasks)
			taskIndex[imagePath] = idx
			tasks = append(tasks, Task{
				Data:        TaskData{Image: imagePath},
				Annotations: []TaskAnnotation{{Result: []TaskResult{}}},
			})
		}

		x, y, w, h := ann.BBox[0], ann.BBox[1], ann.BBox[2], ann.BBox[3]
		result := TaskResult{
			OriginalWidth:  img.Width,
			OriginalHeight: img.Height,
			ImageRotation:  0,
			Value: RectangleValue{
				X:               round2(x / float64(img.Width) * 100),
				Y:               round2(y / float64(img.Height) * 100),
				Width:           round2(w / float64(img.Width) * 100),
				Height:          round2(h / float64(img.Height) * 100),
				Rotation:        0,
				RectangleLabels: []string{category},
			},
			FromName: resultFromName,
			ToName:   resultToName,
			Type:     resultType,
		}
		tasks[idx].Annotations[0].Result = append(tasks[idx].Annotations[0].Result, result)
	}

	return tasks, nil
}
