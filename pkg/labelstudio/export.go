package labelstudio

import (
	"fmt"

	"github.com/thumbtrend/thumbtrend/pkg/annotation"
)

// WriteTasks converts a COCO document into labeling-tool tasks and writes
// them to outputPath. imageDir is the directory the tool serves images
// from, relative to its document root.
func WriteTasks(coco *annotation.COCO, imageDir, outputPath string) (int, error) {
	tasks, err := annotation.ToTasks(coco, imageDir)
	if err != nil {
		return 0, fmt.Errorf("failed to convert annotations to tasks: %w", err)
	}
	if err := annotation.WriteJSONFile(outputPath, tasks); err != nil {
		return 0, err
	}
	log.Infof("wrote %d tasks to %s", len(tasks), outputPath)
	return len(tasks), nil
}
