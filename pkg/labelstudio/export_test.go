package labelstudio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thumbtrend/thumbtrend/pkg/annotation"
)

func TestWriteTasks(t *testing.T) {
	coco := &annotation.COCO{
		Images: []annotation.COCOImage{
			{ID: 1, FileName: "a.jpg", Width: 1280, Height: 720},
		},
		Annotations: []annotation.COCOAnnotation{
			{ID: 1, ImageID: 1, CategoryID: 2, BBox: [4]float64{128, 144, 640, 180}},
		},
		Categories: []annotation.COCOCategory{{ID: 2, Name: "인물"}},
	}

	outputPath := filepath.Join(t.TempDir(), "tasks.json")
	count, err := WriteTasks(coco, "images/2021_01", outputPath)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var tasks []annotation.Task
	require.NoError(t, json.Unmarshal(data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "/data/local-files/?d=images/2021_01/a.jpg", tasks[0].Data.Image)

	// The tool chokes on escaped HTML entities in URLs.
	assert.Contains(t, string(data), "/data/local-files/?d=")
	assert.NotContains(t, string(data), `&`)
}

func TestWriteTasksConversionError(t *testing.T) {
	coco := &annotation.COCO{
		Annotations: []annotation.COCOAnnotation{{ID: 1, ImageID: 9, CategoryID: 1}},
	}

	_, err := WriteTasks(coco, "images", filepath.Join(t.TempDir(), "tasks.json"))
	require.Error(t, err)
}
