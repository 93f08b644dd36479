// Package labelstudio writes task files for, and manages the lifecycle
// of, the external labeling tool.
package labelstudio

import (
	"github.com/thumbtrend/thumbtrend/internal"
)

var log = internal.GetLogger()
