package embedded

import (
	_ "embed"
)

// SamplePatternsJSON is a small style profile shipped with the binary, used
// when no pattern file has been trained yet
//
//go:embed data/sample_patterns.json
var SamplePatternsJSON []byte
