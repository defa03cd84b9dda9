package inference

import "diagraph/internal/converter/geom"

const (
	DefaultTextInferenceDistance = 0.3
	DefaultFirstSplitID          = -1
)

// Config holds the tunable parameters of the pipeline.
type Config struct {
	Kernel geom.Kernel
	// TextInferenceDistance is the textbox search radius used when
	// Hooks.TextInferenceDistance is nil.
	TextInferenceDistance float64
	// UseRealConnections is used when Hooks.UseRealConnections is nil.
	UseRealConnections bool
	// FirstSplitID is the id of the first synthesized shape. Later ones
	// count down from it.
	FirstSplitID int64
}

func DefaultConfig() Config {
	return Config{
		Kernel:                geom.DefaultKernel(),
		TextInferenceDistance: DefaultTextInferenceDistance,
		UseRealConnections:    true,
		FirstSplitID:          DefaultFirstSplitID,
	}
}
