package handlers

const (
	// Request limits and defaults
	defaultPlanMeasures    = 32
	defaultProgressionLen  = 8
	maxProgressionLen      = 256
	defaultTension         = 0.5
	defaultPageSize        = 20
	maxPageSize            = 100
	maxTrainingUploadBytes = 16 << 20
)
