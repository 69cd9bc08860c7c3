package constants

// DocStatus is the canonical processing status for a receipt document.
type DocStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusUploaded   DocStatus = "uploaded"   // created, not yet picked up
	DocStatusProcessing DocStatus = "processing" // extraction in progress
	DocStatusProcessed  DocStatus = "processed"  // a result exists (even a weak one)
	DocStatusFailed     DocStatus = "failed"     // pipeline died before producing a result
)

// Method identifies which tier produced an extraction result.
type Method string

const (
	MethodVision    Method = "vision"
	MethodHeuristic Method = "heuristic"
	MethodError     Method = "error"
)

// Extraction method selection (config surface).
const (
	ExtractionVision    = "vision"
	ExtractionHeuristic = "heuristic"
	ExtractionHybrid    = "hybrid"
)

// MaxAttempts bounds automatic reprocessing per document.
const MaxAttempts = 3

// VisionAcceptThreshold is the whole-result acceptance bar for the vision
// tier; below it the heuristic tier runs and its result is used instead.
const VisionAcceptThreshold float32 = 0.5
