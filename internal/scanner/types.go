package scanner

// CapturedImage is a single still held by a scanner session, encoded as a
// data URI (data:image/png;base64,...).
type CapturedImage struct {
	DataURI string
}

// IsZero reports whether no image is held.
func (c CapturedImage) IsZero() bool {
	return c.DataURI == ""
}

// RecognitionResult is the OCR output for a captured image.
type RecognitionResult struct {
	RawText     string `json:"rawText" yaml:"rawText"`
	GuessedName string `json:"guessedName" yaml:"guessedName"`
}

// AnalysisResult is the structured interpretation of a product label.
type AnalysisResult struct {
	Pros                []string `json:"pros" yaml:"pros"`
	Cons                []string `json:"cons" yaml:"cons"`
	EnvironmentalImpact string   `json:"environmentalImpact" yaml:"environmentalImpact"`
}

// IsEmpty mirrors the visibility rule of the results panel: nothing to show
// when both lists and the impact text are empty.
func (a AnalysisResult) IsEmpty() bool {
	return len(a.Pros) == 0 && len(a.Cons) == 0 && a.EnvironmentalImpact == ""
}

// ScanResult is what a single analysis run produces. Err is set when the run
// took the failure path; Analysis then holds the fallback values.
type ScanResult struct {
	Recognition RecognitionResult
	Analysis    AnalysisResult
	Err         error
}

// Failed reports whether the run degraded to the fallback result.
func (r ScanResult) Failed() bool {
	return r.Err != nil
}

// State is the state of a scanner session.
type State int

const (
	StateClosed State = iota
	StateIdle
	StateCaptured
	StateLoading
	StateDisplaying
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateIdle:
		return "idle"
	case StateCaptured:
		return "captured"
	case StateLoading:
		return "loading"
	case StateDisplaying:
		return "displaying"
	default:
		return "unknown"
	}
}

// SessionState is a point-in-time copy of a session, safe to render.
type SessionState struct {
	State       State
	Image       CapturedImage
	Recognition RecognitionResult
	Analysis    AnalysisResult
	Err         error
	Loading     bool
	ActiveTab   Tab
}

// HasResults reports whether the results panel should be shown.
func (s SessionState) HasResults() bool {
	return s.State == StateDisplaying && !s.Analysis.IsEmpty()
}
