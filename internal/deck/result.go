package deck

import "time"

// GeneratedText is the text service output.
type GeneratedText struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// GeneratedChart is the chart service output. URL may be empty when the
// service only returns structured data.
type GeneratedChart struct {
	Type     string         `json:"chart_type"`
	Data     map[string]any `json:"chart_data,omitempty"`
	URL      string         `json:"chart_url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// GeneratedImage is the image service output.
type GeneratedImage struct {
	URL      string         `json:"image_url"`
	Caption  string         `json:"caption"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// GeneratedDiagram is the diagram service output.
type GeneratedDiagram struct {
	Type     string         `json:"diagram_type"`
	URL      string         `json:"diagram_url"`
	Data     map[string]any `json:"diagram_data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ItemError records one failed generation unit.
type ItemError struct {
	Type    ServiceType `json:"type"`
	Message string      `json:"error"`
}

// SlideResults holds everything the dispatcher collected for one slide.
type SlideResults struct {
	Text     *GeneratedText     `json:"text"`
	Charts   []GeneratedChart   `json:"charts"`
	Images   []GeneratedImage   `json:"images"`
	Diagrams []GeneratedDiagram `json:"diagrams"`
	Errors   []ItemError        `json:"errors"`
}

// NewSlideResults returns an empty, non-nil result bucket.
func NewSlideResults() *SlideResults {
	return &SlideResults{
		Charts:   []GeneratedChart{},
		Images:   []GeneratedImage{},
		Diagrams: []GeneratedDiagram{},
		Errors:   []ItemError{},
	}
}

// Successes counts the generated items in r.
func (r *SlideResults) Successes() int {
	if r == nil {
		return 0
	}
	n := len(r.Charts) + len(r.Images) + len(r.Diagrams)
	if r.Text != nil {
		n++
	}
	return n
}

// Content is the flat, layout-specific mapping handed to the renderer.
type Content map[string]any

// Severity grades a validation violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Constraint kinds reported by the validator.
const (
	ConstraintRequired       = "required"
	ConstraintCharacterLimit = "character_limit"
	ConstraintArrayLimit     = "array_limit"
)

// ValidationViolation is one breach of a layout constraint.
type ValidationViolation struct {
	Field      string   `json:"field"`
	Constraint string   `json:"constraint"`
	Expected   string   `json:"expected"`
	Actual     any      `json:"actual"`
	Severity   Severity `json:"severity"`
}

// ValidationStatus is the validator verdict for a single slide.
type ValidationStatus struct {
	Compliant  bool                  `json:"is_compliant"`
	Violations []ValidationViolation `json:"violations"`
}

// CriticalCount returns the number of critical violations.
func (s ValidationStatus) CriticalCount() int {
	n := 0
	for _, v := range s.Violations {
		if v.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// ValidationReport aggregates validation across the presentation.
type ValidationReport struct {
	OverallCompliant   bool `json:"overall_compliant"`
	TotalSlides        int  `json:"total_slides"`
	CompliantSlides    int  `json:"compliant_slides"`
	TotalViolations    int  `json:"total_violations"`
	CriticalViolations int  `json:"critical_violations"`
}

// EnrichedSlide is the terminal output unit for one slide.
type EnrichedSlide struct {
	OriginalSlide    Slide            `json:"original_slide"`
	SlideID          string           `json:"slide_id"`
	LayoutID         string           `json:"layout_id"`
	GeneratedContent Content          `json:"generated_content"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	Errors           []ItemError      `json:"errors"`
}

// GenerationFailure is one entry of the presentation-wide failure list.
type GenerationFailure struct {
	SlideID     string      `json:"slide"`
	SlideNumber int         `json:"slide_number"`
	Type        ServiceType `json:"type"`
	Error       string      `json:"error"`
}

// GenerationMetadata describes how a run went.
type GenerationMetadata struct {
	RunID                 string              `json:"run_id"`
	TotalItemsGenerated   int                 `json:"total_items_generated"`
	SuccessfulItems       int                 `json:"successful_items"`
	FailedItems           int                 `json:"failed_items"`
	TotalRequests         int                 `json:"total_api_requests"`
	GenerationTime        time.Duration       `json:"-"`
	GenerationTimeSeconds float64             `json:"generation_time_seconds"`
	Timestamp             time.Time           `json:"timestamp"`
	Failures              []GenerationFailure `json:"failures"`
	OrchestratorVersion   string              `json:"orchestrator_version"`
	Architecture          string              `json:"architecture"`
}

// EnrichedPresentation is the document returned by an enrichment run.
type EnrichedPresentation struct {
	OriginalOutline    Outline            `json:"original_strawman"`
	EnrichedSlides     []EnrichedSlide    `json:"enriched_slides"`
	ValidationReport   ValidationReport   `json:"validation_report"`
	GenerationMetadata GenerationMetadata `json:"generation_metadata"`
}
