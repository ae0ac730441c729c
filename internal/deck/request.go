package deck

// ServiceType identifies one of the generation services.
type ServiceType string

const (
	ServiceText    ServiceType = "text"
	ServiceChart   ServiceType = "chart"
	ServiceImage   ServiceType = "image"
	ServiceDiagram ServiceType = "diagram"
)

// ServiceTypes lists the services in their stable dispatch order.
var ServiceTypes = []ServiceType{ServiceText, ServiceChart, ServiceImage, ServiceDiagram}

// SlideRef links a request back to the slide it was built for.
type SlideRef struct {
	SlideID     string `json:"slide_id"`
	SlideNumber int    `json:"slide_number"`
}

// Ref returns the slide linkage itself; it lets generic code read the
// linkage from any request type.
func (r SlideRef) Ref() SlideRef { return r }

// Dimensions is the requested output size of a chart or image.
type Dimensions struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// TextRequest asks the text service for slide copy.
type TextRequest struct {
	SlideRef
	Topics        []string            `json:"topics"`
	Narrative     string              `json:"narrative"`
	SlideTitle    string              `json:"slide_title"`
	MaxCharacters int                 `json:"max_characters,omitempty"` // 0 means unbounded
	Style         string              `json:"style"`
	Tone          string              `json:"tone"`
	Context       PresentationContext `json:"context"`
}

// ChartRequest asks the chart service for a chart.
type ChartRequest struct {
	SlideRef
	Goal       string              `json:"goal"`
	Content    string              `json:"content"`
	Style      string              `json:"style"`
	ChartType  string              `json:"chart_type"`
	Dimensions Dimensions          `json:"dimensions"`
	SlideTitle string              `json:"slide_title"`
	Context    PresentationContext `json:"context"`
}

// ImageRequest asks the image service for an illustration.
type ImageRequest struct {
	SlideRef
	Goal       string              `json:"goal"`
	Content    string              `json:"content"`
	Style      string              `json:"style"`
	Dimensions Dimensions          `json:"dimensions"`
	SlideTitle string              `json:"slide_title"`
	Context    PresentationContext `json:"context"`
}

// DiagramRequest asks the diagram service for a diagram.
type DiagramRequest struct {
	SlideRef
	Goal        string              `json:"goal"`
	Content     string              `json:"content"`
	Style       string              `json:"style"`
	DiagramType string              `json:"diagram_type"`
	SlideTitle  string              `json:"slide_title"`
	Context     PresentationContext `json:"context"`
}

// RequestSet groups requests by service type.
type RequestSet struct {
	Text    []TextRequest    `json:"text,omitempty"`
	Chart   []ChartRequest   `json:"chart,omitempty"`
	Image   []ImageRequest   `json:"image,omitempty"`
	Diagram []DiagramRequest `json:"diagram,omitempty"`
}

// Len returns the total number of requests across all services.
func (rs RequestSet) Len() int {
	return len(rs.Text) + len(rs.Chart) + len(rs.Image) + len(rs.Diagram)
}

// Count returns the number of requests for a single service.
func (rs RequestSet) Count(t ServiceType) int {
	switch t {
	case ServiceText:
		return len(rs.Text)
	case ServiceChart:
		return len(rs.Chart)
	case ServiceImage:
		return len(rs.Image)
	case ServiceDiagram:
		return len(rs.Diagram)
	}
	return 0
}

// Merge appends every request of other to rs, preserving order.
func (rs *RequestSet) Merge(other RequestSet) {
	rs.Text = append(rs.Text, other.Text...)
	rs.Chart = append(rs.Chart, other.Chart...)
	rs.Image = append(rs.Image, other.Image...)
	rs.Diagram = append(rs.Diagram, other.Diagram...)
}
