// Package validate checks mapped slide content against layout constraints.
//
// A character or array limit is only a critical violation once the value
// exceeds the threshold times the limit. Smaller overruns are logged and
// otherwise ignored.
package validate

import (
	"fmt"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"go.uber.org/zap"
)

// DefaultThreshold is the multiple of a limit above which an overrun
// becomes critical.
const DefaultThreshold = 2.0

// Validator runs the required-field, character-limit and array-limit
// checks. It performs no I/O and is safe for concurrent use.
type Validator struct {
	threshold float64
	logger    *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithThreshold overrides DefaultThreshold. Values below 1 are ignored.
func WithThreshold(t float64) Option {
	return func(v *Validator) {
		if t >= 1 {
			v.threshold = t
		}
	}
}

// WithLogger sets the logger that receives overrun warnings.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		threshold: DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Threshold returns the configured overrun multiple.
func (v *Validator) Threshold() float64 { return v.threshold }

// ValidateSlide checks content against constraints. The slide is compliant
// iff no critical violation was found.
func (v *Validator) ValidateSlide(slideID string, content deck.Content, c deck.LayoutConstraints) deck.ValidationStatus {
	log := v.logger.With(zap.String("slide_id", slideID))

	violations := []deck.ValidationViolation{}
	violations = append(violations, checkRequired(log, content, c.RequiredFields)...)
	violations = append(violations, v.checkLimits(log, content, c.CharacterLimits, deck.ConstraintCharacterLimit, stringLen, "≤%d")...)
	violations = append(violations, v.checkLimits(log, content, c.ArrayLimits, deck.ConstraintArrayLimit, sliceLen, "≤%d items")...)

	status := deck.ValidationStatus{Violations: violations}
	status.Compliant = status.CriticalCount() == 0
	return status
}

// ValidateBatch validates the content of every assigned slide. A slide with
// no content is validated as an empty mapping.
func (v *Validator) ValidateBatch(contents map[string]deck.Content, assignments []deck.LayoutAssignment) map[string]deck.ValidationStatus {
	out := make(map[string]deck.ValidationStatus, len(assignments))
	for _, a := range assignments {
		content := contents[a.SlideID]
		if content == nil {
			content = deck.Content{}
		}
		out[a.SlideID] = v.ValidateSlide(a.SlideID, content, a.Constraints)
	}
	return out
}

// QuickValidate reports whether every required field is present.
func QuickValidate(content deck.Content, c deck.LayoutConstraints) bool {
	for _, field := range c.RequiredFields {
		if isMissing(content, field) {
			return false
		}
	}
	return true
}

func checkRequired(log *zap.Logger, content deck.Content, fields []string) []deck.ValidationViolation {
	var out []deck.ValidationViolation
	for _, field := range fields {
		if !isMissing(content, field) {
			continue
		}
		log.Warn("required field missing", zap.String("field", field))
		out = append(out, deck.ValidationViolation{
			Field:      field,
			Constraint: deck.ConstraintRequired,
			Expected:   "present",
			Actual:     "missing",
			Severity:   deck.SeverityCritical,
		})
	}
	return out
}

// measure returns the size of a value and whether the check applies to it.
type measure func(value any) (int, bool)

func (v *Validator) checkLimits(log *zap.Logger, content deck.Content, limits map[string]int, kind string, size measure, expected string) []deck.ValidationViolation {
	var out []deck.ValidationViolation
	for _, field := range sortedKeys(limits) {
		limit := limits[field]
		n, ok := size(content[field])
		if !ok {
			continue
		}
		switch {
		case float64(n) > float64(limit)*v.threshold:
			log.Error("critical limit overrun",
				zap.String("field", field),
				zap.String("constraint", kind),
				zap.Int("actual", n),
				zap.Int("limit", limit),
				zap.Float64("threshold", v.threshold),
			)
			out = append(out, deck.ValidationViolation{
				Field:      field,
				Constraint: kind,
				Expected:   fmt.Sprintf(expected, limit),
				Actual:     n,
				Severity:   deck.SeverityCritical,
			})
		case n > limit:
			log.Warn("limit exceeded within tolerance",
				zap.String("field", field),
				zap.String("constraint", kind),
				zap.Int("actual", n),
				zap.Int("limit", limit),
			)
		}
	}
	return out
}

func stringLen(value any) (int, bool) {
	s, ok := value.(string)
	if !ok {
		return 0, false
	}
	return utf8.RuneCountInString(s), true
}

func sliceLen(value any) (int, bool) {
	if value == nil {
		return 0, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, false
	}
	return rv.Len(), true
}

// isMissing reports whether field is absent from content or holds nil,
// including a typed nil pointer, map, slice or interface.
func isMissing(content deck.Content, field string) bool {
	value, ok := content[field]
	if !ok || value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
