package stitch

import (
	"strings"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

const (
	maxInsights    = 6
	summaryRunes   = 200
	sentenceSuffix = "."
)

// MapTitleSlide maps L01: the title plus a generated subtitle and byline.
func MapTitleSlide(slide deck.Slide, r *deck.SlideResults, env Env) deck.Content {
	return deck.Content{
		"main_title":     slide.Title,
		"subtitle":       textOf(r),
		"presenter_name": env.PresenterName,
		"organization":   env.Organization,
		"date":           env.Date,
	}
}

// MapBulletList maps L05. Bullets come from the generated text split into
// sentences, else from the slide's key points.
func MapBulletList(slide deck.Slide, r *deck.SlideResults, _ Env) deck.Content {
	bullets := splitSentences(textOf(r))
	if len(bullets) == 0 {
		bullets = keyPoints(slide)
	}
	return deck.Content{
		"slide_title": slide.Title,
		"subtitle":    slide.Narrative,
		"bullets":     bullets,
	}
}

// MapImageWithText maps L10.
func MapImageWithText(slide deck.Slide, r *deck.SlideResults, env Env) deck.Content {
	url, caption := env.ImageURL, DefaultCaption
	if len(r.Images) > 0 {
		img := r.Images[0]
		if img.URL != "" {
			url = img.URL
		}
		if img.Caption != "" {
			caption = img.Caption
		}
	}
	return deck.Content{
		"slide_title": slide.Title,
		"image_url":   url,
		"caption":     caption,
		"body_text":   textOf(r),
	}
}

// MapChartWithInsights maps L17. Insights prefer generated sentences,
// capped at six, then key points. The summary prefers the narrative, then
// the first 200 characters of generated text.
func MapChartWithInsights(slide deck.Slide, r *deck.SlideResults, env Env) deck.Content {
	url, data := env.ChartURL, map[string]any{}
	if len(r.Charts) > 0 {
		c := r.Charts[0]
		if c.URL != "" {
			url = c.URL
		}
		if c.Data != nil {
			data = c.Data
		}
	}

	text := textOf(r)
	insights := splitSentences(text)
	for i, s := range insights {
		if !strings.HasSuffix(s, sentenceSuffix) {
			insights[i] = s + sentenceSuffix
		}
	}
	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	if len(insights) == 0 {
		insights = keyPoints(slide)
	}

	summary := slide.Narrative
	if summary == "" {
		summary = truncateRunes(text, summaryRunes)
	}

	return deck.Content{
		"slide_title":  slide.Title,
		"subtitle":     slide.Narrative,
		"chart_url":    url,
		"chart_data":   data,
		"key_insights": insights,
		"summary":      summary,
	}
}

// MapGeneric is the fallback for layouts without a dedicated mapper. It
// carries the first result of each kind that was generated.
func MapGeneric(slide deck.Slide, r *deck.SlideResults, _ Env) deck.Content {
	out := deck.Content{
		"slide_title": slide.Title,
		"subtitle":    slide.Narrative,
	}
	if r.Text != nil {
		out["body_text"] = r.Text.Content
	}
	if len(r.Images) > 0 {
		out["image_url"] = r.Images[0].URL
	}
	if len(r.Charts) > 0 {
		out["chart_url"] = r.Charts[0].URL
		data := r.Charts[0].Data
		if data == nil {
			data = map[string]any{}
		}
		out["chart_data"] = data
	}
	if len(r.Diagrams) > 0 {
		out["diagram_url"] = r.Diagrams[0].URL
	}
	if slide.HasKeyPoints() {
		out["bullets"] = keyPoints(slide)
	}
	return out
}

func textOf(r *deck.SlideResults) string {
	if r == nil || r.Text == nil {
		return ""
	}
	return r.Text.Content
}

// splitSentences splits on ". " and drops blank pieces.
func splitSentences(text string) []string {
	out := []string{}
	for _, s := range strings.Split(text, ". ") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func keyPoints(slide deck.Slide) []string {
	out := make([]string, len(slide.KeyPoints))
	copy(out, slide.KeyPoints)
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
