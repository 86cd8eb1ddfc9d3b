package content

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harborview/sitekit/internal/log"
)

// Section kinds stored in the page sections JSON column.
const (
	SectionHero        = "hero"
	SectionFeatureGrid = "feature-grid"
	SectionTestimonial = "testimonial"
	SectionCTA         = "cta"
	SectionMarkdown    = "markdown"
)

// ErrUnknownSection is returned when a section envelope names a type this
// build does not understand.
var ErrUnknownSection = fmt.Errorf("unknown section type")

// Section is one typed block of a page. Exactly one of the pointer fields is
// set, matching Type.
type Section struct {
	Type        string       `json:"type"`
	Hero        *Hero        `json:"hero,omitempty"`
	FeatureGrid *FeatureGrid `json:"featureGrid,omitempty"`
	Testimonial *Testimonial `json:"testimonial,omitempty"`
	CTA         *CTA         `json:"cta,omitempty"`
	Markdown    *Markdown    `json:"markdown,omitempty"`
}

// Hero is a large banner with a headline and optional call to action.
type Hero struct {
	Headline   string `json:"headline"`
	Subheading string `json:"subheading,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	CTALabel   string `json:"ctaLabel,omitempty"`
	CTAHref    string `json:"ctaHref,omitempty"`
}

// Feature is one cell of a feature grid.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// FeatureGrid lays out features in columns.
type FeatureGrid struct {
	Heading  string    `json:"heading,omitempty"`
	Columns  int       `json:"columns,omitempty"`
	Features []Feature `json:"features"`
}

// Testimonial is a quote with attribution.
type Testimonial struct {
	Quote     string `json:"quote"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// CTA is a standalone call-to-action band.
type CTA struct {
	Heading string `json:"heading"`
	Label   string `json:"label"`
	Href    string `json:"href"`
}

// Markdown is free-form rendered markdown.
type Markdown struct {
	Body string `json:"body"`
}

// sectionEnvelope is the stored wire shape. The discriminator lives alongside
// the payload fields rather than nesting them.
type sectionEnvelope struct {
	Type string `json:"type"`
}

// UnmarshalJSON decodes a section envelope by its type discriminator.
func (s *Section) UnmarshalJSON(data []byte) error {
	var env sectionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Type == "" {
		return fmt.Errorf("section missing type")
	}
	s.Type = env.Type

	switch env.Type {
	case SectionHero:
		s.Hero = &Hero{}
		return json.Unmarshal(data, s.Hero)
	case SectionFeatureGrid:
		s.FeatureGrid = &FeatureGrid{}
		return json.Unmarshal(data, s.FeatureGrid)
	case SectionTestimonial:
		s.Testimonial = &Testimonial{}
		return json.Unmarshal(data, s.Testimonial)
	case SectionCTA:
		s.CTA = &CTA{}
		return json.Unmarshal(data, s.CTA)
	case SectionMarkdown:
		s.Markdown = &Markdown{}
		return json.Unmarshal(data, s.Markdown)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, env.Type)
	}
}

// MarshalJSON flattens the active payload next to the type discriminator.
func (s Section) MarshalJSON() ([]byte, error) {
	var payload any
	switch s.Type {
	case SectionHero:
		payload = s.Hero
	case SectionFeatureGrid:
		payload = s.FeatureGrid
	case SectionTestimonial:
		payload = s.Testimonial
	case SectionCTA:
		payload = s.CTA
	case SectionMarkdown:
		payload = s.Markdown
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, s.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["type"] = s.Type
	return json.Marshal(m)
}

// DecodeSections parses a stored sections array. Sections with unknown types
// are logged and skipped so new CMS block kinds never break rendering of the
// rest of the page.
func DecodeSections(data []byte) ([]Section, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}

	out := make([]Section, 0, len(raws))
	for i, raw := range raws {
		var s Section
		if err := json.Unmarshal(raw, &s); err != nil {
			if errors.Is(err, ErrUnknownSection) {
				log.Warn("skipping unknown section type",
					"component", "content",
					"index", i)
				continue
			}
			return nil, fmt.Errorf("parse section %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
