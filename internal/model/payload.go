// internal/model/payload.go
package model

import (
	"encoding/json"
	"fmt"
	"strings"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
)

// Payload holds the kind-specific fields of an operation.
type Payload interface {
	Kind() Kind
}

type EmailPayload struct {
	Subject        string              `json:"subject"`
	Preheader      string              `json:"preheader"`
	Body           string              `json:"body"`
	LocalizedLinks map[Language]string `json:"localized_links,omitempty"`
}

func (*EmailPayload) Kind() Kind { return KindEmail }

// LocalizedLink is one populated language link.
type LocalizedLink struct {
	Language Language
	URL      string
}

// Links returns the populated localized links in canonical language order.
func (p *EmailPayload) Links() []LocalizedLink {
	var links []LocalizedLink
	for _, lang := range Languages {
		if url := strings.TrimSpace(p.LocalizedLinks[lang]); url != "" {
			links = append(links, LocalizedLink{Language: lang, URL: url})
		}
	}
	return links
}

type SliderPayload struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	ButtonText string `json:"button_text"`
	ButtonLink string `json:"button_link"`
	ImageURL   string `json:"image_url"`
	Placement  string `json:"placement"`
}

func (*SliderPayload) Kind() Kind { return KindSlider }

const DefaultPlacement = "homepage"

type SocialPayload struct {
	Network  string `json:"network"`
	PostText string `json:"post_text"`
	PostLink string `json:"post_link"`
}

func (*SocialPayload) Kind() Kind { return KindSocial }

// DefaultPayload is the empty payload a new operation of kind k starts with.
func DefaultPayload(k Kind) Payload {
	switch k {
	case KindEmail:
		return &EmailPayload{}
	case KindSlider:
		return &SliderPayload{Placement: DefaultPlacement}
	case KindSocial:
		return &SocialPayload{}
	}
	return nil
}

// DecodePayload decodes raw JSON into the payload type matching k.
// Empty input yields the default payload.
func DecodePayload(k Kind, raw []byte) (Payload, error) {
	p := DefaultPayload(k)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", appErrors.ErrUnknownKind, k)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	return p, nil
}
