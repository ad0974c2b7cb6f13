package transcription

import "strings"

// Request asks a backend for the text of one clip.
type Request struct {
	AudioPath string `json:"audio_path"`
	Language  string `json:"language,omitempty"` // BCP-47, "ja" by default
	Model     string `json:"model,omitempty"`    // overrides the backend's model
}

// Response is a backend's answer. Duration is in seconds and may be zero
// when the backend does not report it.
type Response struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Language string    `json:"language,omitempty"`
}

// Segment is a time-aligned piece of the text, in seconds from clip start.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the trimmed text. Backends that only fill segments get
// them joined. A nil response has no text.
func (r *Response) Transcript() string {
	if r == nil {
		return ""
	}
	if text := strings.TrimSpace(r.Text); text != "" {
		return text
	}
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
