package curriculum

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSubject is returned when a subject id is not part of the curriculum.
var ErrUnknownSubject = errors.New("curriculum: unknown subject")

// Subject identifies one of the three SES curriculum tracks.
type Subject string

const (
	Economie         Subject = "economie"
	Sociologie       Subject = "sociologie"
	SciencePolitique Subject = "science-politique"

	// All is the session focus covering every subject. It is never a
	// progress subject.
	All Subject = "all"
)

// Subjects returns the progress subjects in display order.
func Subjects() []Subject {
	return []Subject{Economie, Sociologie, SciencePolitique}
}

// Valid reports whether s is one of the three progress subjects.
func (s Subject) Valid() bool {
	switch s {
	case Economie, Sociologie, SciencePolitique:
		return true
	}
	return false
}

// ValidFocus reports whether s can be the focus of a revision session.
func (s Subject) ValidFocus() bool {
	return s == All || s.Valid()
}

// DisplayName returns the French label shown to students.
func (s Subject) DisplayName() string {
	switch s {
	case Economie:
		return "Économie"
	case Sociologie:
		return "Sociologie"
	case SciencePolitique:
		return "Science politique"
	case All:
		return "Toutes les matières"
	default:
		return string(s)
	}
}

// Parse normalizes a user-supplied subject and validates it as a
// progress subject.
func Parse(raw string) (Subject, error) {
	s := Subject(normalize(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubject, raw)
	}
	return s, nil
}

// ParseFocus is like Parse but also accepts "all".
func ParseFocus(raw string) (Subject, error) {
	s := Subject(normalize(raw))
	if !s.ValidFocus() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubject, raw)
	}
	return s, nil
}

// UnmarshalJSON accepts only known subjects or "all".
func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseFocus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalText lets YAML and flag decoders reuse the same validation.
func (s *Subject) UnmarshalText(text []byte) error {
	parsed, err := ParseFocus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func normalize(raw string) string {
	n := strings.ToLower(strings.TrimSpace(raw))
	n = strings.ReplaceAll(n, "_", "-")
	n = strings.ReplaceAll(n, " ", "-")
	switch n {
	case "économie", "eco":
		return string(Economie)
	case "socio":
		return string(Sociologie)
	case "sciencepo", "science-po", "sp":
		return string(SciencePolitique)
	}
	return n
}
