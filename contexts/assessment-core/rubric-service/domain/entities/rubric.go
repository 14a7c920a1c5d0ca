package entities

import (
	"strings"
	"time"
)

// RubricSection is one scored section of a grading template.
// MaxMarks is always a positive integer; Keywords and ConceptExpectations
// are optional hints forwarded to the grader.
type RubricSection struct {
	Name                string
	Description         string
	MaxMarks            int
	Keywords            string
	ConceptExpectations string
}

type Rubric struct {
	RubricID    string
	TeacherID   string
	Title       string
	Subject     string
	Description string
	Sections    []RubricSection
	TotalMarks  int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SectionTotal sums the section maxima. TotalMarks must always equal this.
func (r Rubric) SectionTotal() int {
	total := 0
	for _, section := range r.Sections {
		total += section.MaxMarks
	}
	return total
}

func (r Rubric) ValidateCreate() bool {
	if strings.TrimSpace(r.TeacherID) == "" ||
		strings.TrimSpace(r.Title) == "" ||
		strings.TrimSpace(r.Subject) == "" {
		return false
	}
	if len(r.Sections) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(r.Sections))
	for _, section := range r.Sections {
		name := strings.TrimSpace(section.Name)
		if name == "" || strings.TrimSpace(section.Description) == "" {
			return false
		}
		if section.MaxMarks < 1 {
			return false
		}
		if _, dup := seen[name]; dup {
			return false
		}
		seen[name] = struct{}{}
	}
	return r.SectionTotal() > 0
}
