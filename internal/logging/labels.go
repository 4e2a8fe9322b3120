package logging

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StageLabel renders a stage token such as "feature_extraction" as a display
// label such as "Feature Extraction" for console output and tables.
func StageLabel(stage string) string {
	cleaned := strings.TrimSpace(stage)
	if cleaned == "" {
		return ""
	}
	cleaned = strings.NewReplacer("_", " ", "-", " ").Replace(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return cases.Title(language.Und).String(cleaned)
}
