package extract

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-crawl-books/models"
)

// Instruction builds the system prompt for the extraction call. It
// pins the reply to a JSON array over the given fields and states the
// defaults for values the page does not show.
func Instruction(required []string) string {
	types := models.FieldTypes()

	var b strings.Builder
	b.WriteString("You will receive an HTML fragment containing several book listings. ")
	b.WriteString("Output only a JSON array with one object per book, following the schema below. ")
	b.WriteString("Do not add explanations, code fences or extra fields. ")
	b.WriteString("When a field is missing on the page use its default: rating 0.0, reviews 0, empty string for text fields.\n\n")

	b.WriteString("Schema fields:\n")
	for _, field := range required {
		fieldType := types[field]
		if fieldType == "" {
			fieldType = "string"
		}
		fmt.Fprintf(&b, "  %s: %s\n", field, fieldType)
	}

	b.WriteString("\nExample output:\n")
	b.WriteString(`[{"name":"Example Title","author":"An Author","publisher":"A Press","pub_date":"2024-01","rating":4.5,"reviews":120,"description":"One-line summary."}]`)
	return b.String()
}
