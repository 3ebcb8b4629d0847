// Package models defines the data structures shared across the crawler.
package models

// Book is the typed form of a catalog record after validation.
// Field order matches the catalog schema and the output column order.
type Book struct {
	Name        string  `csv:"name" json:"name"`
	Author      string  `csv:"author" json:"author"`
	Publisher   string  `csv:"publisher" json:"publisher"`
	PubDate     string  `csv:"pub_date" json:"pub_date"`
	Rating      float64 `csv:"rating" json:"rating"`
	Reviews     int     `csv:"reviews" json:"reviews"`
	Description string  `csv:"description" json:"description"`
}

// RequiredFields lists the schema fields a candidate must carry to be
// accepted, in schema order.
func RequiredFields() []string {
	return []string{"name", "author", "publisher", "pub_date", "rating", "reviews", "description"}
}

// FieldTypes maps each schema field to its declared type. Fields not
// listed are strings.
func FieldTypes() map[string]string {
	return map[string]string{
		"rating":  "number",
		"reviews": "integer",
	}
}
