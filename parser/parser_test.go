package parser

import (
	"testing"

	"github.com/aluiziolira/go-crawl-books/models"
)

func fullCandidate() models.Candidate {
	return models.Candidate{
		"name":        "The Three-Body Problem",
		"author":      "Liu Cixin",
		"publisher":   "Chongqing Press",
		"pub_date":    "2008-1",
		"rating":      8.9,
		"reviews":     425931.0,
		"description": "First contact with the Trisolarans.",
	}
}

func TestIsComplete(t *testing.T) {
	required := models.RequiredFields()

	tests := []struct {
		name      string
		candidate func() models.Candidate
		want      bool
	}{
		{
			name:      "all fields present",
			candidate: fullCandidate,
			want:      true,
		},
		{
			name: "missing key",
			candidate: func() models.Candidate {
				c := fullCandidate()
				delete(c, "publisher")
				return c
			},
			want: false,
		},
		{
			name: "nil value",
			candidate: func() models.Candidate {
				c := fullCandidate()
				c["author"] = nil
				return c
			},
			want: false,
		},
		{
			name: "empty string value",
			candidate: func() models.Candidate {
				c := fullCandidate()
				c["description"] = ""
				return c
			},
			want: false,
		},
		{
			name: "zero rating is legitimate",
			candidate: func() models.Candidate {
				c := fullCandidate()
				c["rating"] = 0.0
				return c
			},
			want: true,
		},
		{
			name: "zero reviews is legitimate",
			candidate: func() models.Candidate {
				c := fullCandidate()
				c["reviews"] = 0.0
				return c
			},
			want: true,
		},
		{
			name: "numeric string zero is non-empty",
			candidate: func() models.Candidate {
				c := fullCandidate()
				c["reviews"] = "0"
				return c
			},
			want: true,
		},
		{
			name: "whitespace-only string is non-empty",
			candidate: func() models.Candidate {
				c := fullCandidate()
				c["pub_date"] = " "
				return c
			},
			want: true,
		},
		{
			name: "extra fields are tolerated",
			candidate: func() models.Candidate {
				c := fullCandidate()
				c["isbn"] = "9787536692930"
				return c
			},
			want: true,
		},
		{
			name: "nil candidate",
			candidate: func() models.Candidate {
				return nil
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsComplete(tt.candidate(), required)
			if got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCompleteChecksOnlyListedFields(t *testing.T) {
	c := models.Candidate{"name": "Solaris"}
	if !IsComplete(c, []string{"name"}) {
		t.Errorf("IsComplete() = false, want true when only listed fields are required")
	}
	if IsComplete(c, []string{"name", "author"}) {
		t.Errorf("IsComplete() = true, want false when a listed field is absent")
	}
}

func TestBookFromCandidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate models.Candidate
		want      models.Book
	}{
		{
			name:      "typed values",
			candidate: fullCandidate(),
			want: models.Book{
				Name:        "The Three-Body Problem",
				Author:      "Liu Cixin",
				Publisher:   "Chongqing Press",
				PubDate:     "2008-1",
				Rating:      8.9,
				Reviews:     425931,
				Description: "First contact with the Trisolarans.",
			},
		},
		{
			name: "numeric strings are coerced",
			candidate: models.Candidate{
				"name":        "Dune",
				"author":      "Frank Herbert",
				"publisher":   "Chilton Books",
				"pub_date":    "1965-08",
				"rating":      "4.6",
				"reviews":     "12840",
				"description": "Arrakis.",
			},
			want: models.Book{
				Name:        "Dune",
				Author:      "Frank Herbert",
				Publisher:   "Chilton Books",
				PubDate:     "1965-08",
				Rating:      4.6,
				Reviews:     12840,
				Description: "Arrakis.",
			},
		},
		{
			name: "unparsable numerics fall back to defaults",
			candidate: models.Candidate{
				"name":        "Hyperion",
				"author":      "Dan Simmons",
				"publisher":   "Doubleday",
				"pub_date":    "1989",
				"rating":      "n/a",
				"reviews":     "none",
				"description": "The Shrike.",
			},
			want: models.Book{
				Name:        "Hyperion",
				Author:      "Dan Simmons",
				Publisher:   "Doubleday",
				PubDate:     "1989",
				Rating:      0.0,
				Reviews:     0,
				Description: "The Shrike.",
			},
		},
		{
			name: "fractional review counts truncate",
			candidate: models.Candidate{
				"name":    "Foundation",
				"reviews": "99.9",
			},
			want: models.Book{
				Name:    "Foundation",
				Reviews: 99,
			},
		},
		{
			name: "numeric name renders as string",
			candidate: models.Candidate{
				"name": 1984.0,
			},
			want: models.Book{
				Name: "1984",
			},
		},
		{
			name:      "missing fields become zero values",
			candidate: models.Candidate{},
			want:      models.Book{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BookFromCandidate(tt.candidate)
			if *got != tt.want {
				t.Errorf("BookFromCandidate() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
