package models

import "strconv"

// errorField is the marker key an extraction agent may attach to a
// candidate to report a per-item failure.
const errorField = "error"

// Candidate is one raw item as returned by the extraction agent: an
// unordered field mapping with no type guarantees. A nil Candidate
// stands for a malformed (non-object) item and fails validation like
// any other incomplete candidate.
type Candidate map[string]any

// ClearFalseError removes the error marker when the agent set it to the
// boolean false, meaning "no error". Any other value is left in place.
func (c Candidate) ClearFalseError() {
	if v, ok := c[errorField]; ok {
		if b, isBool := v.(bool); isBool && !b {
			delete(c, errorField)
		}
	}
}

// Flagged reports whether the agent marked this candidate as failed:
// the error key is present with any value other than the boolean false.
func (c Candidate) Flagged() bool {
	v, ok := c[errorField]
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool && !b {
		return false
	}
	return true
}

// Name returns the candidate's identity field rendered as a string.
// Missing or nil names yield "".
func (c Candidate) Name() string {
	switch v := c["name"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
