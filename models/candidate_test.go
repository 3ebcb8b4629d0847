package models

import "testing"

func TestClearFalseError(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		wantKey   bool
	}{
		{
			name:      "boolean false is stripped",
			candidate: Candidate{"name": "Dune", "error": false},
			wantKey:   false,
		},
		{
			name:      "boolean true is kept",
			candidate: Candidate{"name": "Dune", "error": true},
			wantKey:   true,
		},
		{
			name:      "string false is kept",
			candidate: Candidate{"name": "Dune", "error": "false"},
			wantKey:   true,
		},
		{
			name:      "nil value is kept",
			candidate: Candidate{"name": "Dune", "error": nil},
			wantKey:   true,
		},
		{
			name:      "absent marker is a no-op",
			candidate: Candidate{"name": "Dune"},
			wantKey:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.candidate.ClearFalseError()
			_, ok := tt.candidate["error"]
			if ok != tt.wantKey {
				t.Errorf("error key present = %v, want %v", ok, tt.wantKey)
			}
		})
	}
}

func TestFlagged(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		want      bool
	}{
		{
			name:      "no marker",
			candidate: Candidate{"name": "Dune"},
			want:      false,
		},
		{
			name:      "boolean false means no error",
			candidate: Candidate{"name": "Dune", "error": false},
			want:      false,
		},
		{
			name:      "boolean true",
			candidate: Candidate{"name": "Dune", "error": true},
			want:      true,
		},
		{
			name:      "error message string",
			candidate: Candidate{"name": "Dune", "error": "extraction timed out"},
			want:      true,
		},
		{
			name:      "nil marker is still a signal",
			candidate: Candidate{"name": "Dune", "error": nil},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.candidate.Flagged()
			if got != tt.want {
				t.Errorf("Flagged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidateName(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		want      string
	}{
		{
			name:      "string name",
			candidate: Candidate{"name": "Snow Crash"},
			want:      "Snow Crash",
		},
		{
			name:      "numeric name renders as string",
			candidate: Candidate{"name": 1984.0},
			want:      "1984",
		},
		{
			name:      "missing name",
			candidate: Candidate{},
			want:      "",
		},
		{
			name:      "nil name",
			candidate: Candidate{"name": nil},
			want:      "",
		},
		{
			name:      "nil candidate",
			candidate: nil,
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.candidate.Name()
			if got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}
