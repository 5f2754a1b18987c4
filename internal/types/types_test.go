package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJobDescriptionRequirementsDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "string form",
			raw:  `{"id":1,"title":"Backend Engineer","requirements":"Python, AWS, Docker"}`,
			want: "Python, AWS, Docker",
		},
		{
			name: "array form",
			raw:  `{"id":1,"title":"Backend Engineer","requirements":["Python","AWS"]}`,
			want: "Python\nAWS",
		},
		{
			name: "null",
			raw:  `{"id":1,"title":"Backend Engineer","requirements":null}`,
			want: "",
		},
		{
			name: "missing",
			raw:  `{"id":1,"title":"Backend Engineer"}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var jd JobDescription
			if err := json.Unmarshal([]byte(tt.raw), &jd); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if jd.Requirements != tt.want {
				t.Errorf("requirements = %q, want %q", jd.Requirements, tt.want)
			}
			if jd.Title != "Backend Engineer" {
				t.Errorf("sibling fields lost during decode: %+v", jd)
			}
		})
	}
}

func TestJobDescriptionRequirementsMarshalIsString(t *testing.T) {
	data, err := json.Marshal(JobDescription{Title: "Backend Engineer", Requirements: "Go, SQL"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"requirements":"Go, SQL"`) {
		t.Errorf("requirements not marshaled as a plain string: %s", data)
	}
}

func TestCombinedText(t *testing.T) {
	jd := JobDescription{Description: "Build services.", Requirements: "Go\nDocker"}
	if got := jd.CombinedText(); got != "Build services.\nGo\nDocker" {
		t.Errorf("CombinedText() = %q", got)
	}

	empty := JobDescription{Description: "Build services.", Requirements: "  "}
	if got := empty.CombinedText(); got != "Build services." {
		t.Errorf("CombinedText() with blank requirements = %q", got)
	}
}
