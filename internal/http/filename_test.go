package http

import "testing"

func TestParseContentDisposition(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", ""},
		{"inline", ""},
		{`attachment; filename="report.pdf"`, "report.pdf"},
		{`attachment; filename=plain.txt`, "plain.txt"},
		{`attachment; filename=plain.txt; size=10`, "plain.txt"},
		{`attachment; filename*=UTF-8''na%C3%AFve%20file.txt`, "naïve file.txt"},
		{`attachment; filename="fallback.txt"; filename*=UTF-8''preferred.txt`, "preferred.txt"},
		{`attachment; FILENAME="upper.png"`, "upper.png"},
		{`attachment; filename="a:b.png"`, "a_b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := ParseContentDisposition(tt.value); got != tt.want {
				t.Errorf("ParseContentDisposition(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestInferFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://a/x.png", "x.png"},
		{"https://a/img/x%20y.png?w=100#top", "x y.png"},
		{"https://a/dir/", "dir"},
		{"https://a/", ""},
		{"https://a", ""},
		{"https://a/a%3Ab.png", "a_b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := InferFileName(tt.url); got != tt.want {
				t.Errorf("InferFileName(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
