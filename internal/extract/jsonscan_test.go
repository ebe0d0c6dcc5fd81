package extract

import "testing"

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			in:    `{"a": 1}`,
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "leading prose",
			in:    `Here you go: {"a": 1} enjoy`,
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "nested objects",
			in:    `x {"a": {"b": {"c": 2}}} y`,
			want:  `{"a": {"b": {"c": 2}}}`,
			found: true,
		},
		{
			name:  "brace inside string",
			in:    `{"a": "closing } brace"} tail`,
			want:  `{"a": "closing } brace"}`,
			found: true,
		},
		{
			name:  "escaped quote inside string",
			in:    `{"a": "quote \" and } brace"}`,
			want:  `{"a": "quote \" and } brace"}`,
			found: true,
		},
		{
			name:  "open brace inside string before object",
			in:    `{"q": "use { freely", "b": 1}`,
			want:  `{"q": "use { freely", "b": 1}`,
			found: true,
		},
		{
			name:  "no object",
			in:    "just some prose",
			found: false,
		},
		{
			name:  "unbalanced",
			in:    `{"a": {"b": 1}`,
			found: false,
		},
		{
			name:  "empty input",
			in:    "",
			found: false,
		},
		{
			name:  "first of two objects",
			in:    `{"a": 1} {"b": 2}`,
			want:  `{"a": 1}`,
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := firstJSONObject(tt.in)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
