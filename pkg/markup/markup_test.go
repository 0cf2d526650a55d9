package markup

import "testing"

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "hello", want: "hello"},
		{name: "bold", in: "**bold**", want: "<strong>bold</strong>"},
		{name: "italic", in: "*italic*", want: "<em>italic</em>"},
		{name: "code", in: "`x := 1`", want: "<code>x := 1</code>"},
		{name: "newline", in: "a\nb", want: "a<br>b"},
		{
			name: "bold and italic",
			in:   "**bold** and *italic*",
			want: "<strong>bold</strong> and <em>italic</em>",
		},
		{
			name: "italic nested in bold",
			in:   "**a*b*c**",
			want: "<strong>a<em>b</em>c</strong>",
		},
		{
			name: "multiple bold spans",
			in:   "**a** plus **b**",
			want: "<strong>a</strong> plus <strong>b</strong>",
		},
		{name: "unclosed bold is left alone", in: "**open", want: "**open"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.in); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	got := Render("<script>alert(1)</script>")
	if got != "&lt;script&gt;alert(1)&lt;/script&gt;" {
		t.Errorf("Render() = %q, expected input to be escaped", got)
	}
}

func TestRenderEscapeDoesNotBreakMarkers(t *testing.T) {
	// Escaping runs before the substitutions; formatting still applies.
	got := Render("**a & b**")
	want := "<strong>a &amp; b</strong>"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderPartialThenCompleteBuffer(t *testing.T) {
	// A marker opened in an earlier chunk completes once the closing
	// marker arrives and the full buffer is re-rendered.
	partial := Render("**bo")
	if partial != "**bo" {
		t.Errorf("partial buffer = %q, want %q", partial, "**bo")
	}
	complete := Render("**bold**")
	if complete != "<strong>bold</strong>" {
		t.Errorf("complete buffer = %q, want %q", complete, "<strong>bold</strong>")
	}
}
