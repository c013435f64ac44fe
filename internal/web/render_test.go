package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	out := string(renderMarkdown("# Heading\n\nsome **bold** text"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRenderMarkdownSanitizesHTML(t *testing.T) {
	out := string(renderMarkdown("hello <script>alert('x')</script> world"))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestRendererKnowsAllPages(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, name := range []string{
		"landing.html",
		"done.html",
		"error.html",
		"auth/login.html",
		"auth/register.html",
		"notes/list.html",
		"notes/form.html",
		"notes/view.html",
	} {
		_, ok := r.templates[name]
		assert.True(t, ok, "missing template %s", name)
	}
}
