package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	t.Parallel()

	t.Run("escapes markup and quotes", func(t *testing.T) {
		require.Equal(t, "&lt;b&gt;&quot;hi&quot; it&#x27;s&lt;/b&gt;", SanitizeInput(`<b>"hi" it's</b>`))
	})

	t.Run("trims whitespace", func(t *testing.T) {
		require.Equal(t, "Laptop", SanitizeInput("  Laptop \n"))
	})

	t.Run("is idempotent", func(t *testing.T) {
		inputs := []string{
			"plain text",
			`<script>alert("x")</script>`,
			"  O'Reilly  ",
			"a > b && c < d",
			"",
		}
		for _, in := range inputs {
			once := SanitizeInput(in)
			assert.Equal(t, once, SanitizeInput(once), "input %q", in)
		}
	})
}

func TestSanitizeEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "john.doe@example.com", SanitizeEmail("  John.Doe+@Example.com "))
	require.Equal(t, "ab@c.io", SanitizeEmail("a<b>@c.io"))
}

func TestIsEmailShaped(t *testing.T) {
	t.Parallel()

	assert.True(t, IsEmailShaped("a@b.co"))
	assert.False(t, IsEmailShaped("a@b"))
	assert.False(t, IsEmailShaped("a b@c.d"))
	assert.False(t, IsEmailShaped("plain"))
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"email":    " Jane@Example.COM ",
		"name":     " <Jane> ",
		"amount":   12.5,
		"tags":     []any{"<a>", "ok"},
		"profile":  map[string]any{"bio": `"quoted"`},
		"password": " P@ss<word> ",
	}

	out := SanitizeValue(in).(map[string]any)

	assert.Equal(t, "jane@example.com", out["email"])
	assert.Equal(t, "&lt;Jane&gt;", out["name"])
	assert.Equal(t, 12.5, out["amount"])
	assert.Equal(t, []any{"&lt;a&gt;", "ok"}, out["tags"])
	assert.Equal(t, map[string]any{"bio": "&quot;quoted&quot;"}, out["profile"])
	assert.Equal(t, "P@ss&lt;word&gt;", out["password"], "credentials are sanitized like any other string")
	assert.Equal(t, " <Jane> ", in["name"], "input must not be mutated")
}
