package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetActive(t *testing.T) {
	t.Cleanup(func() { Active = FlexokiDark })

	assert.True(t, SetActive("neo-brutal"))
	assert.Equal(t, "neo-brutal", Active.Name)
	assert.Equal(t, "┃", Active.Frame.Left)

	assert.False(t, SetActive("solarized"))
	assert.Equal(t, "flexoki-dark", Active.Name)
}

func TestNamesMatchAll(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(All))
	for _, n := range names {
		th, ok := ByName(n)
		assert.True(t, ok, n)
		assert.NotEmpty(t, th.Accent, n)
	}
}
