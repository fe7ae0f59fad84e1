package toast

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

func TestRenderer_Render_Empty(t *testing.T) {
	renderer := New(styles.New())

	result := renderer.Render([]Toast{}, 80)

	assert.Equal(t, "", result, "Empty toast list should return empty string")
}

func TestRenderer_Render_SingleToast(t *testing.T) {
	renderer := New(styles.New())

	toasts := []Toast{
		{
			Level:   Info,
			Message: "Profile saved",
			Expires: time.Now().Add(5 * time.Second),
		},
	}

	result := renderer.Render(toasts, 80)

	assert.NotEmpty(t, result, "Should render toast")
	assert.Contains(t, result, "Profile saved", "Should contain toast message")
}

func TestRenderer_Render_MultipleToasts(t *testing.T) {
	renderer := New(styles.New())

	toasts := []Toast{
		{Level: Info, Message: "First toast", Expires: time.Now().Add(5 * time.Second)},
		{Level: Success, Message: "Second toast", Expires: time.Now().Add(5 * time.Second)},
		{Level: Error, Message: "Third toast", Expires: time.Now().Add(5 * time.Second)},
	}

	result := renderer.Render(toasts, 80)

	assert.NotEmpty(t, result, "Should render toasts")
	assert.Contains(t, result, "First toast")
	assert.Contains(t, result, "Second toast")
	assert.Contains(t, result, "Third toast")

	lines := strings.Split(result, "\n")
	assert.Greater(t, len(lines), 1, "Multiple toasts should create multiple lines")
}

func TestRenderer_Render_DifferentLevels(t *testing.T) {
	renderer := New(styles.New())

	tests := []struct {
		name  string
		level Level
	}{
		{"Info", Info},
		{"Success", Success},
		{"Warning", Warning},
		{"Error", Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toasts := []Toast{
				{Level: tt.level, Message: "Test " + tt.name, Expires: time.Now().Add(5 * time.Second)},
			}

			result := renderer.Render(toasts, 80)

			assert.NotEmpty(t, result, "Should render toast for level %s", tt.name)
			assert.Contains(t, result, "Test "+tt.name, "Should contain toast message")
		})
	}
}

func TestPrune(t *testing.T) {
	now := time.Now()

	toasts := []Toast{
		{Level: Info, Message: "stale", Expires: now.Add(-time.Second)},
		{Level: Success, Message: "fresh", Expires: now.Add(time.Second)},
	}

	alive := Prune(toasts, now)

	assert.Len(t, alive, 1)
	assert.Equal(t, "fresh", alive[0].Message)
}
