package payload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationBuild(t *testing.T) {
	t.Parallel()

	deps := ResolverDeps{BaseURL: "http://hub.local:8123"}

	t.Run("full notification", func(t *testing.T) {
		t.Parallel()

		volume := 250

		n := Notification{
			Title:              "Doorbell",
			Message:            "Someone is at the door",
			Actions:            []NotificationAction{{ID: "open", Label: "Open"}},
			DurationSeconds:    500,
			Position:           "top_right",
			Color:              []int{300, -5, 128},
			Transparency:       "25%",
			Interrupt:          true,
			Image:              "/local/snapshots/door.jpg",
			Sound:              "https://cdn/ding.mp3",
			SoundVolumePercent: &volume,
			MDIIcon:            "mdi:doorbell",
		}

		note, err := n.Build(context.Background(), deps)
		require.NoError(t, err)

		assert.Equal(t, "Doorbell", note["title"])
		assert.Equal(t, "Someone is at the door", note["message"])
		assert.Equal(t, 120, note["duration"])
		assert.Equal(t, "top_right", note["position"])
		assert.Equal(t, "#ff0080", note["color"])
		assert.Equal(t, "25%", note["transparency"])
		assert.Equal(t, true, note["interrupt"])
		assert.Equal(t, "http://hub.local:8123/local/snapshots/door.jpg", note["image_url"])
		assert.Equal(t, "https://cdn/ding.mp3", note["sound_url"])
		assert.Equal(t, 200, note["sound_volume_percent"])
		assert.Equal(t, "https://api.iconify.design/mdi:doorbell.svg", note["icon_url"])
	})

	t.Run("minimal notification", func(t *testing.T) {
		t.Parallel()

		n := Notification{Message: "hi"}

		note, err := n.Build(context.Background(), deps)
		require.NoError(t, err)

		assert.Equal(t, "hi", note["message"])
		assert.Equal(t, 6, note["duration"])

		for _, key := range []string{"title", "actions", "position", "color", "transparency",
			"interrupt", "image_url", "sound_url", "sound_volume_percent", "icon_url"} {
			assert.NotContains(t, note, key)
		}
	})

	t.Run("bad color dropped silently", func(t *testing.T) {
		t.Parallel()

		n := Notification{Message: "hi", Color: []int{1, 2}}

		note, err := n.Build(context.Background(), deps)
		require.NoError(t, err)
		assert.NotContains(t, note, "color")
	})

	t.Run("unresolvable image fails the build", func(t *testing.T) {
		t.Parallel()

		n := Notification{Message: "hi", Image: map[string]any{"media_id": "lib-1"}}

		_, err := n.Build(context.Background(), deps)
		assert.Error(t, err)
	})
}
