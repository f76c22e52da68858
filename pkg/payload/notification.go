/*
 * Copyright 2025 QuickBars.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package payload

import (
	"context"
	"net/url"
	"strings"
)

const iconifyBase = "https://api.iconify.design/"

// NotificationAction is one tappable button on a notification overlay.
type NotificationAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Notification describes a notification overlay before normalization.
// Color, Image and Sound accept the raw shapes the operator layer
// passes through (strings, triples, mappings); Build normalizes them.
type Notification struct {
	Title              string
	Message            string
	Actions            []NotificationAction
	DurationSeconds    int
	Position           string
	Color              any
	Transparency       string
	Interrupt          bool
	Image              any
	Sound              any
	SoundVolumePercent *int
	MDIIcon            string
}

// Build assembles the notify request payload, clamping numeric options,
// normalizing the color, and resolving media references to absolute
// URLs. Empty fields are omitted from the payload entirely.
func (n *Notification) Build(ctx context.Context, deps ResolverDeps) (map[string]any, error) {
	note := map[string]any{
		"message":  n.Message,
		"duration": clampOrDefaultDuration(n.DurationSeconds),
	}

	if n.Title != "" {
		note["title"] = n.Title
	}

	if len(n.Actions) > 0 {
		note["actions"] = n.Actions
	}

	if n.Position != "" {
		note["position"] = n.Position
	}

	if color, ok := NormalizeColor(n.Color); ok {
		note["color"] = color
	}

	if n.Transparency != "" {
		note["transparency"] = n.Transparency
	}

	if n.Interrupt {
		note["interrupt"] = true
	}

	if ref, ok := ParseMediaRef(n.Image); ok {
		imageURL, err := ResolveMediaURL(ctx, ref, deps)
		if err != nil {
			return nil, err
		}

		note["image_url"] = imageURL
	}

	if ref, ok := ParseMediaRef(n.Sound); ok {
		soundURL, err := ResolveMediaURL(ctx, ref, deps)
		if err != nil {
			return nil, err
		}

		note["sound_url"] = soundURL
	}

	if n.SoundVolumePercent != nil {
		note["sound_volume_percent"] = ClampVolumePercent(*n.SoundVolumePercent)
	}

	if icon := strings.TrimSpace(n.MDIIcon); icon != "" {
		note["icon_url"] = iconifyBase + url.PathEscape(icon) + ".svg"
	}

	return note, nil
}

func clampOrDefaultDuration(seconds int) int {
	if seconds == 0 {
		return defaultDuration
	}

	return ClampDuration(seconds)
}
