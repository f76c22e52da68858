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

var (
	overlayPositions = map[string]struct{}{
		"top_left": {}, "top_right": {}, "bottom_left": {}, "bottom_right": {},
	}

	overlaySizes = map[string]struct{}{
		"small": {}, "medium": {}, "large": {},
	}
)

// SizePx is an explicit overlay size in pixels.
type SizePx struct {
	W int `json:"w"`
	H int `json:"h"`
}

// CameraOverlay describes a camera overlay open event before
// normalization. The camera stream itself is resolved on the companion
// app from the alias or entity id.
type CameraOverlay struct {
	Alias           string
	Entity          string
	Position        string
	Size            string
	SizePx          *SizePx
	AutoHideSeconds *int
	ShowTitle       *bool
}

// Build assembles the open-event payload. Unknown positions and sizes
// are dropped, not errored; a named size wins over explicit pixels.
func (o *CameraOverlay) Build() map[string]any {
	data := make(map[string]any)

	if o.Alias != "" {
		data["camera_alias"] = o.Alias
	}

	if o.Entity != "" {
		data["camera_entity"] = o.Entity
	}

	if _, ok := overlayPositions[o.Position]; ok {
		data["position"] = o.Position
	}

	if _, ok := overlaySizes[o.Size]; ok {
		data["size"] = o.Size
	} else if o.SizePx != nil && o.SizePx.W > 0 && o.SizePx.H > 0 {
		data["size_px"] = o.SizePx
	}

	if o.AutoHideSeconds != nil {
		data["auto_hide"] = ClampAutoHide(*o.AutoHideSeconds)
	}

	if o.ShowTitle != nil {
		data["show_title"] = *o.ShowTitle
	}

	return data
}
