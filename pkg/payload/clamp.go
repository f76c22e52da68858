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

// Presentational numeric options are clamped to their valid range, never
// rejected.
const (
	minDuration     = 3
	maxDuration     = 120
	defaultDuration = 6

	minVolumePercent = 0
	maxVolumePercent = 200

	minAutoHide = 5
	maxAutoHide = 300
)

// ClampChannel clamps one color channel to 0..255.
func ClampChannel(v int) int {
	if v < 0 {
		return 0
	}

	if v > 255 {
		return 255
	}

	return v
}

// ClampDuration clamps a notification display duration to 3..120s.
func ClampDuration(seconds int) int {
	if seconds < minDuration {
		return minDuration
	}

	if seconds > maxDuration {
		return maxDuration
	}

	return seconds
}

// ClampVolumePercent clamps a sound volume override to 0..200.
func ClampVolumePercent(pct int) int {
	if pct < minVolumePercent {
		return minVolumePercent
	}

	if pct > maxVolumePercent {
		return maxVolumePercent
	}

	return pct
}

// ClampAutoHide clamps an overlay auto-hide delay. Zero means "never
// auto-hide" and stays zero; anything else lands in 5..300s.
func ClampAutoHide(seconds int) int {
	if seconds == 0 {
		return 0
	}

	if seconds < minAutoHide {
		return minAutoHide
	}

	if seconds > maxAutoHide {
		return maxAutoHide
	}

	return seconds
}
