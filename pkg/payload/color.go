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

// Package payload builds and normalizes the request payloads the bridge
// carries to the companion app. Everything here is a pure transformation.
package payload

import (
	"fmt"
	"strings"
)

// NormalizeColor converts a color given as an (r,g,b) triple, an {r,g,b}
// mapping, or a pre-formatted string into a lowercase #rrggbb string.
// Channels are clamped to 0..255. Unrecognized shapes yield ok=false,
// never an error: a bad color drops the field, nothing else.
func NormalizeColor(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return "", false
		}

		return s, true
	case []int:
		if len(c) != 3 {
			return "", false
		}

		return formatRGB(c[0], c[1], c[2]), true
	case [3]int:
		return formatRGB(c[0], c[1], c[2]), true
	case []any:
		if len(c) != 3 {
			return "", false
		}

		r, okR := toInt(c[0])
		g, okG := toInt(c[1])
		b, okB := toInt(c[2])

		if !okR || !okG || !okB {
			return "", false
		}

		return formatRGB(r, g, b), true
	case map[string]any:
		r, okR := toInt(c["r"])
		g, okG := toInt(c["g"])
		b, okB := toInt(c["b"])

		if !okR || !okG || !okB {
			return "", false
		}

		return formatRGB(r, g, b), true
	case map[string]int:
		r, okR := c["r"]
		g, okG := c["g"]
		b, okB := c["b"]

		if !okR || !okG || !okB {
			return "", false
		}

		return formatRGB(r, g, b), true
	default:
		return "", false
	}
}

func formatRGB(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", ClampChannel(r), ClampChannel(g), ClampChannel(b))
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
