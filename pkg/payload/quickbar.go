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
	"fmt"
	"strings"

	"github.com/quickbars/bridge/pkg/models"
)

// FieldQuickBarName is the form field reported by quick-bar name
// validation failures, so the operator UI can annotate the right input.
const FieldQuickBarName = "quickbar_name"

// ValidationError is a value, not an exception: the caller redisplays
// the edit form with the attempted input preserved.
type ValidationError struct {
	Field     string
	Reason    string
	Attempted string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%q)", e.Field, e.Reason, e.Attempted)
}

// ValidateQuickBarName checks a quick-bar name for case-insensitive
// uniqueness among its siblings, excluding the bar at editingIndex
// (pass -1 for a new bar). The name is trimmed before comparison.
func ValidateQuickBarName(name string, bars []models.QuickBarRecord, editingIndex int) *ValidationError {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ValidationError{Field: FieldQuickBarName, Reason: "name_required", Attempted: name}
	}

	folded := strings.ToLower(trimmed)

	for i := range bars {
		if i == editingIndex {
			continue
		}

		if strings.ToLower(strings.TrimSpace(bars[i].Name)) == folded {
			return &ValidationError{Field: FieldQuickBarName, Reason: "name_taken", Attempted: name}
		}
	}

	return nil
}

// UniqueQuickBarName derives a free name from base: "QuickBar",
// "QuickBar 2", "QuickBar 3", first one not taken (case-insensitive).
func UniqueQuickBarName(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))

	for _, name := range existing {
		taken[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	if _, ok := taken[strings.ToLower(base)]; !ok {
		return base
	}

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s %d", base, n)
		if _, ok := taken[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}

// NormalizeEntityIDs filters a requested entity order down to ids in the
// saved set, dropping duplicates while preserving first occurrence.
func NormalizeEntityIDs(requested []string, saved map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))

	for _, id := range requested {
		if _, ok := saved[id]; !ok {
			continue
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

// DefaultQuickBar builds a new quick bar with the app's default
// presentation options.
func DefaultQuickBar(name string) models.QuickBarRecord {
	return models.QuickBarRecord{Name: name, EntityIDs: []string{}}
}
