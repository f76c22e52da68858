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

package models

import "encoding/json"

// EntityRecord is one hub entity as the companion app knows it.
type EntityRecord struct {
	ID           string `json:"id"`
	FriendlyName string `json:"friendlyName,omitempty"`
	CustomName   string `json:"customName,omitempty"`
	Saved        bool   `json:"isSaved"`
}

// DisplayName returns the user override when set, the hub-provided
// friendly name otherwise, and the id as a last resort.
func (e *EntityRecord) DisplayName() string {
	if e.CustomName != "" {
		return e.CustomName
	}

	if e.FriendlyName != "" {
		return e.FriendlyName
	}

	return e.ID
}

// EntityPatch is a partial update to one entity record. Nil fields are
// left untouched on the remote.
type EntityPatch struct {
	ID         string  `json:"id"`
	CustomName *string `json:"customName,omitempty"`
	Saved      *bool   `json:"isSaved,omitempty"`
}

// QuickBarRecord is a named group of saved entities plus presentation
// options. The options are owned by the companion app; the bridge carries
// them opaquely and must not drop keys it does not understand.
type QuickBarRecord struct {
	Name      string
	EntityIDs []string
	Options   map[string]json.RawMessage
}

func (q QuickBarRecord) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(q.Options)+2)

	for k, v := range q.Options {
		doc[k] = v
	}

	name, err := json.Marshal(q.Name)
	if err != nil {
		return nil, err
	}

	ids, err := json.Marshal(q.EntityIDs)
	if err != nil {
		return nil, err
	}

	doc["name"] = name
	doc["entities"] = ids

	return json.Marshal(doc)
}

func (q *QuickBarRecord) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if raw, ok := doc["name"]; ok {
		if err := json.Unmarshal(raw, &q.Name); err != nil {
			return err
		}

		delete(doc, "name")
	}

	if raw, ok := doc["entities"]; ok {
		if err := json.Unmarshal(raw, &q.EntityIDs); err != nil {
			return err
		}

		delete(doc, "entities")
	}

	q.Options = doc

	return nil
}

// Snapshot mirrors the companion app's configuration document. The hub's
// copy is transient: every edit session re-fetches before mutating and
// pushes back only the subtree it changed.
type Snapshot struct {
	Entities  []EntityRecord   `json:"entities"`
	QuickBars []QuickBarRecord `json:"quick_bars"`
}

// SavedIDSet returns the set of entity ids currently exposed to the
// companion app.
func (s *Snapshot) SavedIDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Entities))

	for i := range s.Entities {
		if s.Entities[i].Saved && s.Entities[i].ID != "" {
			set[s.Entities[i].ID] = struct{}{}
		}
	}

	return set
}

// EntitiesSubtree is the put_snapshot payload that replaces only the
// entity list, leaving sibling quick-bar state untouched.
type EntitiesSubtree struct {
	Entities []EntityRecord `json:"entities"`
}

// QuickBarsSubtree is the put_snapshot payload that replaces only the
// quick-bar list, leaving sibling entity state untouched.
type QuickBarsSubtree struct {
	QuickBars []QuickBarRecord `json:"quick_bars"`
}
