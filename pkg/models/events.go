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

// BusRequest is one request event on the hub bus. CID is a single-use
// correlation token pairing the request to exactly one response.
type BusRequest struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	CID     string          `json:"cid"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// BusResponse is the companion app's answer to one BusRequest. Responses
// whose (ID, CID) pair matches no pending request are dropped, never
// errored.
type BusResponse struct {
	ID      string          `json:"id"`
	CID     string          `json:"cid"`
	OK      bool            `json:"ok"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ActionEvent is emitted by the companion app when the user taps a
// notification action button.
type ActionEvent struct {
	ID       string `json:"id,omitempty"`
	CID      string `json:"cid,omitempty"`
	ActionID string `json:"action_id,omitempty"`
	Label    string `json:"label,omitempty"`
}

// NotificationSentEvent announces that a notification request was put on
// the bus. Observational only; not part of the request/response contract.
type NotificationSentEvent struct {
	ID    string `json:"id"`
	CID   string `json:"cid"`
	Title string `json:"title,omitempty"`
}

// NotificationActionEvent republishes a companion-reported user action
// for the operator's automation layer.
type NotificationActionEvent struct {
	ID       string `json:"id"`
	CID      string `json:"cid,omitempty"`
	ActionID string `json:"action_id,omitempty"`
	Label    string `json:"label,omitempty"`
}
