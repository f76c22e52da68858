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

// PairCode is the companion app's answer to a pairing-code request. The
// code itself is displayed on the TV; the hub only keeps the session id.
type PairCode struct {
	Code string `json:"code"`
	SID  string `json:"sid"`
	TTL  int    `json:"ttl"`
}

// PairConfirmation is the result of a confirmed pairing. ID is the stable
// remote identity used as the correlation key for every later bus
// operation; a confirmation without one is unusable.
type PairConfirmation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Port     int    `json:"port,omitempty"`
	HasToken bool   `json:"has_token"`
}

// CredentialsResult reports whether the companion app accepted the hub
// URL and access token pushed to it.
type CredentialsResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}
