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

// Package bus carries the hub's publish/subscribe event traffic. The
// request/response protocol in pkg/bridge rides on top of it.
package bus

import "context"

// Subjects used by the QuickBars bus protocol.
const (
	SubjectRequest            = "quickbars.request"
	SubjectResponse           = "quickbars.response"
	SubjectOpen               = "quickbars.event.open"
	SubjectNotificationSent   = "quickbars.event.notification_sent"
	SubjectNotificationAction = "quickbars.event.notification_action"
	SubjectAction             = "quickbars.action"
)

// Handler receives one published message.
type Handler func(subject string, data []byte)

// Unsubscribe cancels one subscription. Safe to call exactly once.
type Unsubscribe func() error

// Bus is a minimal publish/subscribe surface. Subscriptions are
// exact-subject; delivery order between independent subscribers is not
// guaranteed.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(subject string, h Handler) (Unsubscribe, error)
}
