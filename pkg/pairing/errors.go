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

package pairing

import "errors"

var (
	// ErrUnreachable indicates a network or transport failure talking to
	// the companion app. Always retryable.
	ErrUnreachable = errors.New("companion app unreachable")

	// ErrInvalidCode indicates the companion app rejected the user-entered
	// pairing code. User-correctable.
	ErrInvalidCode = errors.New("pairing code rejected")

	// ErrNoStableIdentity indicates the pairing confirmation omitted an
	// identity. Terminal: without one, no later request can ever be
	// correlated.
	ErrNoStableIdentity = errors.New("pairing response carried no stable identity")

	// ErrCredentialsRejected indicates the companion app refused the hub
	// credentials; the wrapped reason is the remote's verbatim diagnostic.
	ErrCredentialsRejected = errors.New("credentials rejected")

	errInvalidFlowState = errors.New("operation not valid in current pairing state")
)
