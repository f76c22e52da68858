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

package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingIdentity indicates a bridge operation was attempted without
	// a stable remote identity. This is a setup bug, never retried.
	ErrMissingIdentity = errors.New("missing stable identity")

	// ErrTimeout indicates no matching response arrived before the
	// deadline. Retryable at the caller's discretion.
	ErrTimeout = errors.New("timed out waiting for response")
)

// RemoteOperationError is returned when the companion app explicitly
// reported failure for a request.
type RemoteOperationError struct {
	Action string
	Reason string
}

func (e *RemoteOperationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("remote rejected %s", e.Action)
	}

	return fmt.Sprintf("remote rejected %s: %s", e.Action, e.Reason)
}

// IsRoutineFailure reports whether err is an expected reachability
// failure (timeout or remote rejection) rather than a bridge fault. The
// connectivity monitor treats these as an unavailable cycle, not an
// error.
func IsRoutineFailure(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return true
	}

	var remoteErr *RemoteOperationError

	return errors.As(err, &remoteErr)
}
