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

import (
	"context"
	"errors"
	"fmt"
)

// State is one step of the pairing flow.
type State string

const (
	StateCollectingAddress     State = "collecting_address"
	StateRequestingCode        State = "requesting_code"
	StateAwaitingUserCode      State = "awaiting_user_code"
	StateConfirming            State = "confirming"
	StateAwaitingCredentials   State = "awaiting_credentials"
	StateSubmittingCredentials State = "submitting_credentials"
	StatePaired                State = "paired"
	StateFailed                State = "failed"
)

// Flow is the pairing state machine the operator UI drives. A network
// failure returns the flow to the state it was entering from, with the
// error kept for annotation, so the operator can correct and retry
// without restarting. ErrNoStableIdentity is the one terminal failure:
// an identity-less pairing can never be correlated against later.
type Flow struct {
	client *Client
	meta   LocalMetadata

	state State
	err   error

	host string
	port int
	sid  string

	result *Result
}

// Result is the outcome of a completed pairing.
type Result struct {
	Identity string
	Name     string
	Host     string
	Port     int
}

// NewFlow creates a flow in the collecting_address state.
func NewFlow(client *Client, meta LocalMetadata) *Flow {
	return &Flow{client: client, meta: meta, state: StateCollectingAddress}
}

// State reports the step the operator UI should render.
func (f *Flow) State() State { return f.state }

// Err reports the error annotation for the current state, nil when the
// last transition succeeded.
func (f *Flow) Err() error { return f.err }

// Result returns the pairing outcome once the flow reached paired, nil
// before that.
func (f *Flow) Result() *Result { return f.result }

// SubmitAddress records the companion app's address and requests a
// pairing code from it.
func (f *Flow) SubmitAddress(ctx context.Context, host string, port int) State {
	if f.state != StateCollectingAddress {
		f.err = fmt.Errorf("%w: %s", errInvalidFlowState, f.state)
		return f.state
	}

	f.host = host
	f.port = port
	f.state = StateRequestingCode

	code, err := f.client.RequestPairingCode(ctx, host, port)
	if err != nil {
		f.state = StateCollectingAddress
		f.err = err

		return f.state
	}

	f.sid = code.SID
	f.err = nil
	f.state = StateAwaitingUserCode

	return f.state
}

// SubmitCode submits the code the user read off the TV screen.
func (f *Flow) SubmitCode(ctx context.Context, code string) State {
	if f.state != StateAwaitingUserCode {
		f.err = fmt.Errorf("%w: %s", errInvalidFlowState, f.state)
		return f.state
	}

	f.state = StateConfirming

	confirmation, err := f.client.ConfirmPairing(ctx, f.host, f.port, code, f.sid, f.meta)

	switch {
	case errors.Is(err, ErrNoStableIdentity):
		f.state = StateFailed
		f.err = err

		return f.state
	case err != nil:
		f.state = StateAwaitingUserCode
		f.err = err

		return f.state
	}

	f.port = confirmation.Port
	f.err = nil
	f.result = &Result{
		Identity: confirmation.ID,
		Name:     confirmation.Name,
		Host:     f.host,
		Port:     confirmation.Port,
	}

	if !confirmation.HasToken {
		f.state = StateAwaitingCredentials
	} else {
		f.state = StatePaired
	}

	return f.state
}

// SubmitCredentials pushes the hub URL and token the user provided.
func (f *Flow) SubmitCredentials(ctx context.Context, baseURL, token string) State {
	if f.state != StateAwaitingCredentials {
		f.err = fmt.Errorf("%w: %s", errInvalidFlowState, f.state)
		return f.state
	}

	f.state = StateSubmittingCredentials

	if err := f.client.PushCredentials(ctx, f.host, f.port, baseURL, token); err != nil {
		f.state = StateAwaitingCredentials
		f.err = err

		return f.state
	}

	f.err = nil
	f.state = StatePaired

	return f.state
}
