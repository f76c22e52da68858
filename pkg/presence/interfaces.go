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

package presence

import (
	"context"

	"github.com/grandcat/zeroconf"
	"github.com/quickbars/bridge/pkg/models"
)

// Store persists connection parameters for paired identities. The
// tracker reads the stored address to detect drift and writes back the
// resolved one.
type Store interface {
	Params(identity string) (models.ConnectionParams, bool)
	SetParams(identity string, params models.ConnectionParams) error
}

// Browser is the slice of the mDNS resolver the tracker uses. Satisfied
// by *zeroconf.Resolver.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
	Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}
