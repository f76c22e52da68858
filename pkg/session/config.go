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

package session

import (
	"errors"
	"fmt"

	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
)

var (
	errPairingIdentityRequired = errors.New("pairing entry requires an identity")
	errPairingHostRequired     = errors.New("pairing entry requires a host")
)

const (
	defaultNATSURL = "nats://127.0.0.1:4222"
	defaultAppPort = 9123
)

// PairingEntry is one previously paired companion app in the bridge
// config file.
type PairingEntry struct {
	Identity string `json:"id"`
	Name     string `json:"name,omitempty"`
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
}

// Params returns the entry's address as connection parameters.
func (p PairingEntry) Params() models.ConnectionParams {
	return models.ConnectionParams{Host: p.Host, Port: p.Port}
}

// Config is the bridge service configuration.
type Config struct {
	NATSURL  string         `json:"nats_url,omitempty"`
	BaseURL  string         `json:"base_url,omitempty"`
	Pairings []PairingEntry `json:"pairings"`
	Logging  *logger.Config `json:"logging,omitempty"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.NATSURL == "" {
		c.NATSURL = defaultNATSURL
	}

	for i := range c.Pairings {
		p := &c.Pairings[i]

		if p.Identity == "" {
			return fmt.Errorf("%w (entry %d)", errPairingIdentityRequired, i)
		}

		if p.Host == "" {
			return fmt.Errorf("%w (entry %d, id %s)", errPairingHostRequired, i, p.Identity)
		}

		if p.Port == 0 {
			p.Port = defaultAppPort
		}
	}

	return nil
}
