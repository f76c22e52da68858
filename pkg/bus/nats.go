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

package bus

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/quickbars/bridge/pkg/logger"
)

// NATSBus is a Bus backed by a core NATS connection.
type NATSBus struct {
	nc     *nats.Conn
	logger logger.Logger
}

// Connect dials NATS with logging handlers attached and wraps the
// connection in a Bus.
func Connect(natsURL string, log logger.Logger, extraOpts ...nats.Option) (*NATSBus, error) {
	opts := []nats.Option{
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSBus{nc: nc, logger: log}, nil
}

// NewNATSBus wraps an existing NATS connection.
func NewNATSBus(nc *nats.Conn, log logger.Logger) *NATSBus {
	return &NATSBus{nc: nc, logger: log}
}

// Publish implements Bus.
func (b *NATSBus) Publish(_ context.Context, subject string, data []byte) error {
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// Subscribe implements Bus.
func (b *NATSBus) Subscribe(subject string, h Handler) (Unsubscribe, error) {
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		h(m.Subject, m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	return sub.Unsubscribe, nil
}

// Close drains and closes the underlying connection.
func (b *NATSBus) Close() {
	if err := b.nc.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("Error draining NATS connection")
		b.nc.Close()
	}
}
