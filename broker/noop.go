// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package broker

import (
	"context"
)

// Noop - a broker for a single instance deployment
type Noop struct{}

// NewNoop - create a broker that does nothing
func NewNoop() *Noop {
	return &Noop{}
}

// Connect - does nothing
func (*Noop) Connect(ctx context.Context) error { return nil }

// Close - does nothing
func (*Noop) Close() error { return nil }

// Publish - drops the message
func (*Noop) Publish(ctx context.Context, tradeID string, message Message) error { return nil }

// AddParticipant - does nothing
func (*Noop) AddParticipant(ctx context.Context, tradeID string, participant Participant) error {
	return nil
}

// RemoveParticipant - does nothing
func (*Noop) RemoveParticipant(ctx context.Context, tradeID string, participant Participant) error {
	return nil
}

// Participants - always empty
func (*Noop) Participants(ctx context.Context, tradeID string) ([]Participant, error) {
	return []Participant{}, nil
}

// Listen - never calls the handler, returns when the context ends
func (*Noop) Listen(ctx context.Context, handler Handler) error {
	<-ctx.Done()
	return nil
}
