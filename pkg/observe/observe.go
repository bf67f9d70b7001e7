// Copyright 2025 EHRI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observe carries events from the publication engine to
// registered listeners. Delivery is synchronous and in registration
// order. Guarded mutations ask listeners for confirmation first; any
// listener may veto, which aborts the run.
package observe

import (
	"context"
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 👂 Observer receives engine events
type Observer interface {
	// Inform delivers an informational event.
	Inform(ctx context.Context, e Event)

	// Confirm asks permission for a guarded mutation. Returning false
	// vetoes the mutation and aborts the run.
	Confirm(ctx context.Context, e Event) bool
}

// 📣 Broadcaster fans events out to attached observers
type Broadcaster struct {
	observers []Observer
}

// NewBroadcaster returns a broadcaster with the given observers
// attached.
func NewBroadcaster(observers ...Observer) *Broadcaster {
	return &Broadcaster{observers: observers}
}

// Attach adds an observer to the end of the delivery order.
func (b *Broadcaster) Attach(o Observer) {
	b.observers = append(b.observers, o)
}

// Inform delivers an informational event to every observer.
func (b *Broadcaster) Inform(ctx context.Context, e Event) {
	for _, o := range b.observers {
		o.Inform(ctx, e)
	}
}

// Confirm asks every observer for permission. The first veto stops
// the round and the answer is false.
func (b *Broadcaster) Confirm(ctx context.Context, e Event) bool {
	for _, o := range b.observers {
		if !o.Confirm(ctx, e) {
			return false
		}
	}
	return true
}

// Guard asks for permission and converts a veto into an
// InterruptError.
func (b *Broadcaster) Guard(ctx context.Context, e Event) error {
	if !b.Confirm(ctx, e) {
		return &InterruptError{Event: e}
	}
	return nil
}

// ⛔ InterruptError reports that an observer vetoed a guarded operation
type InterruptError struct {
	Event Event
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("process interrupted by observer: event: %s", e.Event.Kind)
}

// IsInterrupt reports whether err carries an observer veto.
func IsInterrupt(err error) bool {
	var ie *InterruptError
	return errors.As(err, &ie)
}

// 🔧 Funcs adapts plain functions to the Observer interface. A nil
// ConfirmFunc consents to everything.
type Funcs struct {
	InformFunc  func(ctx context.Context, e Event)
	ConfirmFunc func(ctx context.Context, e Event) bool
}

func (f Funcs) Inform(ctx context.Context, e Event) {
	if f.InformFunc != nil {
		f.InformFunc(ctx, e)
	}
}

func (f Funcs) Confirm(ctx context.Context, e Event) bool {
	if f.ConfirmFunc == nil {
		return true
	}
	return f.ConfirmFunc(ctx, e)
}
