// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/gesture_sentry/internal/gesture"
)

// EventKind identifies a request posted to the controller.
type EventKind int

const (
	EventRecord EventKind = iota
	EventUnlock
	EventErase
)

func (k EventKind) String() string {
	switch k {
	case EventRecord:
		return "record"
	case EventUnlock:
		return "unlock"
	case EventErase:
		return "erase"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one request from an input source. Events carry no payload.
type Event struct {
	Kind EventKind
}

// State is the controller's position in the capture pipeline.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateDeciding
)

// Recorder runs the sensor side of one capture session: a fresh calibration
// followed by a full fixed-duration capture with trimming applied.
type Recorder interface {
	Calibrate(ctx context.Context) error
	Capture(ctx context.Context) (gesture.Trace, error)
}

// Options tunes the controller. Zero values select the defaults.
type Options struct {
	// Threshold each axis correlation must strictly exceed to unlock.
	Threshold float64
	// Countdown is the number of "Recording in N..." steps before capture.
	Countdown int
	// StepDelay paces the user-facing messages around a capture. Tests set
	// it to a negative value to disable pacing entirely.
	StepDelay time.Duration
	// QueueSize bounds the pending event channel.
	QueueSize int
}

// Controller owns the single stored key and sequences Record, Unlock, and
// Erase requests. The key slot and working traces are touched only under the
// controller mutex; input sources interact exclusively through Post.
type Controller struct {
	rec       Recorder
	notifier  Notifier
	threshold float64
	countdown int
	stepDelay time.Duration

	events chan Event

	mu    sync.Mutex
	key   gesture.Trace
	state State
}

// New builds a controller around a recorder and a status sink.
func New(rec Recorder, n Notifier, opts Options) *Controller {
	if opts.Threshold == 0 {
		opts.Threshold = gesture.DefaultThreshold
	}
	if opts.Countdown == 0 {
		opts.Countdown = 3
	}
	if opts.StepDelay == 0 {
		opts.StepDelay = time.Second
	}
	if opts.QueueSize == 0 {
		opts.QueueSize = 8
	}
	return &Controller{
		rec:       rec,
		notifier:  n,
		threshold: opts.Threshold,
		countdown: opts.Countdown,
		stepDelay: opts.StepDelay,
		events:    make(chan Event, opts.QueueSize),
	}
}

// Post queues an event without blocking. It reports false when the queue is
// full and the event was dropped.
func (c *Controller) Post(e Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		log.Printf("session: event queue full, dropping %s request", e.Kind)
		return false
	}
}

// Run consumes events until ctx is cancelled. Requests are strictly
// serialized: an Erase raised while a Record or Unlock is in flight stays
// queued and is applied once the operation settles. There is no mid-capture
// cancellation.
func (c *Controller) Run(ctx context.Context) error {
	c.notifyIdle()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			switch ev.Kind {
			case EventRecord:
				c.RecordKey(ctx)
			case EventUnlock:
				c.AttemptUnlock(ctx)
			case EventErase:
				c.EraseKey()
			}
		}
	}
}

// HasKey reports whether a gesture key is currently stored.
func (c *Controller) HasKey() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.key) > 0
}

// State returns the controller's current pipeline state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RecordKey captures a new gesture and stores it as the key, discarding any
// previous key wholesale.
func (c *Controller) RecordKey(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	trace, err := c.captureLocked(ctx)
	if err != nil {
		c.failLocked(err)
		return
	}

	if len(c.key) > 0 {
		c.sendLocked("Removing old key...", true)
		c.pause()
		c.key = nil
		c.key = trace
		c.sendLocked("New key saved.", true)
	} else {
		c.sendLocked("Saving Key...", true)
		c.key = trace
		c.sendLocked("Key saved.", true)
	}
	c.state = StateIdle
}

// AttemptUnlock captures a gesture and matches it against the stored key.
// With no key present it short-circuits without touching the sensor.
func (c *Controller) AttemptUnlock(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.key) == 0 {
		c.sendLocked("NO KEY SAVED.", false)
		c.state = StateIdle
		return
	}

	attempt, err := c.captureLocked(ctx)
	if err != nil {
		c.failLocked(err)
		return
	}

	c.state = StateDeciding
	c.sendLocked("Unlocking...", true)

	ok, corr := gesture.Match(c.key, attempt, c.threshold)
	log.Printf("session: correlation x=%.3f y=%.3f z=%.3f (threshold %.2f)",
		corr[0], corr[1], corr[2], c.threshold)

	if ok {
		c.sendLocked("UNLOCK: SUCCESS", false)
	} else {
		c.sendLocked("UNLOCK: FAILED", true)
	}
	c.state = StateIdle
}

// EraseKey clears the stored key unconditionally.
func (c *Controller) EraseKey() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sendLocked("Erasing....", false)
	c.key = nil
	c.sendLocked("Key Erased.", false)
	c.state = StateIdle
}

// captureLocked drives the full calibration, countdown, and capture sequence
// with user-facing status at every step.
func (c *Controller) captureLocked(ctx context.Context) (gesture.Trace, error) {
	c.state = StateCapturing
	locked := len(c.key) > 0

	c.sendLocked("Hold On", locked)
	c.pause()

	c.sendLocked("Calibrating...", locked)
	if err := c.rec.Calibrate(ctx); err != nil {
		return nil, fmt.Errorf("session: calibration: %w", err)
	}

	for i := c.countdown; i > 0; i-- {
		c.sendLocked(fmt.Sprintf("Recording in %d...", i), locked)
		c.pause()
	}

	c.sendLocked("Recording...", locked)
	trace, err := c.rec.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: capture: %w", err)
	}

	c.sendLocked("Finished...", locked)
	return trace, nil
}

// failLocked reports a terminal sensor failure for the current attempt. The
// key slot is untouched and the system stays locked if a key exists.
func (c *Controller) failLocked(err error) {
	log.Printf("session: %v", err)
	c.sendLocked("SENSOR ERROR", len(c.key) > 0)
	c.state = StateIdle
}

func (c *Controller) sendLocked(msg string, locked bool) {
	c.notifier.Notify(Status{
		Message: msg,
		Locked:  locked,
		HasKey:  len(c.key) > 0,
	})
}

func (c *Controller) notifyIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.key) > 0 {
		c.sendLocked("LOCKED", true)
	} else {
		c.sendLocked("NO KEY RECORDED", false)
	}
}

func (c *Controller) pause() {
	if c.stepDelay > 0 {
		time.Sleep(c.stepDelay)
	}
}
