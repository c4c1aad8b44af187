package app

import (
	"context"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/gesture_sentry/internal/session"
	"github.com/relabs-tech/gesture_sentry/internal/touch"
)

// debounceDelay holds off further input after a recognized press. The
// faceplate buttons are large and a finger rests on them far longer than one
// poll interval.
const debounceDelay = time.Second

// runTouchLoop polls the touch controller at a fixed interval and posts
// record/unlock events for presses inside the button rectangles. It never
// touches gesture state directly; the controller queue is the only boundary.
func runTouchLoop(ctx context.Context, screen *touch.Screen, interval time.Duration, ctrl *session.Controller) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p, pressed, err := screen.Poll()
		if err != nil {
			log.Printf("input: touch poll error: %v", err)
			continue
		}
		if !pressed {
			continue
		}

		switch {
		case touch.RecordButton.Contains(p):
			log.Printf("input: record touched at (%d,%d)", p.X, p.Y)
			ctrl.Post(session.Event{Kind: session.EventRecord})
			time.Sleep(debounceDelay)
		case touch.UnlockButton.Contains(p):
			log.Printf("input: unlock touched at (%d,%d)", p.X, p.Y)
			ctrl.Post(session.Event{Kind: session.EventUnlock})
			time.Sleep(debounceDelay)
		}
	}
}

// runEraseButton posts an erase event on each rising edge of the push
// button. The edge wait is chunked so cancellation is noticed promptly.
func runEraseButton(ctx context.Context, pin gpio.PinIn, ctrl *session.Controller) {
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		log.Printf("input: erase button setup error: %v", err)
		return
	}

	for ctx.Err() == nil {
		if !pin.WaitForEdge(500 * time.Millisecond) {
			continue
		}
		log.Println("input: erase button pressed")
		ctrl.Post(session.Event{Kind: session.EventErase})
		time.Sleep(debounceDelay)
	}
}
