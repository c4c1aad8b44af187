// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_sentry/internal/gesture"
	"github.com/relabs-tech/gesture_sentry/internal/session"
)

// mockRecorder drives the session pipeline from the synthetic gesture
// source, so the full record/unlock flow runs without hardware.
type mockRecorder struct{}

func (mockRecorder) Calibrate(ctx context.Context) error {
	return ctx.Err()
}

func (mockRecorder) Capture(ctx context.Context) (gesture.Trace, error) {
	return gesture.NewCapturer(gesture.NewMockSource()).Capture(ctx)
}

// RunMockSentry runs the session controller against the synthetic gesture
// source, taking record/unlock/erase commands from stdin. Status goes to the
// log and, when a local broker is reachable, to MQTT so the display/console/
// web binaries can be exercised without hardware.
func RunMockSentry() error {
	var client mqtt.Client
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://localhost:1883").
		SetClientID("gesture-sentry-mock")
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("mock sentry: WARNING: MQTT unavailable, logging only: %v", token.Error())
	} else {
		client = c
		defer client.Disconnect(250)
		log.Println("mock sentry: publishing status to tcp://localhost:1883")
	}

	notifier := session.NotifierFunc(func(s session.Status) {
		lock := "OPEN"
		if s.Locked {
			lock = "LOCK"
		}
		log.Printf("[%s] %s", lock, s.Message)

		if client == nil {
			return
		}
		payload, err := json.Marshal(s)
		if err != nil {
			return
		}
		client.Publish("sentry/status", 0, true, payload)
	})

	ctrl := session.New(mockRecorder{}, notifier, session.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("mock sentry: controller stopped: %v", err)
		}
	}()

	fmt.Println("commands: record | unlock | erase | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "record":
			ctrl.Post(session.Event{Kind: session.EventRecord})
		case "unlock":
			ctrl.Post(session.Event{Kind: session.EventUnlock})
		case "erase":
			ctrl.Post(session.Event{Kind: session.EventErase})
		case "quit", "exit":
			return nil
		case "":
		default:
			fmt.Println("commands: record | unlock | erase | quit")
		}
	}
	return scanner.Err()
}
