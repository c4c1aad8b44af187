// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_sentry/internal/config"
	"github.com/relabs-tech/gesture_sentry/internal/gesture"
	"github.com/relabs-tech/gesture_sentry/internal/gyro"
	"github.com/relabs-tech/gesture_sentry/internal/session"
	"github.com/relabs-tech/gesture_sentry/internal/touch"
)

// gyroRecorder runs the capture side of a session against the physical
// gyroscope. A fresh calibration profile is built per session and discarded
// with it. Only the controller goroutine touches the profile.
type gyroRecorder struct {
	dev *gyro.Device
	cal gyro.Calibration
}

func (r *gyroRecorder) Calibrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cal, err := gyro.Calibrate(r.dev)
	if err != nil {
		return err
	}
	r.cal = cal
	log.Printf("sentry: calibrated (bias=%v, noise floor=%v)", cal.Bias, cal.NoiseFloor)
	return nil
}

func (r *gyroRecorder) Capture(ctx context.Context) (gesture.Trace, error) {
	return gesture.NewCapturer(r.dev.Source(r.cal)).Capture(ctx)
}

// mqttNotifier publishes every status transition as retained JSON so late
// subscribers see the current state immediately.
type mqttNotifier struct {
	client mqtt.Client
	topic  string
}

func (n *mqttNotifier) Notify(s session.Status) {
	payload, err := json.Marshal(s)
	if err != nil {
		log.Printf("sentry: status marshal error: %v", err)
		return
	}
	if token := n.client.Publish(n.topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("sentry: MQTT publish error (status): %v", token.Error())
	}
	log.Printf("sentry: %s (locked=%v, has_key=%v)", s.Message, s.Locked, s.HasKey)
}

func gyroConfigFromSettings(cfg *config.Config) (gyro.Config, error) {
	gc := gyro.Config{}

	switch cfg.GyroODR {
	case 200:
		gc.ODR = gyro.ODR200Cutoff50
	case 400:
		gc.ODR = gyro.ODR400Cutoff50
	default:
		return gc, fmt.Errorf("sentry: unsupported GYRO_ODR %d", cfg.GyroODR)
	}

	switch cfg.GyroFullScale {
	case 245:
		gc.FullScale = gyro.FullScale245
	case 500:
		gc.FullScale = gyro.FullScale500
	case 2000:
		gc.FullScale = gyro.FullScale2000
	default:
		return gc, fmt.Errorf("sentry: unsupported GYRO_FULL_SCALE %d", cfg.GyroFullScale)
	}

	return gc, nil
}

// RunSentry wires the gyroscope, touch input, erase button, and MQTT into
// the session controller and runs it until interrupted.
func RunSentry() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("sentry: periph host init: %w", err)
	}

	// --- Gyroscope over SPI ---
	port, err := spireg.Open(cfg.GyroSPIDevice)
	if err != nil {
		return fmt.Errorf("sentry: SPI port (%s): %w", cfg.GyroSPIDevice, err)
	}
	defer port.Close()

	drdy := gpioreg.ByName(cfg.GyroDRDYPin)
	if drdy == nil {
		return fmt.Errorf("sentry: DRDY pin %q not found", cfg.GyroDRDYPin)
	}

	gyroCfg, err := gyroConfigFromSettings(cfg)
	if err != nil {
		return err
	}
	dev, err := gyro.New(port, drdy, gyroCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.PowerOff(); err != nil {
			log.Printf("sentry: %v", err)
		}
	}()

	// --- Touch screen over I2C (non-fatal: MQTT commands still work) ---
	var screen *touch.Screen
	if bus, err := i2creg.Open(""); err != nil {
		log.Printf("sentry: WARNING: I2C bus open failed, touch input disabled: %v", err)
	} else {
		defer bus.Close()
		screen, err = touch.NewScreen(bus, cfg.TouchI2CAddr)
		if err != nil {
			log.Printf("sentry: WARNING: touch input disabled: %v", err)
			screen = nil
		} else {
			log.Printf("sentry: touch controller ready at 0x%02X", cfg.TouchI2CAddr)
		}
	}

	// --- MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSentry)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("sentry: MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("sentry: connected to MQTT broker at %s", cfg.MQTTBroker)

	ctrl := session.New(
		&gyroRecorder{dev: dev},
		&mqttNotifier{client: client, topic: cfg.TopicStatus},
		session.Options{Threshold: cfg.MatchThreshold},
	)

	if cfg.TopicCommand != "" {
		if err := subscribeCommands(client, cfg.TopicCommand, ctrl); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if screen != nil {
		go runTouchLoop(ctx, screen, time.Duration(cfg.TouchPollInterval)*time.Millisecond, ctrl)
	}
	if cfg.EraseButtonPin != "" {
		pin := gpioreg.ByName(cfg.EraseButtonPin)
		if pin == nil {
			log.Printf("sentry: WARNING: erase button pin %q not found", cfg.EraseButtonPin)
		} else {
			go runEraseButton(ctx, pin, ctrl)
		}
	}

	log.Println("sentry: ready")
	err = ctrl.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// subscribeCommands accepts remote record/unlock/erase requests over MQTT,
// giving headless deployments the same three inputs as the faceplate.
func subscribeCommands(client mqtt.Client, topic string, ctrl *session.Controller) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		cmd := strings.ToLower(strings.TrimSpace(string(msg.Payload())))
		switch cmd {
		case "record":
			ctrl.Post(session.Event{Kind: session.EventRecord})
		case "unlock":
			ctrl.Post(session.Event{Kind: session.EventUnlock})
		case "erase":
			ctrl.Post(session.Event{Kind: session.EventErase})
		default:
			log.Printf("sentry: ignoring unknown command %q", cmd)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("sentry: command subscribe: %w", token.Error())
	}
	log.Printf("sentry: subscribed to %s", topic)
	return nil
}
