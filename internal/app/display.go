package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_sentry/internal/config"
	"github.com/relabs-tech/gesture_sentry/internal/session"
)

// displayData holds the latest status for rendering.
type displayData struct {
	mu     sync.RWMutex
	status session.Status
	have   bool
}

// RunDisplay drives the SSD1306 status panel and the lock LEDs from the
// retained MQTT status topic.
func RunDisplay() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("display: periph host init: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("display: I2C bus open: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("display: SSD1306 init: %w", err)
	}
	log.Println("display: panel initialized")

	// Lock LEDs are optional; a panel-only deployment just skips them.
	greenLED := lookupLED(cfg.LEDGreenPin, "green")
	redLED := lookupLED(cfg.LEDRedPin, "red")

	if err := showSplash(dev); err != nil {
		log.Printf("display: splash error: %v", err)
	}

	data := &displayData{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("display: MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s session.Status
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: status unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.status = s
		data.have = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("display: status subscribe: %w", token.Error())
	}
	log.Printf("display: subscribed to %s", cfg.TopicStatus)

	interval := cfg.DisplayUpdateInterval
	if interval <= 0 {
		interval = 100
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		status, have := data.status, data.have
		data.mu.RUnlock()

		if err := updateStatusDisplay(dev, status, have); err != nil {
			log.Printf("display: update error: %v", err)
		}
		setLockLEDs(greenLED, redLED, status, have)
	}

	return nil
}

func lookupLED(pinName, label string) gpio.PinOut {
	if pinName == "" {
		return nil
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		log.Printf("display: WARNING: %s LED pin %q not found", label, pinName)
		return nil
	}
	return pin
}

// setLockLEDs mirrors the lock indicator: red while locked, green while the
// device is open for recording or unlocked.
func setLockLEDs(green, red gpio.PinOut, status session.Status, have bool) {
	if !have {
		return
	}
	if green != nil {
		if err := green.Out(gpio.Level(!status.Locked)); err != nil {
			log.Printf("display: green LED error: %v", err)
		}
	}
	if red != nil {
		if err := red.Out(gpio.Level(status.Locked)); err != nil {
			log.Printf("display: red LED error: %v", err)
		}
	}
}

func newStatusDrawer(img *image1bit.VerticalLSB) *font.Drawer {
	return &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
}

func updateStatusDisplay(dev *ssd1306.Dev, status session.Status, have bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := newStatusDrawer(img)

	drawer.Dot = fixed.P(5, 13)
	drawer.DrawBytes([]byte("GESTURE SENTRY"))

	if !have {
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return dev.Draw(dev.Bounds(), img, image.Point{})
	}

	drawer.Dot = fixed.P(0, 39)
	drawer.DrawBytes([]byte(status.Message))

	drawer.Dot = fixed.P(0, 58)
	if status.Locked {
		drawer.DrawBytes([]byte("[LOCKED]"))
	} else {
		drawer.DrawBytes([]byte("[OPEN]"))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := newStatusDrawer(img)

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Gesture"))

	drawer.Dot = fixed.P(10, 43)
	drawer.DrawBytes([]byte("Sentry"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
