package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gesture_sentry/internal/config"
	"github.com/relabs-tech/gesture_sentry/internal/session"
)

// RunSerialConsole mirrors every status update onto a serial port, one
// line per update, for a terminal attached over UART.
func RunSerialConsole() error {
	cfg := config.Get()

	baud := cfg.SerialBaudRate
	if baud == 0 {
		baud = 115200
	}

	serialOpts := serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("serial console: open %s: %w", serialOpts.PortName, err)
	}
	defer port.Close()
	log.Printf("serial console: port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSerial)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("serial console: connected to MQTT broker at %s", cfg.MQTTBroker)

	var writeMu sync.Mutex

	token := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s session.Status
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("serial console: status unmarshal error: %v", err)
			return
		}

		lock := "OPEN"
		if s.Locked {
			lock = "LOCK"
		}
		line := fmt.Sprintf("[%s] %s\r\n", lock, s.Message)

		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := port.Write([]byte(line)); err != nil {
			log.Printf("serial console: write error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("serial console: subscribed to %s", cfg.TopicStatus)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("serial console: shutting down")
	client.Disconnect(250)
	return nil
}
