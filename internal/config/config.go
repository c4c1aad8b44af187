package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDSentry  string
	MQTTClientIDDisplay string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDSerial  string

	// Topics
	TopicStatus  string
	TopicCommand string

	// Gyroscope hardware
	GyroSPIDevice string
	GyroDRDYPin   string
	// Output data rate in Hz: 200 or 400
	GyroODR int
	// Full-scale range in dps: 245, 500, or 2000
	GyroFullScale int

	// Touch input
	TouchI2CAddr      uint16
	TouchPollInterval int // milliseconds
	EraseButtonPin    string

	// Match acceptance
	MatchThreshold float64

	// Display
	DisplayUpdateInterval int // milliseconds
	LEDGreenPin           string
	LEDRedPin             string

	// Web server
	WebServerPort int

	// Serial console
	SerialPort     string
	SerialBaudRate int
}

// Package-level unexported variables for the config singleton. External code
// must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{
		// Defaults that match the original firmware constants.
		GyroODR:        200,
		GyroFullScale:  500,
		TouchI2CAddr:   0x38,
		MatchThreshold: 0.70,
	}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_SENTRY":
		c.MQTTClientIDSentry = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_SERIAL":
		c.MQTTClientIDSerial = value

	// Topics
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	// Gyroscope hardware
	case "GYRO_SPI_DEVICE":
		c.GyroSPIDevice = value
	case "GYRO_DRDY_PIN":
		c.GyroDRDYPin = value
	case "GYRO_ODR":
		odr, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GYRO_ODR %q: %w", value, err)
		}
		if odr != 200 && odr != 400 {
			return fmt.Errorf("GYRO_ODR must be 200 or 400, got %d", odr)
		}
		c.GyroODR = odr
	case "GYRO_FULL_SCALE":
		scale, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GYRO_FULL_SCALE %q: %w", value, err)
		}
		if scale != 245 && scale != 500 && scale != 2000 {
			return fmt.Errorf("GYRO_FULL_SCALE must be 245, 500, or 2000 dps, got %d", scale)
		}
		c.GyroFullScale = scale

	// Touch input
	case "TOUCH_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid TOUCH_I2C_ADDR %q: %w", value, err)
		}
		c.TouchI2CAddr = uint16(addr)
	case "TOUCH_POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TOUCH_POLL_INTERVAL %q: %w", value, err)
		}
		c.TouchPollInterval = interval
	case "ERASE_BUTTON_PIN":
		c.EraseButtonPin = value

	// Match acceptance
	case "MATCH_THRESHOLD":
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MATCH_THRESHOLD %q: %w", value, err)
		}
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("MATCH_THRESHOLD must be in [0,1], got %g", threshold)
		}
		c.MatchThreshold = threshold

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval
	case "LED_GREEN_PIN":
		c.LEDGreenPin = value
	case "LED_RED_PIN":
		c.LEDRedPin = value

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Serial console
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicStatus == "" {
		return fmt.Errorf("TOPIC_STATUS is required")
	}
	if c.GyroSPIDevice == "" {
		return fmt.Errorf("GYRO_SPI_DEVICE is required")
	}
	if c.GyroDRDYPin == "" {
		return fmt.Errorf("GYRO_DRDY_PIN is required")
	}
	if c.TouchPollInterval == 0 {
		return fmt.Errorf("TOUCH_POLL_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
