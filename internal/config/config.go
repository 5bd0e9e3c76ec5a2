// Package config lê a configuração da frota de arquivo YAML e variáveis de
// ambiente.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sua-org/gopro-fleet/internal/camera"
	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/transport"
)

const (
	EnvPrefix       = "GOPRO_FLEET"
	DefaultFileName = "gopro-fleet"
)

type Config struct {
	Cameras       []core.CameraIdentity `mapstructure:"cameras"`
	CameraAddress string                `mapstructure:"camera_address"`
	WakePort      int                   `mapstructure:"wake_port"`
	UseSudo       bool                  `mapstructure:"use_sudo"`

	Trigger TriggerConfig `mapstructure:"trigger"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Session SessionConfig `mapstructure:"session"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Minio   MinioConfig   `mapstructure:"minio"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type TriggerConfig struct {
	GPIOChip  string `mapstructure:"gpio_chip"`
	GPIOLine  int    `mapstructure:"gpio_line"`
	FlagPath  string `mapstructure:"flag_path"`
	MQTTTopic string `mapstructure:"mqtt_topic"`
}

type MonitorConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	CheckStatus  int           `mapstructure:"check_status"`
}

type SessionConfig struct {
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RadioTimeout       time.Duration `mapstructure:"radio_timeout"`
	WakeAttempts       int           `mapstructure:"wake_attempts"`
	WakeDelay          time.Duration `mapstructure:"wake_delay"`
	AssociateAttempts  int           `mapstructure:"associate_attempts"`
	AssociateDelay     time.Duration `mapstructure:"associate_delay"`
	FinalProbeAttempts int           `mapstructure:"final_probe_attempts"`
	ProbeDelay         time.Duration `mapstructure:"probe_delay"`
	ConnectAttempts    int           `mapstructure:"connect_attempts"`
}

// Timing converte para os limites usados pela sessão.
func (s SessionConfig) Timing() camera.Timing {
	return camera.Timing{
		WakeAttempts:       s.WakeAttempts,
		WakeDelay:          s.WakeDelay,
		AssociateAttempts:  s.AssociateAttempts,
		AssociateDelay:     s.AssociateDelay,
		FinalProbeAttempts: s.FinalProbeAttempts,
		ProbeDelay:         s.ProbeDelay,
		ConnectAttempts:    s.ConnectAttempts,
	}
}

type MQTTConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	ClientID  string `mapstructure:"client_id"`
	BaseTopic string `mapstructure:"base_topic"`
}

type MinioConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Nomes herdados dos outros serviços (.env compartilhado).
var legacyEnv = map[string]string{
	"mqtt.host":        "MQTT_HOST",
	"mqtt.port":        "MQTT_PORT",
	"mqtt.username":    "MQTT_USERNAME",
	"mqtt.password":    "MQTT_PASSWORD",
	"mqtt.client_id":   "MQTT_CLIENT_ID",
	"mqtt.base_topic":  "MQTT_BASE_TOPIC",
	"minio.endpoint":   "MINIO_ENDPOINT",
	"minio.access_key": "MINIO_ACCESS_KEY",
	"minio.secret_key": "MINIO_SECRET_KEY",
	"minio.bucket":     "MINIO_BUCKET",
	"minio.use_ssl":    "MINIO_USE_SSL",
}

func setDefaults(v *viper.Viper) {
	timing := camera.DefaultTiming()

	v.SetDefault("camera_address", core.DefaultCameraAddress)
	v.SetDefault("wake_port", core.DefaultWakePort)
	v.SetDefault("use_sudo", true)

	v.SetDefault("trigger.gpio_chip", "")
	v.SetDefault("trigger.gpio_line", 17)
	v.SetDefault("trigger.flag_path", "")
	v.SetDefault("trigger.mqtt_topic", "")

	v.SetDefault("monitor.tick_interval", time.Second)
	v.SetDefault("monitor.check_status", 0)

	v.SetDefault("session.request_timeout", transport.DefaultTimeout)
	v.SetDefault("session.radio_timeout", 10*time.Second)
	v.SetDefault("session.wake_attempts", timing.WakeAttempts)
	v.SetDefault("session.wake_delay", timing.WakeDelay)
	v.SetDefault("session.associate_attempts", timing.AssociateAttempts)
	v.SetDefault("session.associate_delay", timing.AssociateDelay)
	v.SetDefault("session.final_probe_attempts", timing.FinalProbeAttempts)
	v.SetDefault("session.probe_delay", timing.ProbeDelay)
	v.SetDefault("session.connect_attempts", timing.ConnectAttempts)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id", "gopro-fleet")
	v.SetDefault("mqtt.base_topic", "gopro-fleet")

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "gopro-fleet-events")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.prefix", "events")

	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
}

// Load lê o arquivo (path explícito, ou gopro-fleet.yaml em . e
// /etc/gopro-fleet) e aplica as variáveis de ambiente por cima.
// Sem path explícito a ausência do arquivo não é erro.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/gopro-fleet")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for i := range cfg.Cameras {
		cfg.Cameras[i].WiFiMAC = strings.ToUpper(strings.TrimSpace(cfg.Cameras[i].WiFiMAC))
		cfg.Cameras[i].BluetoothMAC = strings.ToUpper(strings.TrimSpace(cfg.Cameras[i].BluetoothMAC))
	}
	return &cfg, nil
}

// Validate rejeita configurações com as quais o monitor não deve subir.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Cameras) == 0 {
		errs = append(errs, errors.New("no cameras configured"))
	}

	seen := make(map[string]string)
	for i, cam := range c.Cameras {
		label := fmt.Sprintf("cameras[%d]", i)
		if cam.SSID != "" {
			label += " (" + cam.SSID + ")"
		}
		if cam.Interface == "" {
			errs = append(errs, fmt.Errorf("%s: interface is required", label))
		} else if prev, dup := seen[cam.Interface]; dup {
			errs = append(errs, fmt.Errorf("%s: interface %s already used by %s", label, cam.Interface, prev))
		} else {
			seen[cam.Interface] = label
		}
		if cam.SSID == "" {
			errs = append(errs, fmt.Errorf("%s: ssid is required", label))
		}
		if err := checkMAC(cam.WiFiMAC); err != nil {
			errs = append(errs, fmt.Errorf("%s: wifi_mac: %w", label, err))
		}
		if err := checkMAC(cam.BluetoothMAC); err != nil {
			errs = append(errs, fmt.Errorf("%s: bt_mac: %w", label, err))
		}
	}

	if c.Monitor.CheckStatus < 0 {
		errs = append(errs, fmt.Errorf("monitor.check_status must be >= 0, got %d", c.Monitor.CheckStatus))
	}
	if c.Monitor.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("monitor.tick_interval must be positive, got %s", c.Monitor.TickInterval))
	}
	if c.Session.ConnectAttempts < 1 {
		errs = append(errs, fmt.Errorf("session.connect_attempts must be >= 1, got %d", c.Session.ConnectAttempts))
	}
	if c.Trigger.GPIOChip == "" && c.Trigger.FlagPath == "" && c.Trigger.MQTTTopic == "" {
		errs = append(errs, errors.New("no trigger source configured (trigger.gpio_chip, trigger.flag_path or trigger.mqtt_topic)"))
	}
	if c.Trigger.MQTTTopic != "" && !c.MQTT.Enabled {
		errs = append(errs, errors.New("trigger.mqtt_topic requires mqtt.enabled"))
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("minio.enabled requires minio.endpoint"))
	}

	return errors.Join(errs...)
}

func checkMAC(s string) error {
	if s == "" {
		return errors.New("required")
	}
	hw, err := net.ParseMAC(s)
	if err != nil {
		return err
	}
	if len(hw) != 6 {
		return fmt.Errorf("%s is not a 48-bit address", s)
	}
	return nil
}
