// internal/core/types.go
package core

import (
	"fmt"
	"strings"
	"time"
)

// Endereço fixo da câmera do lado da câmera. Todas as GoPros usam o mesmo IP,
// cada uma num link físico separado.
const DefaultCameraAddress = "10.5.5.9"

// Porta padrão do pacote wake-on-lan.
const DefaultWakePort = 9

// Endpoints de controle (HTTP GET).
const (
	PathLocate       = "/gp/gpControl/command/system/locate?p=0"
	PathStatus       = "/gp/gpControl/status"
	PathSleep        = "/gp/gpControl/command/system/sleep"
	PathShutterStart = "/gp/gpControl/command/shutter?p=1"
	PathShutterStop  = "/gp/gpControl/command/shutter?p=0"
)

// Chaves numéricas do objeto "status" retornado por PathStatus.
const (
	StatusKeyRecording = "8"
	StatusKeyCardError = "33"

	CardErrorCode = 3
)

// CameraIdentity identifica uma câmera física. Criada a partir da configuração
// e nunca alterada depois disso.
type CameraIdentity struct {
	Interface    string `json:"interface" mapstructure:"interface"`
	SSID         string `json:"ssid" mapstructure:"ssid"`
	WiFiMAC      string `json:"wifi_mac" mapstructure:"wifi_mac"`
	BluetoothMAC string `json:"bt_mac" mapstructure:"bt_mac"`
}

func (c CameraIdentity) String() string {
	if c.SSID != "" {
		return c.SSID
	}
	return c.Interface
}

// ControlURL monta a URL de um endpoint de controle no endereço informado.
func ControlURL(address, path string) string {
	return fmt.Sprintf("http://%s%s", strings.TrimSpace(address), path)
}

// EventType classifica os eventos publicados pelo monitor.
type EventType string

const (
	EventCaptureStarted EventType = "capture_started"
	EventCaptureStopped EventType = "capture_stopped"
	EventMismatch       EventType = "status_mismatch"
	EventCardError      EventType = "card_error"
	EventConnectFailed  EventType = "connect_failed"
)

type FleetEvent struct {
	Timestamp time.Time `json:"Timestamp"`
	EventID   string    `json:"EventID"`
	Type      EventType `json:"Type"`

	// Vazio para eventos da frota inteira.
	Camera    string `json:"Camera,omitempty"`
	Interface string `json:"Interface,omitempty"`

	Recording bool `json:"Recording"`

	// Metadados genéricos por evento (status HTTP, estado reportado, etc.)
	Meta map[string]interface{} `json:"Meta,omitempty"`
}
