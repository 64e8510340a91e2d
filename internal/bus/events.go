package bus

import "time"

type EventType string

const (
	EventPeerMoved      EventType = "peer_moved"
	EventCommandExecute EventType = "command_execute"
	EventSOSAlert       EventType = "sos_alert"
)

// CommandActivateLostMode tells a lost device to show its recovery
// banner on next contact.
const CommandActivateLostMode = "ActivateLostMode"

// Envelope is the wire form of every outbound event.
type Envelope struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// PeerMoved announces a circle member's new position.
type PeerMoved struct {
	Phone   string  `json:"phone"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Speed   float64 `json:"speed"`
	Battery int     `json:"battery"`
}

// CommandExecute is a remote command pushed back to a device.
type CommandExecute struct {
	Command   string `json:"command"`
	Message   string `json:"message,omitempty"`
	PlaySiren bool   `json:"play_siren"`
}

// SOSAlert is the emergency fan-out payload.
type SOSAlert struct {
	FromName  string    `json:"from_name"`
	FromPhone string    `json:"from_phone"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Time      time.Time `json:"time"`
}

func NewPeerMoved(phone string, lat, lng, speed float64, battery int) Envelope {
	return Envelope{Type: EventPeerMoved, Data: PeerMoved{
		Phone: phone, Lat: lat, Lng: lng, Speed: speed, Battery: battery,
	}}
}

func NewLostModeCommand(message string, playSiren bool) Envelope {
	return Envelope{Type: EventCommandExecute, Data: CommandExecute{
		Command: CommandActivateLostMode, Message: message, PlaySiren: playSiren,
	}}
}

func NewSOSAlert(fromName, fromPhone string, lat, lng float64, at time.Time) Envelope {
	return Envelope{Type: EventSOSAlert, Data: SOSAlert{
		FromName: fromName, FromPhone: fromPhone, Lat: lat, Lng: lng, Time: at,
	}}
}
