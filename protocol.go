package main

import "encoding/json"

// Client -> Server message types
const (
	MsgLogin         = "login"
	MsgMove          = "move"
	MsgRotate        = "rotate"
	MsgShoot         = "shoot"
	MsgPause         = "pause"
	MsgSetDimensions = "setDimensions"
	MsgCollectPickup = "collectPickup"
	MsgPing          = "ping"
)

// Server -> Client message types
const (
	MsgUpdate             = "update" // sent as a msgpack binary frame
	MsgDead               = "dead"
	MsgExplosion          = "explosion"
	MsgPositionCorrection = "position-correction"
	MsgLoginConfirm       = "login-confirm"
	MsgPickupSpawned      = "pickupSpawned"
	MsgPickupDespawned    = "pickupDespawned"
	MsgPickupCollected    = "pickupCollected"
	MsgPickupEffectEnded  = "pickupEffectEnded"
	MsgAutoShot           = "autoShot"
	MsgPong               = "pong"
	MsgError              = "error"
)

// Envelope wraps all outgoing text messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D stays raw until the type is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// LoginMsg asks to enter the arena. Password claims or verifies the name;
// Token resumes a previous session.
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

// MoveMsg carries a movement delta and, optionally, the client's predicted position
type MoveMsg struct {
	DX      float64  `json:"x"`
	DY      float64  `json:"y"`
	ClientX *float64 `json:"clientX,omitempty"`
	ClientY *float64 `json:"clientY,omitempty"`
}

type RotateMsg struct {
	Angle float64 `json:"angle"`
}

// ShootMsg optionally carries the client's muzzle position and aim
type ShootMsg struct {
	ClientX *float64 `json:"clientX,omitempty"`
	ClientY *float64 `json:"clientY,omitempty"`
	Angle   *float64 `json:"angle,omitempty"`
}

type PauseMsg struct {
	Paused bool `json:"paused"`
}

type DimensionsMsg struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type CollectPickupMsg struct {
	PickupID string `json:"pickupId"`
}

// EffectState describes a running power-up in the snapshot
type EffectState struct {
	ActivatedAt int64 `json:"activatedAt" msgpack:"activatedAt"` // unix ms
	Duration    int64 `json:"duration" msgpack:"duration"`       // ms
}

// PlayerState is broadcast per player
type PlayerState struct {
	X             float64                `json:"x" msgpack:"x"`
	Y             float64                `json:"y" msgpack:"y"`
	Angle         float64                `json:"angle" msgpack:"angle"`
	Username      string                 `json:"username" msgpack:"username"`
	Color         string                 `json:"color" msgpack:"color"`
	Paused        bool                   `json:"paused" msgpack:"paused"`
	Score         int                    `json:"score" msgpack:"score"`
	Upgrade       int                    `json:"upgrade" msgpack:"upgrade"`
	ActivePickups map[string]EffectState `json:"activePickups,omitempty" msgpack:"activePickups,omitempty"`
}

// BotState is broadcast per bot
type BotState struct {
	ID    string  `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Angle float64 `json:"angle" msgpack:"angle"`
	Color string  `json:"color" msgpack:"color"`
}

// BulletState is broadcast per active bullet
type BulletState struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Angle float64 `json:"angle" msgpack:"angle"`
	Color string  `json:"color" msgpack:"color"`
}

// PickupState is broadcast per pickup and in pickupSpawned
type PickupState struct {
	ID        string  `json:"id" msgpack:"id"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Type      string  `json:"type" msgpack:"type"`
	CreatedAt int64   `json:"createdAt" msgpack:"createdAt"`
}

// WorldSnapshot is the full state broadcast
type WorldSnapshot struct {
	Players map[string]PlayerState `json:"players" msgpack:"players"`
	Bots    []BotState             `json:"bots" msgpack:"bots"`
	Bullets []BulletState          `json:"bullets" msgpack:"bullets"`
	Pickups []PickupState          `json:"pickups" msgpack:"pickups"`
	Tick    uint64                 `json:"tick" msgpack:"tick"`
}

// UpdateFrame is the binary update message
type UpdateFrame struct {
	T string        `msgpack:"t"`
	D WorldSnapshot `msgpack:"d"`
}

type ExplosionMsg struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Size  int     `json:"size"`
}

type PositionCorrectionMsg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LoginConfirmMsg tells a client where it spawned
type LoginConfirmMsg struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Color    string   `json:"color"`
	Username string   `json:"username"`
	Token    string   `json:"token,omitempty"`
}

type PickupDespawnedMsg struct {
	PickupID string `json:"pickupId"`
}

type PickupCollectedMsg struct {
	PickupID string  `json:"pickupId"`
	PlayerID string  `json:"playerId"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type PickupEffectEndedMsg struct {
	Type string `json:"type"`
}

// AutoShotMsg announces a bullet fired by an auto-shooter effect
type AutoShotMsg struct {
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	TargetID string  `json:"targetId"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
