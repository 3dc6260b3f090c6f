// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/ledring/internal/led"
	"github.com/smazurov/ledring/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// Status models
type ConnectionData struct {
	State          string `json:"state" example:"connected" enum:"disconnected,connecting,connected" doc:"Serial connection state"`
	Port           string `json:"port" example:"/dev/ttyACM0" doc:"Configured serial port"`
	BaudRate       int    `json:"baud_rate" example:"9600" doc:"Configured baud rate"`
	Attempts       int    `json:"attempts" example:"0" doc:"Failed open attempts since the last connection"`
	LastError      string `json:"last_error,omitempty" doc:"Last open or transport error"`
	ConnectedSince string `json:"connected_since,omitempty" example:"2025-01-27T10:30:00Z" doc:"When the current connection was established"`
}

type PulseData struct {
	Active     bool   `json:"active" example:"true" doc:"Whether a pulse is running"`
	Generation uint64 `json:"generation" example:"4" doc:"Pulse session generation"`
	Command    string `json:"command,omitempty" example:"pulse:255,0,0,2" doc:"Pulse command being retransmitted"`
	Speed      int    `json:"speed,omitempty" example:"2" doc:"Pulse duration in seconds"`
	DelayMs    int64  `json:"delay_ms,omitempty" example:"1000" doc:"Gap between pulses in ms"`
	PeriodMs   int64  `json:"period_ms,omitempty" example:"3000" doc:"Retransmission period in ms"`
	Sends      int    `json:"sends,omitempty" example:"12" doc:"Pulses sent in this session"`
	StartedAt  string `json:"started_at,omitempty" example:"2025-01-27T10:30:00Z" doc:"Session start"`
}

type StatusData struct {
	Connection ConnectionData `json:"connection" doc:"Serial link"`
	Pulse      PulseData      `json:"pulse" doc:"Pulse scheduler"`
	DryRun     bool           `json:"dry_run" example:"false" doc:"Commands are logged instead of sent"`
}

type StatusResponse struct {
	Body StatusData
}

// Effect models
type EffectsData struct {
	Effects  []string `json:"effects" doc:"Effect names accepted by POST /api/effects"`
	Patterns []string `json:"patterns" doc:"Built-in animations that take no parameters"`
}

type EffectsResponse struct {
	Body EffectsData
}

type EffectRequest struct {
	Body led.Request
}

type CommandRequestData struct {
	Command string `json:"command" minLength:"1" maxLength:"64" example:"rgb:255,0,0" doc:"Raw wire command"`
}

type CommandRequest struct {
	Body CommandRequestData
}

type ActionData struct {
	Status  string `json:"status" example:"ok" doc:"Result"`
	Effect  string `json:"effect,omitempty" example:"pulse" doc:"Effect applied"`
	Command string `json:"command,omitempty" example:"stop" doc:"Raw command handed to the controller"`
}

type ActionResponse struct {
	Body ActionData
}
