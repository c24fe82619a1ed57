// MoonPrint
// Copyright (c) 2026 The MoonPrint Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of MoonPrint.
//
// MoonPrint is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// MoonPrint is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with MoonPrint.  If not, see <http://www.gnu.org/licenses/>.

// Package notifications defines the lifecycle events the protocol engine and
// the control panel publish to the presentation layer.
package notifications

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

const (
	PrinterConnected    = "printer.connected"
	PrinterDisconnected = "printer.disconnected"
	PrintStarted        = "print.started"
	PrintFinished       = "print.finished"
	SubmissionFinished  = "submission.finished"
	TemperatureUpdated  = "temperature.updated"
)

// Notification is a single event. Params holds the JSON encoded payload, if
// the event carries one.
type Notification struct {
	Method string
	Params json.RawMessage
}

type ConnectionParams struct {
	Path string `json:"path"`
}

type PrintParams struct {
	JobID string `json:"jobId"`
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
	Sent  int    `json:"sent"`
	Total int    `json:"total"`
}

type SubmissionParams struct {
	Lines int `json:"lines"`
}

type TemperatureParams struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// sendNotification never blocks: the protocol worker calls it between a read
// and the next write, so a slow consumer loses events instead of stalling the
// printer.
func sendNotification(ns chan<- Notification, method string, payload any) {
	if ns == nil {
		return
	}

	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("failed to marshal notification payload")
			return
		}
		params = data
	}

	select {
	case ns <- Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func Connected(ns chan<- Notification, payload ConnectionParams) {
	sendNotification(ns, PrinterConnected, payload)
}

func Disconnected(ns chan<- Notification, payload ConnectionParams) {
	sendNotification(ns, PrinterDisconnected, payload)
}

func PrintingStarted(ns chan<- Notification, payload PrintParams) {
	sendNotification(ns, PrintStarted, payload)
}

func PrintingFinished(ns chan<- Notification, payload PrintParams) {
	sendNotification(ns, PrintFinished, payload)
}

func SubmissionDone(ns chan<- Notification, payload SubmissionParams) {
	sendNotification(ns, SubmissionFinished, payload)
}

func Temperature(ns chan<- Notification, payload TemperatureParams) {
	sendNotification(ns, TemperatureUpdated, payload)
}
