package models

import "github.com/google/uuid"

// Category: рубрика обращений.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
}

// State: штат или союзная территория.
type State struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
	Type string    `json:"type"`
}

// City: населённый пункт внутри State.
type City struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsCapital bool      `json:"isCapital"`
	StateName string    `json:"stateName"`
}
