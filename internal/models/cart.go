package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinQuantity = 1
	MaxQuantity = 10

	// MaxCustomizationLength bounds each free-text customization field.
	MaxCustomizationLength = 250
)

type Customizations struct {
	Message             string `json:"message,omitempty"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// CustomizationPatch carries the fields to merge into a line's customizations.
// Nil fields are left untouched.
type CustomizationPatch struct {
	Message             *string `json:"message"`
	SpecialInstructions *string `json:"specialInstructions"`
}

type CartItem struct {
	ID             uuid.UUID      `json:"id"`
	Product        Product        `json:"product"`
	Quantity       int            `json:"quantity"`
	Customizations Customizations `json:"customizations"`
	AddedAt        time.Time      `json:"addedAt"`
}

type Cart struct {
	Items []CartItem `json:"items"`
}
