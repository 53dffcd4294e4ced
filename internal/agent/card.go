// Package agent holds the A2A agent card advertised at /.well-known/agent.json.
package agent

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed agent.json
var cardData []byte

// Card returns the raw agent card document.
func Card() []byte {
	return cardData
}

// CardInfo is the subset of the card checked at startup.
type CardInfo struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

// LoadCardInfo parses the embedded card.
func LoadCardInfo() (CardInfo, error) {
	var info CardInfo
	if err := json.Unmarshal(cardData, &info); err != nil {
		return CardInfo{}, fmt.Errorf("parse agent card: %w", err)
	}
	return info, nil
}
