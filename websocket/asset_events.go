package websocket

import (
	"encoding/json"
	"log"

	"github.com/tsiemasilo/pulse-app-system-sub000/assets"
)

// Notifier implements assets.Notifier by fanning asset events out to every
// connected client in the agent's organization.
type Notifier struct{}

func NewNotifier() Notifier { return Notifier{} }

func (Notifier) PublishAssetEvent(event assets.AssetEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal asset event: %v", err)
		return
	}
	hub.broadcast <- BroadcastMessage{OrgID: event.OrgID, Message: data}
}
