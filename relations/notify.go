package relations

import (
	"encoding/json"
	"log"
)

// Notifier is the external notification collaborator. The engine tells it
// what happened; rendering and delivery are not its concern.
type Notifier interface {
	Notify(accountID int64, notifyType, message string)
}

type wsNotifyPayload struct {
	NotifyType string `json:"notify_type"`
	Message    string `json:"message"`
}

// WSNotifier pushes notifications to the account's open websocket sessions.
type WSNotifier struct {
	manager *WSConnManager
}

func NewWSNotifier(manager *WSConnManager) *WSNotifier {
	return &WSNotifier{manager: manager}
}

func (n *WSNotifier) Notify(accountID int64, notifyType, message string) {
	if len(notifyType) == 0 {
		notifyType = "info"
	}
	if len(message) == 0 {
		return
	}
	if len(message) > 100 {
		message = message[:100] + "..."
	}
	payload := wsNotifyPayload{NotifyType: notifyType, Message: message}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal notification for account %d: %v", accountID, err)
		return
	}
	n.manager.Send(accountID, jsonData)
}
