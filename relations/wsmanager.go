package relations

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WSConnManager tracks open websocket connections per account.
type WSConnManager struct {
	mu       sync.RWMutex
	accounts map[int64][]*websocket.Conn
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		accounts: make(map[int64][]*websocket.Conn),
	}
}

func (m *WSConnManager) Add(accountID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[accountID] = append(m.accounts[accountID], conn)
}

func (m *WSConnManager) Remove(accountID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns := m.accounts[accountID]
	for i, c := range conns {
		if c == conn {
			m.accounts[accountID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(m.accounts[accountID]) == 0 {
		delete(m.accounts, accountID)
	}
}

func (m *WSConnManager) Send(accountID int64, message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.accounts[accountID] {
		_ = conn.WriteMessage(websocket.TextMessage, message)
	}
}

var GlobalWSConnManager = NewWSConnManager()
