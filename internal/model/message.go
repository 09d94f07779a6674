package model

import "time"

type Message struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromId"`
	FromName  string    `json:"fromName"`
	ToID      string    `json:"toId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditEntry запись журнала действий, только добавляется
type AuditEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserRole  string    `json:"userRole"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
