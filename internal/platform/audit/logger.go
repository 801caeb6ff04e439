package audit

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Logger records merchant dashboard actions (payment confirmations, key
// revocations, subscription changes) for after-the-fact reconciliation
// disputes. Writes are asynchronous; losing a row is acceptable.
type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Log(r *http.Request, userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	metaJSON, _ := json.Marshal(metadata)

	ip := ""
	ua := ""
	if r != nil {
		ip = r.RemoteAddr
		ua = r.UserAgent()
	}

	id := "audit_" + uuid.New().String()
	createdAt := time.Now().Unix()

	go func() {
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, userID, action, resourceType, resourceID, string(metaJSON), ip, ua, createdAt)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("failed to write audit log")
		}
	}()
}
