package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/painelbi/painel/authz"
)

// AuditService records security decisions (failed auth, denied capability
// checks) server-side and mirrors them to a Redis list for external
// consumers. Everything is best-effort: Redis being down never changes a
// request outcome.
type AuditService struct {
	Redis *redis.Client
	Queue string
}

func NewAuditService(rdb *redis.Client, queue string) *AuditService {
	return &AuditService{Redis: rdb, Queue: queue}
}

var _ authz.AuditSink = (*AuditService)(nil)

type auditRecord struct {
	authz.AuditEvent
	At time.Time `json:"at"`
}

// Record logs the event and pushes it to the audit queue when Redis is
// configured.
func (s *AuditService) Record(ctx context.Context, event authz.AuditEvent) {
	log.Printf("audit: type=%s principal=%s capability=%s detail=%s",
		event.Type, event.PrincipalID, event.Capability, event.Detail)

	if s.Redis == nil {
		return
	}

	payload, err := json.Marshal(auditRecord{AuditEvent: event, At: time.Now().UTC()})
	if err != nil {
		log.Printf("audit: failed to marshal event: %v", err)
		return
	}
	if err := s.Redis.LPush(ctx, s.Queue, payload).Err(); err != nil {
		log.Printf("audit: failed to push event: %v", err)
	}
}
