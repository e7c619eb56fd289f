package audit

import (
	"context"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/pkg/utils"
)

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]common_models.AuditLog, error)
}

// UserFinder resolves actor display names for log listings.
type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]common_models.User, error)
}

type AuditServiceImpl struct {
	Repo  AuditRepository
	Users UserFinder
}

func NewAuditService(repo AuditRepository, users UserFinder) AuditService {
	return &AuditServiceImpl{
		Repo:  repo,
		Users: users,
	}
}

// LogChange records who did what to which record. The actor is taken from the
// request claims when present, otherwise attributed to "system" (scheduler,
// auto-started workflows).
func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	actorID := "system"
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		actorID = claims.UserID
	}

	entry := common_models.AuditLog{
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now().UTC(),
	}
	return s.Repo.Create(ctx, entry)
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]common_models.AuditLog, error) {
	logs, err := s.Repo.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	if s.Users != nil && len(logs) > 0 {
		ids := make([]string, 0, len(logs))
		seen := make(map[string]bool)
		for _, l := range logs {
			if l.ActorID != "" && l.ActorID != "system" && !seen[l.ActorID] {
				seen[l.ActorID] = true
				ids = append(ids, l.ActorID)
			}
		}
		if users, err := s.Users.FindByIDs(ctx, ids); err == nil {
			byID := make(map[string]common_models.User, len(users))
			for _, u := range users {
				byID[u.ID.Hex()] = u
			}
			for i := range logs {
				if u, ok := byID[logs[i].ActorID]; ok {
					logs[i].ActorName = u.Username
				}
			}
		}
	}
	return logs, nil
}
