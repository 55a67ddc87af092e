package ports

import (
	"context"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// Notifier presenta el estado del torneo al usuario.
type Notifier interface {
	// NotifyStatus muestra el estado periódico de todas las estrategias.
	NotifyStatus(ctx context.Context, entries []domain.LeaderboardEntry) error

	// NotifyLeaderboard muestra la clasificación final ordenada.
	NotifyLeaderboard(ctx context.Context, entries []domain.LeaderboardEntry) error
}
