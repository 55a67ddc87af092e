package ports

import (
	"context"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// ResultSink persiste los resultados de un torneo terminado.
type ResultSink interface {
	// SaveRun persiste leaderboard, trades y curvas de equity de un run.
	SaveRun(ctx context.Context, result domain.TournamentResult) error

	// Close cierra la conexión limpiamente.
	Close() error
}
