package stateupdater

import (
	"context"

	"admin-alerts/internal/infra"
	"admin-alerts/internal/usecase/commands"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUpdater applies status transitions with compare-and-set
// preconditions, so a replayed event never clobbers newer state.
type PostgresUpdater struct {
	pool *pgxpool.Pool
}

func NewPostgresUpdater(pool *pgxpool.Pool) *PostgresUpdater {
	return &PostgresUpdater{pool: pool}
}

func (u *PostgresUpdater) ApplyTransition(
	ctx context.Context,
	ref commands.EntityRef,
	proposed string,
	precondition []string,
) (commands.TransitionResult, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return commands.TransitionSkipped, err
	}

	tag, err := u.pool.Exec(ctx,
		`UPDATE `+table+` SET status = $1, updated_at = now() WHERE id = $2 AND status = ANY($3)`,
		proposed, ref.ID, precondition,
	)
	if err != nil {
		return commands.TransitionSkipped, infra.WrapRepoErr("failed to apply status transition", err)
	}
	if tag.RowsAffected() == 1 {
		return commands.TransitionApplied, nil
	}

	// The precondition did not hold. Distinguish a missing row from a row
	// already past this transition: both skip, but a missing row is a repo
	// error the caller may want to log louder.
	var current string
	err = u.pool.QueryRow(ctx,
		`SELECT status FROM `+table+` WHERE id = $1`, ref.ID,
	).Scan(&current)
	if err != nil {
		return commands.TransitionSkipped, infra.WrapRepoErr("failed to read current status", err)
	}
	return commands.TransitionSkipped, nil
}

func tableFor(kind commands.EntityKind) (string, error) {
	switch kind {
	case commands.EntityProduct:
		return "products", nil
	case commands.EntityOrder:
		return "orders", nil
	default:
		return "", infra.WrapRepoErrKind(infra.KindDBFailure, "unknown entity kind: "+string(kind), nil)
	}
}
