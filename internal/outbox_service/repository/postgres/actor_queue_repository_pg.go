package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
	"github.com/enerhub/edi_services/internal/outbox_service/repository"
)

type pgActorMessageQueueRepository struct {
	logger *slog.Logger
}

// NewPgActorMessageQueueRepository creates the PostgreSQL mailbox repository.
func NewPgActorMessageQueueRepository(logger *slog.Logger) repository.ActorMessageQueueRepository {
	return &pgActorMessageQueueRepository{logger: logger.With("repository", "actor_message_queue")}
}

const selectQueueForUpdate = `
	SELECT id, actor_number, actor_role, created_at
	FROM actor_message_queues
	WHERE actor_number = $1 AND actor_role = $2
	FOR UPDATE
`

func (r *pgActorMessageQueueRepository) GetOrCreateForUpdate(ctx context.Context, q repository.Querier, actor core.Actor) (*domain.ActorMessageQueue, error) {
	queue, err := r.GetForUpdate(ctx, q, actor)
	if err != nil {
		return nil, err
	}
	if queue != nil {
		return queue, nil
	}

	// Lazy creation. ON CONFLICT DO NOTHING keeps a concurrent first enqueue
	// from failing; the follow-up locked read returns whichever row won.
	insert := `
		INSERT INTO actor_message_queues (id, actor_number, actor_role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (actor_number, actor_role) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, uuid.New(), actor.Number, actor.Role, time.Now().UTC()); err != nil {
		return nil, err
	}

	queue, err = r.GetForUpdate(ctx, q, actor)
	if err != nil {
		return nil, err
	}
	return queue, nil
}

func (r *pgActorMessageQueueRepository) GetForUpdate(ctx context.Context, q repository.Querier, actor core.Actor) (*domain.ActorMessageQueue, error) {
	queue := &domain.ActorMessageQueue{}
	err := q.QueryRow(ctx, selectQueueForUpdate, actor.Number, actor.Role).Scan(
		&queue.ID, &queue.ActorNumber, &queue.ActorRole, &queue.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return queue, nil
}
