// Package history records finished hands and actions to Postgres for
// offline review. Recording is fire-and-forget through a buffered queue
// so no database I/O ever happens while a room lock is held. A nil
// *Recorder is valid and records nothing.
package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"holdem-rooms/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS hands (
	id TEXT PRIMARY KEY,
	room_id TEXT NOT NULL,
	players TEXT[] NOT NULL,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	ended_at TIMESTAMPTZ,
	pot BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS hand_actions (
	id BIGSERIAL PRIMARY KEY,
	hand_id TEXT NOT NULL,
	player_id TEXT NOT NULL,
	action TEXT NOT NULL,
	amount BIGINT NOT NULL,
	at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS hand_results (
	id BIGSERIAL PRIMARY KEY,
	hand_id TEXT NOT NULL,
	player_id TEXT NOT NULL,
	amount BIGINT NOT NULL
);
`

type eventKind int

const (
	evHandStarted eventKind = iota
	evAction
	evHandSettled
)

type event struct {
	kind     eventKind
	handID   string
	roomID   string
	playerID string
	action   string
	amount   int64
	pot      int64
	players  []string
	winners  []game.Winner
}

type Recorder struct {
	pool *pgxpool.Pool
	ch   chan event
	done chan struct{}
}

// Open connects, bootstraps the schema and starts the writer goroutine.
func Open(ctx context.Context, dsn string) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}
	r := &Recorder{
		pool: pool,
		ch:   make(chan event, 256),
		done: make(chan struct{}),
	}
	go r.run()
	return r, nil
}

func (r *Recorder) Close() {
	if r == nil {
		return
	}
	close(r.done)
	r.pool.Close()
}

func (r *Recorder) run() {
	for {
		select {
		case <-r.done:
			return
		case ev := <-r.ch:
			r.write(ev)
		}
	}
}

func (r *Recorder) write(ev event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch ev.kind {
	case evHandStarted:
		_, err = r.pool.Exec(ctx,
			`INSERT INTO hands (id, room_id, players) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			ev.handID, ev.roomID, ev.players)
	case evAction:
		_, err = r.pool.Exec(ctx,
			`INSERT INTO hand_actions (hand_id, player_id, action, amount) VALUES ($1, $2, $3, $4)`,
			ev.handID, ev.playerID, ev.action, ev.amount)
	case evHandSettled:
		_, err = r.pool.Exec(ctx,
			`UPDATE hands SET ended_at = now(), pot = $2 WHERE id = $1`,
			ev.handID, ev.pot)
		if err == nil {
			for _, w := range ev.winners {
				if _, werr := r.pool.Exec(ctx,
					`INSERT INTO hand_results (hand_id, player_id, amount) VALUES ($1, $2, $3)`,
					ev.handID, w.PlayerID, w.Amount); werr != nil {
					err = werr
					break
				}
			}
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("hand", ev.handID).Msg("history_write_failed")
	}
}

// enqueue drops the event when the queue is full; hand history is best
// effort and must never stall gameplay.
func (r *Recorder) enqueue(ev event) {
	if r == nil {
		return
	}
	select {
	case r.ch <- ev:
	default:
		log.Warn().Str("hand", ev.handID).Msg("history_queue_full")
	}
}

func (r *Recorder) HandStarted(handID, roomID string, players []string) {
	r.enqueue(event{kind: evHandStarted, handID: handID, roomID: roomID, players: players})
}

func (r *Recorder) ActionApplied(handID, playerID, action string, amount int64) {
	r.enqueue(event{kind: evAction, handID: handID, playerID: playerID, action: action, amount: amount})
}

func (r *Recorder) HandSettled(handID string, pot int64, winners []game.Winner) {
	r.enqueue(event{kind: evHandSettled, handID: handID, pot: pot, winners: winners})
}
