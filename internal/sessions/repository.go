package sessions

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bcroc/teamchat/internal/core"
)

type CallsDBStorer interface {
	Create(scope core.CallScope, startedBy core.UserID) (*Call, error)
	Find(id core.CallID) (*Call, error)
	FindActiveByScope(scope core.CallScope) (*Call, error)
	AddParticipant(id core.CallID, userID core.UserID, displayName string) error
	RemoveParticipant(id core.CallID, userID core.UserID) (remaining int, err error)
	Participants(id core.CallID) ([]*Participant, error)
	End(id core.CallID) error
}

type CallsRepository struct {
	db *sqlx.DB
}

func NewCallsRepository(db *sqlx.DB) CallsDBStorer {
	return &CallsRepository{
		db: db,
	}
}

func (r *CallsRepository) Create(scope core.CallScope, startedBy core.UserID) (*Call, error) {
	call := &Call{}

	var channelID, dmThreadID sql.NullString
	switch scope.Type {
	case core.ChannelScope:
		channelID = sql.NullString{String: scope.ChannelID, Valid: true}
	case core.DMThreadScope:
		dmThreadID = sql.NullString{String: scope.DMThreadID, Valid: true}
	}

	err := r.db.Get(call,
		`INSERT INTO calls
			(id, channel_id, dm_thread_id, started_by, started_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, channel_id, dm_thread_id, started_by, started_at, ended_at`,
		uuid.New().String(),
		channelID,
		dmThreadID,
		string(startedBy),
	)
	if err != nil {
		return nil, err
	}

	return call, nil
}

func (r *CallsRepository) Find(id core.CallID) (*Call, error) {
	call := &Call{}

	err := r.db.Get(call,
		`SELECT id, channel_id, dm_thread_id, started_by, started_at, ended_at
		FROM calls
		WHERE id = $1 LIMIT 1`,
		string(id),
	)
	if err != nil {
		return nil, err
	}

	return call, nil
}

// FindActiveByScope returns the running call in a scope, if any. A scope
// carries at most one active call; starting in a scope that already has one
// joins it instead.
func (r *CallsRepository) FindActiveByScope(scope core.CallScope) (*Call, error) {
	call := &Call{}

	var err error
	switch scope.Type {
	case core.ChannelScope:
		err = r.db.Get(call,
			`SELECT id, channel_id, dm_thread_id, started_by, started_at, ended_at
			FROM calls
			WHERE channel_id = $1 AND ended_at IS NULL LIMIT 1`,
			scope.ChannelID,
		)
	case core.DMThreadScope:
		err = r.db.Get(call,
			`SELECT id, channel_id, dm_thread_id, started_by, started_at, ended_at
			FROM calls
			WHERE dm_thread_id = $1 AND ended_at IS NULL LIMIT 1`,
			scope.DMThreadID,
		)
	default:
		return nil, core.ErrInvalidScope
	}

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return call, nil
}

func (r *CallsRepository) AddParticipant(id core.CallID, userID core.UserID, displayName string) error {
	_, err := r.db.Exec(
		`INSERT INTO call_participants
			(call_id, user_id, display_name, joined_at, left_at)
		VALUES ($1, $2, $3, NOW(), NULL)
		ON CONFLICT ON CONSTRAINT uniq_call_participants DO UPDATE
			SET
				joined_at = EXCLUDED.joined_at,
				display_name = EXCLUDED.display_name,
				left_at = NULL`,
		string(id),
		string(userID),
		displayName,
	)
	return err
}

// RemoveParticipant marks the participant as gone and reports how many are
// still in the call, so the handler can finish a drained call.
func (r *CallsRepository) RemoveParticipant(id core.CallID, userID core.UserID) (int, error) {
	_, err := r.db.Exec(
		`UPDATE call_participants SET left_at = NOW()
		WHERE call_id = $1 AND user_id = $2 AND left_at IS NULL`,
		string(id),
		string(userID),
	)
	if err != nil {
		return 0, err
	}

	var remaining int
	err = r.db.Get(&remaining,
		`SELECT COUNT(*) FROM call_participants
		WHERE call_id = $1 AND left_at IS NULL`,
		string(id),
	)
	if err != nil {
		return 0, err
	}

	return remaining, nil
}

func (r *CallsRepository) Participants(id core.CallID) ([]*Participant, error) {
	participants := []*Participant{}

	err := r.db.Select(&participants,
		`SELECT call_id, user_id, display_name, joined_at, left_at
		FROM call_participants
		WHERE call_id = $1 AND left_at IS NULL
		ORDER BY joined_at ASC`,
		string(id),
	)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *CallsRepository) End(id core.CallID) error {
	_, err := r.db.Exec(
		`UPDATE calls SET ended_at = NOW() WHERE id = $1 AND ended_at IS NULL`,
		string(id),
	)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`UPDATE call_participants SET left_at = NOW()
		WHERE call_id = $1 AND left_at IS NULL`,
		string(id),
	)
	return err
}
