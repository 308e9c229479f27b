// Package sessions is the call lifecycle authority. It records which calls
// run in which scope, who is in them, and hands out the ICE server list
// clients should use.
package sessions

import (
	"database/sql"
	"time"

	"github.com/bcroc/teamchat/internal/core"
)

// Call is a row of the calls table.
type Call struct {
	ID         core.CallID    `db:"id" json:"id"`
	ChannelID  sql.NullString `db:"channel_id" json:"-"`
	DMThreadID sql.NullString `db:"dm_thread_id" json:"-"`
	StartedBy  string         `db:"started_by" json:"started_by"`
	StartedAt  time.Time      `db:"started_at" json:"started_at"`
	EndedAt    sql.NullTime   `db:"ended_at" json:"-"`
}

func (c *Call) Scope() core.CallScope {
	scope := core.CallScope{}
	if c.ChannelID.Valid {
		scope.Type = core.ChannelScope
		scope.ChannelID = c.ChannelID.String
	}
	if c.DMThreadID.Valid {
		scope.Type = core.DMThreadScope
		scope.DMThreadID = c.DMThreadID.String
	}
	return scope
}

func (c *Call) Ended() bool {
	return c.EndedAt.Valid
}

// Participant is a row of the call_participants table. LeftAt null means
// currently in the call.
type Participant struct {
	CallID      core.CallID  `db:"call_id"`
	UserID      core.UserID  `db:"user_id"`
	DisplayName string       `db:"display_name"`
	JoinedAt    time.Time    `db:"joined_at"`
	LeftAt      sql.NullTime `db:"left_at"`
}

func (p *Participant) Info() core.ParticipantInfo {
	return core.ParticipantInfo{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
	}
}
