package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-profiles/internal/domain"
)

type recordingHandler struct {
	batches [][]domain.ScoreSubmission
}

func (r *recordingHandler) SubmitScoreBatch(_ context.Context, submissions []domain.ScoreSubmission) int {
	batch := make([]domain.ScoreSubmission, len(submissions))
	copy(batch, submissions)
	r.batches = append(r.batches, batch)
	return len(submissions)
}

func TestDecodeSession(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
		check   func(t *testing.T, s domain.ScoreSubmission)
	}{
		{
			name:  "loose numeric fields",
			value: `{"player_id":"04:A3:2F","game_name":"tetris","score":"1200","level":3.0,"lines":"12"}`,
			check: func(t *testing.T, s domain.ScoreSubmission) {
				assert.Equal(t, "04:A3:2F", s.PlayerID)
				assert.Equal(t, "tetris", s.GameName)
				assert.EqualValues(t, 1200, s.Result.Score)
				assert.EqualValues(t, 3, s.Result.Level)
				assert.EqualValues(t, 12, s.Result.Lines)
			},
		},
		{
			name:  "shooter top level stats",
			value: `{"player_id":"p1","game_name":"spaceships","score":500,"accuracy":87.5,"ship_used":"falcon"}`,
			check: func(t *testing.T, s domain.ScoreSubmission) {
				assert.Equal(t, 87.5, s.Result.CustomStats["accuracy"])
				assert.Equal(t, "falcon", s.Result.CustomStats["shipUsed"])
			},
		},
		{name: "malformed json", value: `{"player_id":`, wantErr: true},
		{name: "missing player", value: `{"game_name":"tetris","score":1}`, wantErr: true},
		{name: "bad game name", value: `{"player_id":"p1","game_name":"Tetris!","score":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submission, err := DecodeSession([]byte(tt.value))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, submission)
		})
	}
}

func TestBatcher(t *testing.T) {
	handler := &recordingHandler{}
	b := newBatcher(handler, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, b.add(domain.ScoreSubmission{PlayerID: "a"}))
	assert.True(t, b.add(domain.ScoreSubmission{PlayerID: "b"}))
	assert.False(t, b.add(domain.ScoreSubmission{PlayerID: "c"}))
	b.flush()
	b.flush()

	require.Len(t, handler.batches, 2)
	assert.Equal(t, "a", handler.batches[0][0].PlayerID)
	assert.Equal(t, "b", handler.batches[0][1].PlayerID)
	require.Len(t, handler.batches[1], 1)
	assert.Equal(t, "c", handler.batches[1][0].PlayerID)
}
