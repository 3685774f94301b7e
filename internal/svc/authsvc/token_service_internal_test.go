package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/jwtauth/internal/domain"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

func TestTokenService_IssueLogSurvivesRedaction(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("log-test-secret"))
	require.NoError(t, err)

	var buf bytes.Buffer

	svc := NewTokenService(nil, codec, time.Hour, nil)
	svc.log = slog.New(logging.NewRedactingHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	now := time.Unix(1700000000, 0)

	token, err := svc.Issue(context.Background(), domain.PublicUser{Username: "alice"}, TokenKindLogin, now)
	require.NoError(t, err)

	var line struct {
		Msg   string `json:"msg"`
		Issue struct {
			Kind string `json:"kind"`
			Sub  string `json:"sub"`
			Exp  string `json:"exp"`
		} `json:"issue"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())

	assert.Equal(t, "token issued", line.Msg)
	assert.Equal(t, TokenKindLogin, line.Issue.Kind)
	assert.Equal(t, "alice", line.Issue.Sub)
	assert.Equal(t, now.Add(time.Hour).UTC().Format(time.RFC3339), line.Issue.Exp)
	assert.NotContains(t, buf.String(), token)
}
