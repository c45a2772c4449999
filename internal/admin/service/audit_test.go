package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
)

func TestRecordTruncatesUserAgentOnRuneBoundary(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	recorder := &AuditRecorder{Store: st}

	// A multi-byte rune straddles the cap; byte-wise truncation would split
	// it and persist invalid UTF-8.
	ua := strings.Repeat("a", domain.MaxUserAgentLen-1) + "日本語テスト"
	recorder.Record(ctx, "actor-1", "auth.login", WithRequestMeta(RequestMeta{UserAgent: ua}))

	entries, err := recorder.List(ctx, domain.AuditFilter{ActorID: "actor-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0].UserAgent
	require.True(t, utf8.ValidString(got))
	require.Equal(t, domain.MaxUserAgentLen, utf8.RuneCountInString(got))
	require.Equal(t, string([]rune(ua)[:domain.MaxUserAgentLen]), got)
}

func TestRecordKeepsShortUserAgent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	recorder := &AuditRecorder{Store: st}

	recorder.Record(ctx, "actor-2", "auth.login", WithRequestMeta(RequestMeta{UserAgent: "curl/8.5"}))

	entries, err := recorder.List(ctx, domain.AuditFilter{ActorID: "actor-2"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "curl/8.5", entries[0].UserAgent)
}
