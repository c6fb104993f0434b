package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scopedLogger(buf *bytes.Buffer, scope *Scope) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewTextHandler(buf, nil), scope))
}

func TestContextHandler_StampsScope(t *testing.T) {
	var buf bytes.Buffer
	project := ""
	log := scopedLogger(&buf, &Scope{
		Project: func() string { return project },
		Storage: func() string { return "sqlite" },
	})

	log.Info("before open")
	assert.NotContains(t, buf.String(), "project=")
	assert.Contains(t, buf.String(), "storage=sqlite")

	buf.Reset()
	project = "warehouse"
	log.Info("after open")
	assert.Contains(t, buf.String(), "project=warehouse")
}

func TestContextHandler_CallerKeyWins(t *testing.T) {
	var buf bytes.Buffer
	log := scopedLogger(&buf, &Scope{Project: func() string { return "default" }})

	log.Info("import", KeyProject, "site-7")
	assert.Equal(t, 1, strings.Count(buf.String(), "project="))
	assert.Contains(t, buf.String(), "project=site-7")

	buf.Reset()
	log.With(KeyProject, "site-8").Info("export")
	assert.Equal(t, 1, strings.Count(buf.String(), "project="))
	assert.Contains(t, buf.String(), "project=site-8")
}

func TestContextHandler_GroupsAndNilScope(t *testing.T) {
	var buf bytes.Buffer
	log := scopedLogger(&buf, &Scope{Storage: func() string { return "memory" }})

	log.WithGroup("sync").Info("queued", "lane", "sync")
	assert.Contains(t, buf.String(), "sync.lane=sync")
	assert.Contains(t, buf.String(), "sync.storage=memory")

	buf.Reset()
	scopedLogger(&buf, nil).Info("plain")
	assert.NotContains(t, buf.String(), "storage=")

	h := NewContextHandler(slog.NewTextHandler(&buf, nil), nil)
	assert.Same(t, h, h.WithGroup(""))
}
