package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/staffdesk/internal/config"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ModeLocal, cfg.Mode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StorageMemory, cfg.StorageBackend)
	assert.True(t, cfg.UseMockLLM)
	assert.Equal(t, 40, cfg.HistoryLimit)
	assert.Zero(t, cfg.ReplyPacing)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STAFFDESK_PORT", "9090")
	t.Setenv("STAFFDESK_STORAGE_BACKEND", "SQLite")
	t.Setenv("STAFFDESK_DB_PATH", "/tmp/x.db")
	t.Setenv("STAFFDESK_HISTORY_LIMIT", "12")
	t.Setenv("STAFFDESK_REPLY_PACING", "750ms")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, config.StorageSQLite, cfg.StorageBackend)
	assert.Equal(t, 12, cfg.HistoryLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.ReplyPacing)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":       {"STAFFDESK_STORAGE_BACKEND": "postgres"},
		"firestore w/o project": {"STAFFDESK_STORAGE_BACKEND": "firestore"},
		"gcp w/o project":       {"STAFFDESK_MODE": "gcp"},
		"bad history limit":     {"STAFFDESK_HISTORY_LIMIT": "many"},
		"bad pacing":            {"STAFFDESK_REPLY_PACING": "soon"},
		"real model w/o creds":  {"STAFFDESK_USE_MOCK_LLM": "false"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDefaultWorkspace(t *testing.T) {
	seed, err := config.LoadWorkspace("")
	require.NoError(t, err)

	assert.NotEmpty(t, seed.Company.Name)
	require.NotEmpty(t, seed.Employees)
	require.NotEmpty(t, seed.Projects)
	assert.Len(t, seed.Projects[0].Phases, 2)

	var assistants int
	for _, e := range seed.Employees {
		if e.Assistant {
			assistants++
		}
	}
	assert.Equal(t, 1, assistants)
}

func TestLoadWorkspaceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
company:
  name: Tiny Co
employees:
  - id: a
    name: Ann
    morale: 140
    tools: [task]
`), 0o600))

	seed, err := config.LoadWorkspace(path)
	require.NoError(t, err)
	assert.Equal(t, "Tiny Co", seed.Company.Name)
	require.Len(t, seed.Employees, 1)
	assert.Equal(t, 100, seed.Employees[0].Morale)
	assert.Equal(t, []domain.ActionKind{domain.ActionTask}, seed.Employees[0].Tools)
}

func TestParseWorkspaceErrors(t *testing.T) {
	cases := map[string]string{
		"no employees":  "company: {name: X}\n",
		"missing name":  "employees:\n  - id: a\n",
		"duplicate id":  "employees:\n  - {id: a, name: A}\n  - {id: a, name: B}\n",
		"unknown tool":  "employees:\n  - {id: a, name: A, tools: [fax]}\n",
		"unknown field": "employees:\n  - {id: a, name: A, salary: 3}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.ParseWorkspace([]byte(doc))
			assert.Error(t, err)
		})
	}
}
