// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/steam-harvest/pkg/types"
)

func TestLoad_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "progress.json"), nil)

	p := s.Load()
	assert.Equal(t, -1, p.LastPage)
	assert.NotNil(t, p.Games)
	assert.Empty(t, p.Games)
	assert.Equal(t, 0, p.NextPage())
}

func TestLoad_CorruptFileStartsFresh(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated json", `{"last_page": 3, "games": {"10": {"name": "Counter`},
		{"not json", "garbage"},
		{"wrong type", `{"last_page": "three"}`},
		{"invalid page", `{"last_page": -7, "games": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "progress.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			p := NewStore(path, nil).Load()
			assert.Equal(t, types.NoPageCompleted, p.LastPage)
			assert.Empty(t, p.Games)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "progress.json")
	s := NewStore(path, nil)

	in := types.CrawlProgress{
		LastPage: 3,
		Games: map[string]types.RawRecord{
			"10":  {"name": json.RawMessage(`"Counter-Strike"`), "ccu": json.RawMessage(`12000`)},
			"570": {"name": json.RawMessage(`"Dota 2"`), "price": json.RawMessage(`null`)},
		},
	}
	require.NoError(t, s.Save(in))

	out := s.Load()
	assert.Equal(t, 3, out.LastPage)
	assert.Equal(t, 4, out.NextPage())
	require.Len(t, out.Games, 2)
	assert.JSONEq(t, `"Dota 2"`, string(out.Games["570"]["name"]))

	_, state := out.Games["570"].Lookup("price")
	assert.Equal(t, types.FieldNull, state)
}

func TestSave_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	s := NewStore(path, nil)
	require.NoError(t, s.Save(types.CrawlProgress{LastPage: 0}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_page": 0, "games": {}}`, string(data))
}

func TestSave_OverwritesWithoutTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "progress.json"), nil)

	require.NoError(t, s.Save(types.CrawlProgress{LastPage: 0, Games: map[string]types.RawRecord{"1": {}}}))
	require.NoError(t, s.Save(types.CrawlProgress{LastPage: 1, Games: map[string]types.RawRecord{"1": {}, "2": {}}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "progress.json", entries[0].Name())
	assert.Equal(t, 1, s.Load().LastPage)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	s := NewStore(path, nil)

	require.NoError(t, s.Clear(), "clearing a missing file")
	require.NoError(t, s.Save(types.CrawlProgress{LastPage: 5}))
	require.NoError(t, s.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, -1, s.Load().LastPage)
}
