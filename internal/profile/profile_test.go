package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookup(t *testing.T) {
	d := Default()
	assert.Equal(t, "Panha", d.Lookup("User 1").Name)
	assert.Equal(t, "So Panha", d.Lookup("User 2").Name)
	assert.Equal(t, Profile{Name: "Alice"}, d.Lookup("Alice"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := `profiles:
  "User 1":
    name: Dara
    avatar: dara.png
  bot:
    avatar: bot.png
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Profile{Name: "Dara", Avatar: "dara.png"}, d.Lookup("User 1"))
	assert.Equal(t, Profile{Name: "bot", Avatar: "bot.png"}, d.Lookup("bot"))
	assert.Equal(t, "User 2", d.Lookup("User 2").Name)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [oops"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
