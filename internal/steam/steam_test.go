package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestTmpl = `"AppState"
{
	"appid"		"%s"
	"Universe"		"1"
	"name"		"%s"
	"StateFlags"		"4"
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fakeInstall lays out a Steam root whose library lives in a second folder.
func fakeInstall(t *testing.T) (root string) {
	root = t.TempDir()
	lib := t.TempDir()

	writeFile(t, filepath.Join(root, "steamapps", "libraryfolders.vdf"), `"libraryfolders"
{
	"0"
	{
		"path"		"`+lib+`"
		"label"		""
	}
}`)

	games := map[string][2]string{
		"appmanifest_730.acf":     {"730", "Counter-Strike 2"},
		"appmanifest_570.acf":     {"570", "Dota 2"},
		"appmanifest_1172470.acf": {"1172470", "Apex Legends"},
	}
	for file, g := range games {
		writeFile(t, filepath.Join(lib, "steamapps", file), fmt.Sprintf(manifestTmpl, g[0], g[1]))
	}
	writeFile(t, filepath.Join(lib, "steamapps", "appmanifest_broken.acf"), `"AppState" {}`)
	return root
}

func TestParseLibraryFolders(t *testing.T) {
	content := `"libraryfolders"
{
	"0" { "path"		"C:\\Program Files (x86)\\Steam" }
	"1" { "path"		"/mnt/games/SteamLibrary" }
}`
	assert.Equal(t, []string{`C:\Program Files (x86)\Steam`, "/mnt/games/SteamLibrary"}, parseLibraryFolders(content))
}

func TestParseManifest(t *testing.T) {
	g, ok := parseManifest(fmt.Sprintf(manifestTmpl, "730", "Counter-Strike 2"))
	require.True(t, ok)
	assert.Equal(t, Game{Name: "Counter-Strike 2", AppID: "730"}, g)

	_, ok = parseManifest(`"AppState" { "name" "x" }`)
	assert.False(t, ok)
}

func TestLibrary_Games(t *testing.T) {
	l := NewLibrary([]string{"/does/not/exist", fakeInstall(t)}, nil)

	games, err := l.Games()
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "Apex Legends", games[0].Name)
	assert.Equal(t, "Counter-Strike 2", games[1].Name)
	assert.Equal(t, "Dota 2", games[2].Name)
}

func TestLibrary_NotInstalled(t *testing.T) {
	l := NewLibrary([]string{t.TempDir()}, nil)
	_, err := l.Games()
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestLibrary_Find(t *testing.T) {
	l := NewLibrary([]string{fakeInstall(t)}, nil)

	tests := []struct {
		query string
		want  string
		err   error
	}{
		{"dota 2", "Dota 2", nil},
		{"counter-strike", "Counter-Strike 2", nil},
		{"APEX", "Apex Legends", nil},
		{"minecraft", "", ErrGameNotFound},
		{"", "", ErrGameNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			g, err := l.Find(tt.query)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Name)
		})
	}
}

func TestLibrary_Launch(t *testing.T) {
	var opened string
	l := NewLibrary([]string{fakeInstall(t)}, func(u string) error {
		opened = u
		return nil
	})

	g, err := l.Launch("dota")
	require.NoError(t, err)
	assert.Equal(t, "Dota 2", g.Name)
	assert.Equal(t, "steam://rungameid/570", opened)

	l.open = func(string) error { return errors.New("no handler") }
	_, err = l.Launch("dota")
	assert.Error(t, err)
}

func TestFormatList(t *testing.T) {
	assert.Equal(t,
		"No Steam games found. Make sure Steam is installed and you have games in your library.",
		FormatList(nil))
	assert.Equal(t,
		"Found 2 Steam games:\n1. Apex Legends\n2. Dota 2",
		FormatList([]Game{{Name: "Apex Legends"}, {Name: "Dota 2"}}))
}
