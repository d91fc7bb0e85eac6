// Package steam reads the local Steam library and launches installed games.
package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

var (
	ErrNotInstalled = errors.New("steam library not found")
	ErrGameNotFound = errors.New("steam game not found")
)

var (
	pathRe  = regexp.MustCompile(`"path"\s+"([^"]+)"`)
	nameRe  = regexp.MustCompile(`"name"\s+"([^"]+)"`)
	appIDRe = regexp.MustCompile(`"appid"\s+"(\d+)"`)
)

type Game struct {
	Name    string
	AppID   string
	Library string
}

// LaunchURL is the steam:// URL that starts the game.
func (g Game) LaunchURL() string {
	return "steam://rungameid/" + g.AppID
}

// DefaultRoots lists the usual Steam install directories for this OS.
func DefaultRoots() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("PROGRAMFILES(X86)"), "Steam"),
			filepath.Join(os.Getenv("PROGRAMFILES"), "Steam"),
			filepath.Join(home, "Steam"),
		}
	case "darwin":
		return []string{filepath.Join(home, "Library", "Application Support", "Steam")}
	default:
		return []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, "Steam"),
		}
	}
}

// Library scans Steam install roots for installed games.
type Library struct {
	roots []string
	open  func(url string) error
}

func NewLibrary(roots []string, open func(url string) error) *Library {
	return &Library{roots: roots, open: open}
}

// parseLibraryFolders extracts library paths from libraryfolders.vdf.
func parseLibraryFolders(content string) []string {
	var out []string
	for _, m := range pathRe.FindAllStringSubmatch(content, -1) {
		// vdf escapes backslashes in Windows paths
		out = append(out, strings.ReplaceAll(m[1], `\\`, `\`))
	}
	return out
}

// parseManifest reads name and appid from an appmanifest_*.acf file.
func parseManifest(content string) (Game, bool) {
	name := nameRe.FindStringSubmatch(content)
	id := appIDRe.FindStringSubmatch(content)
	if name == nil || id == nil {
		return Game{}, false
	}
	return Game{Name: name[1], AppID: id[1]}, true
}

// Games returns every installed game sorted by name.
func (l *Library) Games() ([]Game, error) {
	found := false
	byName := make(map[string]Game)

	for _, root := range l.roots {
		data, err := os.ReadFile(filepath.Join(root, "steamapps", "libraryfolders.vdf"))
		if err != nil {
			continue
		}
		found = true

		libs := parseLibraryFolders(string(data))
		if len(libs) == 0 {
			libs = []string{root}
		}

		for _, lib := range libs {
			manifests, _ := filepath.Glob(filepath.Join(lib, "steamapps", "*.acf"))
			for _, mf := range manifests {
				content, err := os.ReadFile(mf)
				if err != nil {
					continue
				}
				g, ok := parseManifest(string(content))
				if !ok {
					continue
				}
				g.Library = lib
				byName[strings.ToLower(g.Name)] = g
			}
		}
	}

	if !found {
		return nil, ErrNotInstalled
	}

	games := make([]Game, 0, len(byName))
	for _, g := range byName {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		return strings.ToLower(games[i].Name) < strings.ToLower(games[j].Name)
	})
	return games, nil
}

// Find matches name against installed games: exact (case-insensitive) first,
// then substring.
func (l *Library) Find(name string) (Game, error) {
	games, err := l.Games()
	if err != nil {
		return Game{}, err
	}
	return match(games, name)
}

func match(games []Game, name string) (Game, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Game{}, ErrGameNotFound
	}
	for _, g := range games {
		if strings.ToLower(g.Name) == needle {
			return g, nil
		}
	}
	for _, g := range games {
		if strings.Contains(strings.ToLower(g.Name), needle) {
			return g, nil
		}
	}
	return Game{}, ErrGameNotFound
}

// Launch finds the game called name and starts it through the steam://
// protocol.
func (l *Library) Launch(name string) (Game, error) {
	g, err := l.Find(name)
	if err != nil {
		return Game{}, err
	}
	if err := l.open(g.LaunchURL()); err != nil {
		return g, fmt.Errorf("launch %s: %w", g.Name, err)
	}
	return g, nil
}

// FormatList renders games as a numbered list for speech and display.
func FormatList(games []Game) string {
	if len(games) == 0 {
		return "No Steam games found. Make sure Steam is installed and you have games in your library."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d Steam games:", len(games))
	for i, g := range games {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, g.Name)
	}
	return sb.String()
}
