package applemusic

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sukalov/uta/internal/utils/e"
)

// Kind is the catalog resource an identifier points at.
type Kind string

const (
	KindSong  Kind = "song"
	KindAlbum Kind = "album"
)

type Identifier struct {
	Kind Kind
	ID   string
}

// ParseIdentifier resolves a music.apple.com URL or a bare catalog ID.
//
//	https://music.apple.com/us/album/name/1440857781?i=1440857786  song 1440857786
//	https://music.apple.com/us/album/name/1440857781               album 1440857781
//	https://music.apple.com/us/song/name/1440857786                song 1440857786
//	1440857786                                                     song 1440857786
//
// A URL pasted without its scheme (music.apple.com/us/...) is read as https.
func ParseIdentifier(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, e.Newf(e.ErrNotFound, "parse url", "empty identifier")
	}
	if isDigits(raw) {
		return Identifier{Kind: KindSong, ID: raw}, nil
	}

	if !strings.Contains(raw, "://") && hasAppleMusicPrefix(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Identifier{}, e.New(e.ErrNotFound, "parse url", err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || !IsAppleMusicHost(u.Host) {
		return Identifier{}, e.Newf(e.ErrNotFound, "parse url", "not an Apple Music URL: %s", raw)
	}

	if id := u.Query().Get("i"); id != "" {
		return Identifier{Kind: KindSong, ID: id}, nil
	}

	segments := splitPath(u.Path)
	if len(segments) == 0 {
		return Identifier{}, e.Newf(e.ErrNotFound, "parse url", "no catalog id in %s", raw)
	}
	id := segments[len(segments)-1]

	for _, seg := range segments {
		switch seg {
		case "song":
			return Identifier{Kind: KindSong, ID: id}, nil
		case "album":
			return Identifier{Kind: KindAlbum, ID: id}, nil
		}
	}
	return Identifier{}, e.Newf(e.ErrNotFound, "parse url", "unsupported resource type in %s", raw)
}

// IsAppleMusicHost reports whether host serves the Apple Music web player.
func IsAppleMusicHost(host string) bool {
	host = strings.ToLower(host)
	return host == "music.apple.com" || strings.HasSuffix(host, ".music.apple.com")
}

func hasAppleMusicPrefix(raw string) bool {
	host, _, _ := strings.Cut(raw, "/")
	host, _, _ = strings.Cut(host, "?")
	return host != "" && IsAppleMusicHost(host)
}

func (id Identifier) String() string {
	return fmt.Sprintf("%s %s", id.Kind, id.ID)
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
