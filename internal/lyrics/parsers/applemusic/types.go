package applemusic

// Payload is one track's lyrics as returned by the catalog.
type Payload struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	TTML   string `json:"ttml"`
	// Syllable is true when TTML came from the syllable-lyrics relationship.
	Syllable bool `json:"syllable"`
}

// Album is an album with every track's lyrics. Tracks without lyrics keep
// an empty TTML.
type Album struct {
	ID     string
	Name   string
	Artist string
	Tracks []Payload
}

// Storefront identifies the catalog region of the account.
type Storefront struct {
	ID       string
	Language string
}

type storefrontAttributes struct {
	Name                  string   `json:"name"`
	DefaultLanguageTag    string   `json:"defaultLanguageTag"`
	SupportedLanguageTags []string `json:"supportedLanguageTags"`
	ExplicitContentPolicy string   `json:"explicitContentPolicy"`
}

type storefrontData struct {
	ID         string               `json:"id"`
	Type       string               `json:"type"`
	Href       string               `json:"href"`
	Attributes storefrontAttributes `json:"attributes"`
}

type storefrontResponse struct {
	Data []storefrontData `json:"data"`
}

type catalogAttributes struct {
	Name       string `json:"name"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName"`
}

type lyricsAttributes struct {
	TTML string `json:"ttml"`
}

type lyricsData struct {
	ID         string           `json:"id"`
	Attributes lyricsAttributes `json:"attributes"`
}

type lyricsRelationship struct {
	Data []lyricsData `json:"data"`
}

func (l lyricsRelationship) ttml() string {
	if len(l.Data) == 0 {
		return ""
	}
	return l.Data[0].Attributes.TTML
}

type songRelationships struct {
	Lyrics         lyricsRelationship `json:"lyrics"`
	SyllableLyrics lyricsRelationship `json:"syllable-lyrics"`
}

// pick returns the TTML for the requested mode, falling back to
// line-timed lyrics when no syllable lyrics exist.
func (r songRelationships) pick(syllable bool) (string, bool) {
	if syllable {
		if t := r.SyllableLyrics.ttml(); t != "" {
			return t, true
		}
	}
	return r.Lyrics.ttml(), false
}

type songData struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Href          string            `json:"href"`
	Attributes    catalogAttributes `json:"attributes"`
	Relationships songRelationships `json:"relationships"`
}

func (s songData) payload(syllable bool, album string) Payload {
	ttml, isSyllable := s.Relationships.pick(syllable)
	if s.Attributes.AlbumName != "" {
		album = s.Attributes.AlbumName
	}
	return Payload{
		ID:       s.ID,
		Title:    s.Attributes.Name,
		Artist:   s.Attributes.ArtistName,
		Album:    album,
		TTML:     ttml,
		Syllable: isSyllable,
	}
}

type songResponse struct {
	Data []songData `json:"data"`
}

type albumRelationships struct {
	Tracks struct {
		Data []songData `json:"data"`
	} `json:"tracks"`
}

type albumData struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Href          string             `json:"href"`
	Attributes    catalogAttributes  `json:"attributes"`
	Relationships albumRelationships `json:"relationships"`
}

type albumResponse struct {
	Data []albumData `json:"data"`
}

type apiError struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type errorResponse struct {
	Errors []apiError `json:"errors"`
}
