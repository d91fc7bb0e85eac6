package intent

// Kind identifies one supported action.
type Kind string

const (
	OpenApp        Kind = "open_app"
	CloseApp       Kind = "close_app"
	Screenshot     Kind = "screenshot"
	MediaPlay      Kind = "media_play"
	MediaPause     Kind = "media_pause"
	MediaNext      Kind = "media_next"
	MediaPrevious  Kind = "media_previous"
	AFK            Kind = "afk"
	StopAFK        Kind = "stop_afk"
	MoveAround     Kind = "move_around"
	TypeChat       Kind = "type_chat"
	SpamChat       Kind = "spam_chat"
	TypeAIMessage  Kind = "type_ai_message"
	AddChatMessage Kind = "add_chat_message"
	OpenWebsite    Kind = "open_website"
	SearchWeb      Kind = "search_web"
	TakePicture    Kind = "take_picture"
	ListSteamGames Kind = "list_steam_games"
	Clip           Kind = "clip"
	Unknown        Kind = "unknown"
)

var kinds = []Kind{
	OpenApp, CloseApp, Screenshot,
	MediaPlay, MediaPause, MediaNext, MediaPrevious,
	AFK, StopAFK, MoveAround,
	TypeChat, SpamChat, TypeAIMessage, AddChatMessage,
	OpenWebsite, SearchWeb,
	TakePicture, ListSteamGames, Clip,
}

// Kinds returns every supported kind in a stable order. Unknown is not part
// of it.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func (k Kind) Valid() bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// Field names an optional parameter of an Intent.
type Field string

const (
	FieldAppName     Field = "app_name"
	FieldTextMessage Field = "text_message"
	FieldWebsiteName Field = "website_name"
	FieldSearchQuery Field = "search_query"
)

type Intent struct {
	Kind        Kind   `json:"intent"`
	Description string `json:"description,omitempty"`
	AppName     string `json:"app_name,omitempty"`
	TextMessage string `json:"text_message,omitempty"`
	WebsiteName string `json:"website_name,omitempty"`
	SearchQuery string `json:"search_query,omitempty"`
}

// Get returns the value of f, or "" when unset.
func (i Intent) Get(f Field) string {
	switch f {
	case FieldAppName:
		return i.AppName
	case FieldTextMessage:
		return i.TextMessage
	case FieldWebsiteName:
		return i.WebsiteName
	case FieldSearchQuery:
		return i.SearchQuery
	}
	return ""
}

// Missing reports which of the given fields are empty.
func (i Intent) Missing(fields ...Field) []Field {
	var out []Field
	for _, f := range fields {
		if i.Get(f) == "" {
			out = append(out, f)
		}
	}
	return out
}
