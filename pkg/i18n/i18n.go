// Package i18n holds the user-facing gateway and botctl messages in English
// and Chinese.
package i18n

import (
	"reflect"
	"strings"
	"sync/atomic"
)

type Language string

const (
	LangEN Language = "en"
	LangZH Language = "zh"
)

// Messages has one field per message; fields are looked up by name in Get.
type Messages struct {
	// Gateway
	Starting           string
	ConfigLoaded       string
	UsingDBPath        string
	UsingBackend       string
	WaitingForBackend  string
	BackendReady       string
	BackendUnreachable string
	ServerListening    string
	ShuttingDown       string
	ConfigLoadFailed   string
	DBInitFailed       string
	PaletteLoadFailed  string
	APIServerError     string

	// Editor sessions
	EditorConnected    string
	EditorDisconnected string
	EditorBadMessage   string

	// botctl
	LoggedIn         string
	LoggedOut        string
	Registered       string
	NotLoggedIn      string
	ConfirmDeleteBot string
	BotDeleted       string
	BotStarted       string
	BotStopped       string
	DraftSaved       string
	DraftSubmitted   string
	DraftNotReady    string
	ThemeChanged     string
	Aborted          string
	NoResults        string
}

// catalogs lists the translations; English is the fallback.
var catalogs = map[Language]*Messages{
	LangEN: &messagesEN,
	LangZH: &messagesZH,
}

type active struct {
	lang Language
	msgs *Messages
}

var current atomic.Pointer[active]

func init() {
	SetLanguage(LangEN)
}

// SetLanguage switches every later lookup to lang. Unknown languages fall
// back to English.
func SetLanguage(lang Language) {
	msgs, ok := catalogs[lang]
	if !ok {
		lang, msgs = LangEN, &messagesEN
	}
	current.Store(&active{lang: lang, msgs: msgs})
}

// ParseLanguage maps a config value to a Language, defaulting to English.
func ParseLanguage(s string) Language {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "zh") {
		return LangZH
	}
	return LangEN
}

func GetLanguage() Language { return current.Load().lang }

// M returns the active catalog.
func M() *Messages { return current.Load().msgs }

// Get looks a message up by field name, e.g. Get("LoggedIn"). An unknown
// key is returned as is so a typo shows up in the output.
func Get(key string) string {
	f := reflect.ValueOf(M()).Elem().FieldByName(key)
	if !f.IsValid() || f.Kind() != reflect.String {
		return key
	}
	return f.String()
}
