package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageLoaded MsgKind = iota
	MsgDetailLoaded
	MsgLiked
	MsgLoggedIn
	MsgSessionChanged
	MsgSessionExpired
)

type pageLoaded struct {
	tab    int
	issued bool
	err    error
}

type detailLoaded struct {
	title string
	body  string
	err   error
}

type liked struct {
	tab   int
	index int
	item  list.Item
	err   error
}

type loggedIn struct {
	profile *models.Profile
	err     error
}

type sessionChanged struct {
	state session.State
	ok    bool
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(tab int, issued bool, err error) Msg {
	return Msg{kind: MsgPageLoaded, data: pageLoaded{tab: tab, issued: issued, err: err}}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg(title, body string, err error) Msg {
	return Msg{kind: MsgDetailLoaded, data: detailLoaded{title: title, body: body, err: err}}
}

// likedMsg is the constructor for [MsgLiked]
func likedMsg(tab, index int, item list.Item, err error) Msg {
	return Msg{kind: MsgLiked, data: liked{tab: tab, index: index, item: item, err: err}}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(profile *models.Profile, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: loggedIn{profile: profile, err: err}}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(s session.State, ok bool) Msg {
	return Msg{kind: MsgSessionChanged, data: sessionChanged{state: s, ok: ok}}
}

// SessionExpiredMsg tells the model the session was force-cleared. Send it from a
// [session.Manager.OnExpired] hook with [tea.Program.Send].
func SessionExpiredMsg() tea.Msg {
	return Msg{kind: MsgSessionExpired}
}
