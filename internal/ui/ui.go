package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/pager"
	"github.com/desertthunder/festa/internal/services"
	"github.com/desertthunder/festa/internal/session"
	"github.com/desertthunder/festa/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	LoginView
)

// Tabs
const (
	FestivalsTab = iota
	JobsTab
	ReviewsTab
)

// Session is the part of [session.Manager] the TUI uses.
type Session interface {
	Snapshot() session.State
	Login(ctx context.Context, id, pw string) (*models.Profile, error)
	Subscribe() (<-chan session.State, func())
}

// FestivalClient is implemented by [services.FestivalService].
type FestivalClient interface {
	List(ctx context.Context, page int) ([]models.Festival, error)
	Get(ctx context.Context, id int64) (*models.Festival, error)
	ToggleLike(ctx context.Context, id int64) (*models.LikeState, error)
}

// JobClient is implemented by [services.JobService].
type JobClient interface {
	Urgent(ctx context.Context, page int) ([]models.Job, error)
}

// ReviewClient is implemented by [services.ReviewService].
type ReviewClient interface {
	All(ctx context.Context, page int) ([]models.Review, error)
	ToggleLike(ctx context.Context, reviewID int64) error
}

// RecentRecorder is implemented by [repositories.RecentFestivalRepository].
type RecentRecorder interface {
	Record(ctx context.Context, f models.FestivalSummary) error
}

// Deps are the collaborators of a [Model]. Recent and Logger are optional.
type Deps struct {
	Session   Session
	Festivals FestivalClient
	Jobs      JobClient
	Reviews   ReviewClient
	Recent    RecentRecorder
	Margin    int
	Logger    *log.Logger
}

type tab struct {
	name      string
	feed      feed
	list      list.Model
	overrides map[int]list.Item // items changed locally since the last page merge
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	deps     Deps
	logger   *log.Logger
	view     ViewState
	active   int
	tabs     []*tab
	sentinel pager.Sentinel

	width  int
	height int

	detailTitle string
	detailBody  string

	login       loginForm
	loginReason string
	returnTab   int

	state       session.State
	sessionCh   <-chan session.State
	unsubscribe func()

	status   string
	quitting bool
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("ui")

	m := &Model{
		ctx:      ctx,
		deps:     deps,
		logger:   logger,
		sentinel: pager.Sentinel{Margin: deps.Margin},
		width:    80,
		height:   24,
		login:    newLoginForm(),
		help:     help.New(),
		keys:     newKeyMap(),
		state:    deps.Session.Snapshot(),
	}
	m.tabs = []*tab{
		newTab("Festivals", newFeed[models.Festival](deps.Festivals.List, festivalItemOf, logger)),
		newTab("Jobs", newFeed[models.Job](deps.Jobs.Urgent, jobItemOf, logger)),
		newTab("Reviews", newFeed[models.Review](deps.Reviews.All, reviewItemOf, logger)),
	}
	m.resize()
	return m
}

func newTab(name string, f feed) *tab {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = name
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return &tab{name: name, feed: f, list: l, overrides: map[int]list.Item{}}
}

// Init subscribes to session changes and loads the first page of festivals.
func (m *Model) Init() tea.Cmd {
	m.sessionCh, m.unsubscribe = m.deps.Session.Subscribe()
	return tea.Batch(m.loadNext(FestivalsTab), m.waitForSession())
}

func (m *Model) current() *tab { return m.tabs[m.active] }

func (m *Model) resize() {
	for _, t := range m.tabs {
		t.list.SetSize(m.width, max(m.height-5, 3))
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		default:
			return m.handleListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageLoaded:
		return m, m.pageLoaded(msg.data.(pageLoaded))

	case MsgDetailLoaded:
		d := msg.data.(detailLoaded)
		if d.err != nil {
			m.detailTitle = "Error"
			m.detailBody = styles.err.Render(d.err.Error())
			return m, nil
		}
		m.detailTitle, m.detailBody = d.title, d.body
		return m, nil

	case MsgLiked:
		l := msg.data.(liked)
		if l.err != nil {
			if isUnauthorized(l.err) {
				return m, m.requireLogin("Log in to like")
			}
			m.status = styles.err.Render(fmt.Sprintf("Like failed: %v", l.err))
			return m, nil
		}
		t := m.tabs[l.tab]
		t.overrides[l.index] = l.item
		if l.index < len(t.list.Items()) {
			t.list.SetItem(l.index, l.item)
		}
		m.status = styles.ok.Render("Updated")
		return m, nil

	case MsgLoggedIn:
		li := msg.data.(loggedIn)
		m.login.busy = false
		if li.err != nil {
			m.login.err = li.err
			return m, nil
		}
		m.state = m.deps.Session.Snapshot()
		m.view = ListView
		m.active = m.returnTab
		if li.profile != nil {
			m.status = styles.ok.Render("Logged in as " + li.profile.DisplayName())
		} else {
			m.status = styles.warn.Render("Logged in, profile unavailable")
		}
		return m, nil

	case MsgSessionChanged:
		sc := msg.data.(sessionChanged)
		if !sc.ok {
			m.sessionCh = nil
			return m, nil
		}
		m.state = sc.state
		return m, m.waitForSession()

	case MsgSessionExpired:
		m.state = m.deps.Session.Snapshot()
		return m, m.requireLogin("Session expired, log in again")
	}
	return m, nil
}

// pageLoaded merges the feed into its list and decides whether another load is due.
func (m *Model) pageLoaded(p pageLoaded) tea.Cmd {
	t := m.tabs[p.tab]
	v := t.feed.view()
	t.apply(v)

	if p.err != nil {
		m.logger.Warn("page load failed", "tab", t.name, "page", v.page, "err", p.err)
		if isUnauthorized(p.err) && m.state.AccessToken != "" {
			return m.requireLogin("Session expired, log in again")
		}
		return nil
	}
	if m.quitting || !p.issued {
		return nil
	}

	switch {
	case v.status == pager.Idle && v.hasMore && len(v.items) == 0:
		// a reset discarded this result
		return m.loadNext(p.tab)
	case v.status == pager.Idle && m.sentinel.Near(t.list.Index(), len(v.items)):
		return m.trigger(p.tab)
	}
	return nil
}

func (t *tab) apply(v feedView) {
	for i, it := range t.overrides {
		if i < len(v.items) {
			v.items[i] = it
		}
	}
	t.list.SetItems(v.items)
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.current()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.next):
		return m, m.switchTab((m.active + 1) % len(m.tabs))
	case key.Matches(msg, m.keys.prev):
		return m, m.switchTab((m.active + len(m.tabs) - 1) % len(m.tabs))
	case msg.String() == "1", msg.String() == "2", msg.String() == "3":
		i, _ := strconv.Atoi(msg.String())
		return m, m.switchTab(i - 1)
	case key.Matches(msg, m.keys.enter):
		return m, m.openDetail()
	case key.Matches(msg, m.keys.like):
		return m, m.like()
	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.login):
		return m, m.requireLogin("")
	}

	before := t.list.Index()
	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	if idx := t.list.Index(); idx != before && m.sentinel.Near(idx, len(t.list.Items())) {
		return m, tea.Batch(cmd, m.trigger(m.active))
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		return m, nil
	case key.Matches(msg, m.keys.like):
		return m, m.like()
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = ListView
		m.active = m.returnTab
		return m, nil
	case "tab", "down":
		m.login.next()
		return m, nil
	case "shift+tab", "up":
		m.login.prev()
		return m, nil
	case "enter":
		if m.login.focus == 0 {
			m.login.next()
			return m, nil
		}
		return m, m.submitLogin()
	}
	return m, m.login.update(msg)
}

func (m *Model) switchTab(i int) tea.Cmd {
	if i < 0 || i >= len(m.tabs) {
		return nil
	}
	m.active = i
	m.status = ""
	if v := m.tabs[i].feed.view(); v.status == pager.Idle && v.hasMore && len(v.items) == 0 {
		return m.loadNext(i)
	}
	return nil
}

// requireLogin switches to the login prompt and remembers the tab to return to.
func (m *Model) requireLogin(reason string) tea.Cmd {
	if m.view != LoginView {
		m.returnTab = m.active
	}
	m.view = LoginView
	m.loginReason = reason
	m.login.reset()
	return nil
}

func (m *Model) refresh() tea.Cmd {
	t := m.current()
	t.feed.Reset()
	clear(t.overrides)
	t.list.SetItems([]list.Item{})
	t.list.ResetSelected()
	m.status = ""
	return m.loadNext(m.active)
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	for _, t := range m.tabs {
		t.feed.Close()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	return tea.Quit
}

func (m *Model) loadNext(i int) tea.Cmd {
	f := m.tabs[i].feed
	return func() tea.Msg {
		err := f.LoadNext(m.ctx)
		return pageLoadedMsg(i, true, err)
	}
}

func (m *Model) trigger(i int) tea.Cmd {
	f := m.tabs[i].feed
	return func() tea.Msg {
		issued, err := f.Trigger(m.ctx)
		return pageLoadedMsg(i, issued, err)
	}
}

func (m *Model) waitForSession() tea.Cmd {
	ch := m.sessionCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		return sessionChangedMsg(s, ok)
	}
}

func (m *Model) submitLogin() tea.Cmd {
	id, pw := m.login.values()
	if id == "" || pw == "" {
		m.login.err = fmt.Errorf("%w: id and password", shared.ErrMissingArgument)
		return nil
	}
	m.login.busy = true
	m.login.err = nil
	return func() tea.Msg {
		profile, err := m.deps.Session.Login(m.ctx, id, pw)
		return loggedInMsg(profile, err)
	}
}

func (m *Model) openDetail() tea.Cmd {
	t := m.current()
	switch it := t.list.SelectedItem().(type) {
	case festivalItem:
		m.view = DetailView
		m.detailTitle, m.detailBody = it.festival.Name, "Loading…"
		return m.fetchFestival(it.festival.ID)
	case jobItem:
		m.view = DetailView
		m.detailTitle, m.detailBody = it.job.Title, jobDetail(it.job)
	case reviewItem:
		m.view = DetailView
		m.detailTitle, m.detailBody = it.review.FestivalName, reviewDetail(it.review)
	}
	return nil
}

func (m *Model) fetchFestival(id int64) tea.Cmd {
	return func() tea.Msg {
		f, err := m.deps.Festivals.Get(m.ctx, id)
		if err != nil {
			return detailLoadedMsg("", "", err)
		}
		if m.deps.Recent != nil {
			if err := m.deps.Recent.Record(m.ctx, f.Summary()); err != nil {
				m.logger.Warn("failed to record recent festival", "id", f.ID, "err", err)
			}
		}
		return detailLoadedMsg(f.Name, string(formatter.ToText(formatter.FestivalDetail(f))), nil)
	}
}

func (m *Model) like() tea.Cmd {
	if !m.deps.Session.Snapshot().Authenticated {
		return m.requireLogin("Log in to like")
	}

	tabIdx := m.active
	t := m.current()
	idx := t.list.Index()

	switch it := t.list.SelectedItem().(type) {
	case festivalItem:
		return func() tea.Msg {
			st, err := m.deps.Festivals.ToggleLike(m.ctx, it.festival.ID)
			if err != nil {
				return likedMsg(tabIdx, idx, nil, err)
			}
			f := it.festival
			f.Like, f.LikeCount = st.Like, st.LikeCount
			return likedMsg(tabIdx, idx, festivalItem{festival: f}, nil)
		}
	case reviewItem:
		return func() tea.Msg {
			if err := m.deps.Reviews.ToggleLike(m.ctx, it.review.ID); err != nil {
				return likedMsg(tabIdx, idx, nil, err)
			}
			r := it.review
			r.Liked = !r.Liked
			if r.Liked {
				r.LikeCount++
			} else {
				r.LikeCount = max(r.LikeCount-1, 0)
			}
			return likedMsg(tabIdx, idx, reviewItem{review: r}, nil)
		}
	default:
		m.status = styles.warn.Render("Nothing to like here")
		return nil
	}
}

func isUnauthorized(err error) bool {
	return services.StatusCode(err) == http.StatusUnauthorized || session.IsExpired(err) || errors.Is(err, shared.ErrNotAuthenticated)
}

func jobDetail(j models.Job) string {
	pay := "-"
	if j.HourlyPay != nil {
		pay = strconv.Itoa(*j.HourlyPay)
	}
	rows := [][]string{
		{"Job", strconv.FormatInt(j.JobID, 10)},
		{"Festival", strconv.FormatInt(j.FestivalID, 10)},
		{"Summary", models.Deref(j.ShortDesc)},
		{"Hourly pay", pay},
		{"Work time", models.Deref(j.WorkTime)},
		{"Period", models.Deref(j.WorkPeriod)},
		{"Deadline", models.Deref(j.Deadline)},
		{"Preference", strings.Join(j.Preference, ", ")},
		{"Applicants", fmt.Sprintf("%d (%d hired)", j.ApplicantCount, j.HiredCount)},
		{"Status", string(j.Status)},
	}
	body := formatter.ToText(formatter.Table{Headers: []string{"Field", "Value"}, Rows: rows})
	if d := models.Deref(j.DetailDesc); d != "" {
		return string(body) + "\n" + d
	}
	return string(body)
}

func reviewDetail(r models.Review) string {
	rows := [][]string{
		{"Review", strconv.FormatInt(r.ID, 10)},
		{"Type", string(r.Type)},
		{"Rating", strings.Repeat("★", r.Rating)},
		{"Author", r.UserName},
		{"Likes", strconv.Itoa(r.LikeCount)},
		{"Posted", r.CreatedAt},
	}
	body := formatter.ToText(formatter.Table{Headers: []string{"Field", "Value"}, Rows: rows})
	return string(body) + "\n" + r.Content
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.view {
	case LoginView:
		body = m.login.view(m.loginReason)
	case DetailView:
		body = styles.title.Render(m.detailTitle) + "\n" + m.detailBody
	default:
		body = m.current().list.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m *Model) renderHeader() string {
	tabs := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		label := fmt.Sprintf("%d %s", i+1, t.name)
		if i == m.active {
			tabs[i] = styles.activeTab.Render(label)
		} else {
			tabs[i] = styles.tab.Render(label)
		}
	}

	var user string
	switch {
	case m.state.Authenticated && m.state.User != nil:
		user = styles.ok.Render("● " + m.state.User.DisplayName())
	case m.state.Loading:
		user = styles.help.Render("signing in…")
	case m.state.AccessToken != "":
		user = styles.warn.Render("○ profile unavailable")
	default:
		user = styles.help.Render("not logged in (L)")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, append(tabs, "  ", user)...)
}

func (m *Model) renderFooter() string {
	var line string
	if m.view == ListView {
		line = feedStatus(m.current().feed.view())
	}
	if m.status != "" {
		line = strings.TrimSpace(line + "  " + m.status)
	}

	var keys []key.Binding
	switch m.view {
	case LoginView:
		keys = []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.back,
		}
	case DetailView:
		keys = []key.Binding{m.keys.back, m.keys.like, m.keys.quit}
	default:
		keys = m.keys.ShortHelp()
	}
	return line + "\n" + m.help.ShortHelpView(keys)
}

func feedStatus(v feedView) string {
	switch v.status {
	case pager.Fetching:
		return styles.help.Render(fmt.Sprintf("Loading page %d…", v.page))
	case pager.Failed:
		return styles.err.Render(fmt.Sprintf("Failed: %v (r to retry)", v.err))
	case pager.Exhausted:
		return styles.help.Render(fmt.Sprintf("%d items • end of list", len(v.items)))
	default:
		return styles.help.Render(fmt.Sprintf("%d items • page %d", len(v.items), v.page))
	}
}
