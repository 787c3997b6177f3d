package client

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fenggwsx/NickDirectory/internal/config"
	"github.com/fenggwsx/NickDirectory/internal/directory"
	"github.com/fenggwsx/NickDirectory/internal/protocol"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

// Directory is the part of the record store the client drives.
type Directory interface {
	Dispatch(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Subscribe(observer directory.Observer) string
	Unsubscribe(id string) bool
}

const changeBuffer = 16

// App implements the bubbletea tea.Model interface for the terminal client.
type App struct {
	ctx          context.Context
	cfg          config.ClientConfig
	dir          Directory
	subscription string
	changes      chan storage.Address

	input    textinput.Model
	viewport viewport.Model
	helper   help.Model
	styles   styleSet
	commands []commandSpec

	records []storage.Record
	sort    storage.SortKey
	view    primaryView
	logLine logEntry

	width      int
	height     int
	showHelp   bool
	helpView   string
	helpHeight int
}

type primaryView int

const (
	viewRecords primaryView = iota
	viewHelp
)

func (v primaryView) String() string {
	switch v {
	case viewHelp:
		return "help"
	default:
		return "records"
	}
}

type logLevel int

const (
	logLevelInfo logLevel = iota
	logLevelError
)

type logEntry struct {
	level logLevel
	label string
	body  string
}

type styleSet struct {
	title         lipgloss.Style
	view          lipgloss.Style
	label         lipgloss.Style
	value         lipgloss.Style
	logLabel      lipgloss.Style
	logBody       lipgloss.Style
	logLabelError lipgloss.Style
	logBodyError  lipgloss.Style
	help          lipgloss.Style
}

// recordsMsg carries a fresh listing. announce is set when the user asked for it.
type recordsMsg struct {
	records  []storage.Record
	announce bool
	err      error
}

// resultMsg reports the outcome of a mutation.
type resultMsg struct {
	text string
	err  error
}

// changeMsg is delivered when the store notifies a change.
type changeMsg struct {
	addr storage.Address
}

// NewApp returns a Bubble Tea model bound to dir. The app subscribes to
// change notifications until it quits.
func NewApp(ctx context.Context, cfg config.ClientConfig, dir Directory) *App {
	if cfg.CommandPrefix == 0 {
		cfg.CommandPrefix = '/'
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = string(cfg.CommandPrefix) + "add <name> <nickname>"
	input.Focus()

	app := &App{
		ctx:      ctx,
		cfg:      cfg,
		dir:      dir,
		changes:  make(chan storage.Address, changeBuffer),
		input:    input,
		viewport: viewport.New(0, 0),
		helper:   help.New(),
		styles:   buildStyles(),
		commands: defaultCommands(cfg.CommandPrefix),
		sort:     storage.DefaultSort,
		view:     viewRecords,
		logLine:  logEntry{label: "INFO", body: "Type " + string(cfg.CommandPrefix) + "help to list commands."},
	}
	app.subscription = dir.Subscribe(app.observe)
	app.updateViewportContent()
	return app
}

// observe forwards notifications without blocking the store.
func (a *App) observe(addr storage.Address) {
	select {
	case a.changes <- addr:
	default:
	}
}

// Init is part of the tea.Model interface.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.loadRecords(false), a.waitForChange())
}

// Update handles user input and internal events.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.height = m.Height
		a.updateInputWidth()
		a.updateViewportSize()
		a.updateViewportContent()
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case recordsMsg:
		a.handleRecords(m)
		return a, nil
	case resultMsg:
		a.handleResult(m)
		return a, nil
	case changeMsg:
		return a, tea.Batch(a.loadRecords(false), a.waitForChange())
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, a.quit()
	case tea.KeyEsc:
		a.input.SetValue("")
		a.updateHelp()
		a.updateViewportSize()
		return a, nil
	case tea.KeyPgUp:
		a.viewport.LineUp(a.viewport.Height)
		return a, nil
	case tea.KeyPgDown:
		a.viewport.LineDown(a.viewport.Height)
		return a, nil
	case tea.KeyTab:
		a.handleTabCompletion()
		a.updateHelp()
		return a, nil
	case tea.KeyEnter:
		value := a.input.Value()
		a.input.SetValue("")
		a.updateHelp()
		a.updateViewportSize()
		return a, a.handleSubmit(value)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.updateHelp()
	a.updateViewportSize()
	return a, cmd
}

func (a *App) handleRecords(msg recordsMsg) {
	if msg.err != nil {
		a.logErrorf("Load failed: %v", msg.err)
		return
	}
	a.records = msg.records
	a.updateViewportContent()
	if !msg.announce {
		return
	}
	if len(a.records) == 0 {
		a.logf("Content Provider Results: no content yet!")
		return
	}
	a.logf("Content Provider Results: %d records sorted by %s", len(a.records), a.sort)
}

func (a *App) handleResult(msg resultMsg) {
	if msg.err != nil {
		a.logErrorf("%v", msg.err)
		return
	}
	a.logf("%s", msg.text)
}

func (a *App) quit() tea.Cmd {
	if a.subscription != "" {
		a.dir.Unsubscribe(a.subscription)
		a.subscription = ""
	}
	return tea.Quit
}

func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case addr := <-a.changes:
			return changeMsg{addr: addr}
		case <-a.ctx.Done():
			return nil
		}
	}
}
