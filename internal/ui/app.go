package ui

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/keywatch/internal/command"
	"github.com/abelbrown/keywatch/internal/config"
	"github.com/abelbrown/keywatch/internal/fetch"
	"github.com/abelbrown/keywatch/internal/filter"
	"github.com/abelbrown/keywatch/internal/store"
)

// Cycler triggers fetch cycles and reschedules the periodic timer.
// Implemented by coord.Coordinator.
type Cycler interface {
	Trigger()
	Reschedule(d time.Duration)
}

// Archive replays recently archived items. Implemented by store.Store.
type Archive interface {
	Recent(n int) ([]store.Item, error)
}

// markupRe matches the highlight spans produced by the match engine.
var markupRe = regexp.MustCompile(
	regexp.QuoteMeta(filter.BoldOpen) + `(.*?)` + regexp.QuoteMeta(filter.BoldClose))

// App is the root Bubble Tea model: an append-only result stream, a
// single-line command input, and a status bar.
type App struct {
	cfg     *config.Manager
	cycler  Cycler
	archive Archive

	view  viewport.Model
	input textinput.Model
	spin  spinner.Model

	lines    []string
	fetching bool
	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the App. The archive may be nil (history disabled).
func New(cfg *config.Manager, cycler Cycler, archive Archive) App {
	ti := textinput.New()
	ti.Prompt = Prompt.Render("> ")
	ti.Placeholder = `+"keyword" to track, help for commands`
	ti.CharLimit = 256
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		cfg:     cfg,
		cycler:  cycler,
		archive: archive,
		input:   ti,
		spin:    sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spin.Tick)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		streamHeight := msg.Height - 2 // status bar + input line
		if streamHeight < 1 {
			streamHeight = 1
		}
		if !a.ready {
			a.view = viewport.New(msg.Width, streamHeight)
			a.ready = true
			a.refreshStream()
		} else {
			a.view.Width = msg.Width
			a.view.Height = streamHeight
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "enter":
			line := a.input.Value()
			a.input.SetValue("")
			return a.dispatch(line)
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			a.view, cmd = a.view.Update(msg)
			return a, cmd
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		a.view, cmd = a.view.Update(msg)
		return a, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case CycleStarted:
		a.fetching = true
		return a, nil

	case CycleComplete:
		a.fetching = false
		a.showCycle(msg)
		return a, nil

	case CycleDropped:
		a.appendLine(ItemMeta.Render("fetch already in progress, request dropped"))
		return a, nil
	}

	return a, nil
}

// dispatch parses and executes one command line.
func (a App) dispatch(line string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(line) == "" {
		return a, nil
	}

	cmd, err := command.Parse(line)
	if err != nil {
		a.appendLine(ErrorLine.Render("error: " + err.Error()))
		return a, nil
	}

	switch cmd.Kind {
	case command.KindAddKeyword, command.KindRemoveKeyword:
		a.mutateKeywords(cmd)

	case command.KindSourceLimit:
		if cmd.Default {
			a.cfg.ClearSourceLimit(cmd.Source)
			a.appendLine(InfoLine.Render(fmt.Sprintf("%s limit reset to global default", cmd.Source)))
		} else if err := a.cfg.SetSourceLimit(cmd.Source, cmd.N); err != nil {
			a.appendLine(ErrorLine.Render("error: " + err.Error()))
			return a, nil
		} else {
			a.appendLine(InfoLine.Render(fmt.Sprintf("%s limit set to %d", cmd.Source, cmd.N)))
		}
		a.autosave()

	case command.KindShowSettings:
		a.appendLines(a.settingsSummary())

	case command.KindList:
		a.appendLines(a.keywordListing())

	case command.KindGlobalLimit:
		if err := a.cfg.SetGlobalLimit(cmd.N); err != nil {
			a.appendLine(ErrorLine.Render("error: " + err.Error()))
			return a, nil
		}
		a.appendLine(InfoLine.Render(fmt.Sprintf("global result limit set to %d", cmd.N)))
		a.autosave()

	case command.KindInterval:
		if err := a.cfg.SetInterval(cmd.N); err != nil {
			a.appendLine(ErrorLine.Render("error: " + err.Error()))
			return a, nil
		}
		a.cycler.Reschedule(a.cfg.Interval())
		a.appendLine(InfoLine.Render(fmt.Sprintf("fetch interval set to %dm", cmd.N)))
		a.autosave()

	case command.KindSetDefault:
		if err := a.cfg.SetDefault(cmd.File); err != nil {
			a.appendLine(ErrorLine.Render("error: " + err.Error()))
			return a, nil
		}
		a.appendLine(InfoLine.Render(fmt.Sprintf("%s is now the default settings file", cmd.File)))

	case command.KindSave:
		if err := a.cfg.Save(cmd.File); err != nil {
			a.appendLine(ErrorLine.Render("error: " + err.Error()))
			return a, nil
		}
		a.appendLine(InfoLine.Render("settings saved to " + cmd.File))

	case command.KindLoad:
		switch err := a.cfg.Load(cmd.File); {
		case errors.Is(err, config.ErrNotFound):
			a.appendLine(ErrorLine.Render("no settings file matching " + cmd.File))
			return a, nil
		case err != nil:
			a.appendLine(ErrorLine.Render("error: " + err.Error()))
			return a, nil
		}
		a.cycler.Reschedule(a.cfg.Interval())
		a.appendLine(InfoLine.Render("settings loaded from " + cmd.File))
		a.autosave()

	case command.KindFetch:
		a.cycler.Trigger()

	case command.KindClear:
		a.lines = nil
		a.refreshStream()

	case command.KindHelp:
		a.appendLines(helpText())

	case command.KindHistory:
		a.appendLines(a.historyListing(cmd.N))

	case command.KindExit:
		a.quitting = true
		return a, tea.Quit
	}

	return a, nil
}

// mutateKeywords applies a +/- command, autosaves, and triggers an
// immediate fetch when the set actually changed.
func (a *App) mutateKeywords(cmd command.Command) {
	targets := []fetch.Source{cmd.Source}
	if cmd.AllSources {
		targets = fetch.AllSources()
	}

	changed := false
	for _, src := range targets {
		if cmd.Kind == command.KindAddKeyword {
			changed = a.cfg.Keywords().Add(src, cmd.Keyword) || changed
		} else {
			changed = a.cfg.Keywords().Remove(src, cmd.Keyword) || changed
		}
	}

	verb := "tracking"
	if cmd.Kind == command.KindRemoveKeyword {
		verb = "dropped"
	}
	scope := string(cmd.Source)
	if cmd.AllSources {
		scope = "all sources"
	}
	a.appendLine(InfoLine.Render(fmt.Sprintf("%s %q on %s", verb, cmd.Keyword, scope)))

	if changed {
		a.autosave()
		a.cycler.Trigger()
	}
}

// autosave persists to the canonical file, surfacing write failures
// inline without touching in-memory state.
func (a *App) autosave() {
	if err := a.cfg.Autosave(); err != nil {
		a.appendLine(ErrorLine.Render("autosave failed: " + err.Error()))
	}
}

// showCycle renders a finished cycle into the stream.
func (a *App) showCycle(msg CycleComplete) {
	if msg.Err != nil {
		a.appendLine(ItemMeta.Render(msg.Err.Error()))
		return
	}

	header := fmt.Sprintf("— %d result(s), %d new, %d fetch(es)",
		len(msg.Items), msg.NewItems, msg.Tasks)
	if len(msg.Failures) > 0 {
		header += fmt.Sprintf(", %d failed", len(msg.Failures))
	}
	a.appendLine(ItemMeta.Render(header))

	for _, f := range msg.Failures {
		a.appendLine(ErrorLine.Render("  ! " + f))
	}
	for _, item := range msg.Items {
		a.appendLine(renderItem(item))
	}
}

func (a *App) appendLine(line string) {
	a.lines = append(a.lines, line)
	a.refreshStream()
}

func (a *App) appendLines(lines []string) {
	a.lines = append(a.lines, lines...)
	a.refreshStream()
}

// refreshStream pushes the line buffer into the viewport and scrolls to
// the bottom so the newest output is visible.
func (a *App) refreshStream() {
	if !a.ready {
		return
	}
	a.view.SetContent(strings.Join(a.lines, "\n"))
	a.view.GotoBottom()
}

// View implements tea.Model.
func (a App) View() string {
	if a.quitting {
		return ""
	}
	if !a.ready {
		return "starting..."
	}
	return a.view.View() + "\n" + a.statusLine() + "\n" + a.input.View()
}

// statusLine renders the fetch state and the full keyword set per source.
func (a App) statusLine() string {
	state := "Idle"
	if a.fetching {
		state = a.spin.View() + "Fetching"
	}

	var parts []string
	for _, src := range fetch.AllSources() {
		kws := a.cfg.Keywords().BySource(src)
		if len(kws) == 0 {
			parts = append(parts, fmt.Sprintf("%s: —", src))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", src, strings.Join(kws, ",")))
		}
	}

	line := state + "  " + StatusBarText.Render(strings.Join(parts, " │ "))
	return StatusBar.Width(a.width).Render(line)
}

// renderItem formats one matched item as a stream line, translating the
// match engine's highlight spans into terminal bold.
func renderItem(item filter.Matched) string {
	text := markupRe.ReplaceAllStringFunc(item.Highlighted, func(m string) string {
		inner := markupRe.FindStringSubmatch(m)[1]
		return KeywordHit.Render(inner)
	})

	meta := item.URL
	if age := relAge(item.Published); age != "" {
		meta = age + " · " + meta
	}

	return fmt.Sprintf("%s %s\n    %s",
		SourceBadge.Render("["+string(item.Source)+"]"),
		text,
		ItemMeta.Render(meta))
}

// relAge formats a publish time as a compact age ("3m", "2h", "5d").
// Returns "" for the zero time (no publish date).
func relAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	age := time.Since(t)
	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

// settingsSummary lists limits, interval, and keywords per source.
func (a App) settingsSummary() []string {
	limits := a.cfg.Limits()
	lines := []string{
		InfoLine.Render(fmt.Sprintf("global result limit: %d · fetch interval: %dm",
			limits.Global, a.cfg.IntervalMinutes())),
	}
	for _, src := range fetch.AllSources() {
		limit := "default"
		if n, ok := limits.PerSource[src]; ok {
			limit = fmt.Sprintf("%d", n)
		}
		kws := a.cfg.Keywords().BySource(src)
		kwText := "—"
		if len(kws) > 0 {
			kwText = strings.Join(kws, ", ")
		}
		lines = append(lines, fmt.Sprintf("  %s limit %s · keywords: %s",
			SourceBadge.Render(string(src)), limit, kwText))
	}
	return lines
}

// keywordListing prints all keywords grouped by source. No network activity.
func (a App) keywordListing() []string {
	var lines []string
	for _, src := range fetch.AllSources() {
		kws := a.cfg.Keywords().BySource(src)
		if len(kws) == 0 {
			lines = append(lines, fmt.Sprintf("%s: —", SourceBadge.Render(string(src))))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", SourceBadge.Render(string(src)), strings.Join(kws, ", ")))
	}
	return lines
}

// historyListing replays recently archived items from the store.
func (a App) historyListing(n int) []string {
	if a.archive == nil {
		return []string{ErrorLine.Render("history unavailable: no archive")}
	}
	items, err := a.archive.Recent(n)
	if err != nil {
		return []string{ErrorLine.Render("history failed: " + err.Error())}
	}
	if len(items) == 0 {
		return []string{ItemMeta.Render("archive is empty")}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s %s\n    %s",
			SourceBadge.Render("["+item.Source+"]"),
			item.Title,
			ItemMeta.Render(item.URL)))
	}
	return lines
}

func helpText() []string {
	return []string{
		InfoLine.Render("commands:"),
		`  +"kw"            track keyword on all sources`,
		`  +<source>"kw"    track keyword on one source (reddit, hn, ddg)`,
		`  -"kw"  -<source>"kw"   stop tracking`,
		"  ~<source> <N|default>  set or clear a per-source result limit",
		"  ~<source>        show the settings summary",
		"  list             show keywords grouped by source",
		"  set list <N>     set the global result limit",
		"  set interval <minutes>  set the periodic fetch interval",
		"  set default <file>      make a settings file the startup default",
		"  save <file> / load <name-or-prefix>  persist / restore settings",
		"  fetch            run a fetch cycle now",
		"  history [n]      replay recently archived items",
		"  clear, help, exit",
	}
}
