// Package tui is a terminal control surface for a map session. It drives the
// same filter actions as the HTTP API and shows the summaries and the drawn
// scene as text.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
	"github.com/couchcryptid/wireline-recovery-map/internal/render"
	"github.com/couchcryptid/wireline-recovery-map/internal/session"
)

// Controller is the part of a session the terminal UI drives.
// *session.Session implements it.
type Controller interface {
	Dispatch(a filter.Action) (filter.State, error)
	State() filter.State
	Scene() render.Scene
	Summary() session.Summaries
	Refresh(ctx context.Context) error
}

// refreshTimeout bounds one reload started from the keyboard.
const refreshTimeout = 10 * time.Minute

// statusCycle is the order the status key steps through.
var statusCycle = [][]domain.RecoveryStatus{
	{domain.StatusUnrecovered},
	{domain.StatusRecovered},
	{domain.StatusRecovered, domain.StatusUnrecovered},
	{},
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("63")).Padding(0, 1)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	recoveredStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unrecoveredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	unknownStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// refreshedMsg reports the end of a reload.
type refreshedMsg struct{ err error }

// Model is the bubbletea model.
type Model struct {
	ctrl   Controller
	width  int
	height int

	state      filter.State
	scene      render.Scene
	summary    session.Summaries
	regionIdx  int
	refreshing bool
	message    string
	err        error
}

// New creates a model showing the controller's current view.
func New(ctrl Controller) Model {
	m := Model{ctrl: ctrl, width: 80, height: 24}
	m.sync()
	return m
}

func (m *Model) sync() {
	m.state = m.ctrl.State()
	m.scene = m.ctrl.Scene()
	m.summary = m.ctrl.Summary()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case refreshedMsg:
		m.refreshing = false
		m.err = msg.err
		if msg.err == nil {
			m.message = "데이터를 새로 불러왔습니다."
		}
		m.sync()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "R":
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		m.message = "새로고침 중..."
		return m, m.refresh()
	case "a":
		m.dispatch(filter.ShowAllCables{})
	case "h":
		m.dispatch(filter.HideCables{})
	case "g":
		regions := m.state.Catalog.Regions
		if len(regions) == 0 {
			m.message = "선택할 읍면동이 없습니다."
			return m, nil
		}
		region := regions[m.regionIdx%len(regions)]
		m.regionIdx++
		m.dispatch(filter.ShowCablesByRegion{Regions: []string{region}})
	case "s":
		m.dispatch(filter.SetStatuses{Statuses: nextStatuses(m.ctrl.State().Statuses)})
	case "c":
		m.dispatch(filter.SelectAllCategories{})
	case "o":
		m.dispatch(filter.ToggleClusters{})
	case "+", "=":
		m.dispatch(filter.SetMapHeight{Height: m.state.MapHeight + filter.MapHeightStep})
	case "-":
		m.dispatch(filter.SetMapHeight{Height: m.state.MapHeight - filter.MapHeightStep})
	default:
		if i, ok := categoryKey(msg.String()); ok {
			m.toggleCategory(i)
		}
	}
	return m, nil
}

// nextStatuses returns the statusCycle step after current. A selection that is
// not in the cycle restarts it.
func nextStatuses(current []domain.RecoveryStatus) []domain.RecoveryStatus {
	have := slices.Clone(current)
	slices.Sort(have)
	for i, step := range statusCycle {
		want := slices.Clone(step)
		slices.Sort(want)
		if slices.Equal(have, want) {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return statusCycle[0]
}

func (m *Model) dispatch(a filter.Action) {
	if _, err := m.ctrl.Dispatch(a); err != nil {
		m.err = err
	} else {
		m.err = nil
		m.message = ""
	}
	m.sync()
}

// toggleCategory flips the i-th catalog category in the selection.
func (m *Model) toggleCategory(i int) {
	cats := m.state.Catalog.Categories
	if i >= len(cats) {
		return
	}
	sel := slices.Clone(m.state.Categories)
	if j := slices.Index(sel, cats[i]); j >= 0 {
		sel = slices.Delete(sel, j, j+1)
	} else {
		sel = append(sel, cats[i])
	}
	m.dispatch(filter.SetCategories{Categories: sel})
}

func (m Model) refresh() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		return refreshedMsg{err: ctrl.Refresh(ctx)}
	}
}

// categoryKey maps "1".."9" to a category index.
func categoryKey(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("가평 유선 복구 현황"))
	b.WriteString("\n")

	panelWidth := max(m.width/2-2, 30)
	left := panelStyle.Width(panelWidth).Render(m.summaryView())
	right := panelStyle.Width(panelWidth).Render(m.filterView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.sceneView())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	case m.message != "":
		b.WriteString(m.message)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("a 전체 케이블 · g 읍면동별 · h 케이블 숨김 · s 복구상태 · 1-9 점검내역 · c 전체 선택 · o 클러스터 · +/- 높이 · R 새로고침 · q 종료"))
	return b.String()
}

func (m Model) summaryView() string {
	if !m.summary.Available {
		return m.summary.Message
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("전체 국소"))
	b.WriteString("\n")
	writeSummary(&b, m.summary.Global, m.summary.GlobalRate)
	b.WriteString(labelStyle.Render("유선 RM (선로불량)"))
	b.WriteString("\n")
	writeSummary(&b, m.summary.RM, m.summary.RMRate)
	if m.summary.Unmappable > 0 {
		fmt.Fprintf(&b, "위치 미확인 %d개소\n", m.summary.Unmappable)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSummary(b *strings.Builder, s domain.Summary, rate string) {
	fmt.Fprintf(b, "총 %d · %s %d · %s %d · 복구율 %s\n",
		s.Total,
		recoveredStyle.Render("복구"), s.Recovered,
		unrecoveredStyle.Render("미복구"), s.Unrecovered,
		rate)
}

func (m Model) filterView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("광케이블"), cableLabel(m.state))

	statuses := make([]string, 0, len(m.state.Statuses))
	for _, s := range m.state.Statuses {
		statuses = append(statuses, string(s))
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("복구상태"), listOrNone(statuses))

	b.WriteString(labelStyle.Render("점검내역"))
	b.WriteString("\n")
	for i, c := range m.state.Catalog.Categories {
		mark := "[ ]"
		if slices.Contains(m.state.Categories, c) {
			mark = "[x]"
		}
		fmt.Fprintf(&b, " %d %s %s\n", i+1, mark, c)
	}

	clusters := "숨김"
	if m.state.ShowClusters {
		clusters = "표시"
	}
	fmt.Fprintf(&b, "%s %s · %s %dpx", labelStyle.Render("클러스터"), clusters, labelStyle.Render("지도 높이"), m.state.MapHeight)
	return b.String()
}

func cableLabel(s filter.State) string {
	switch s.CableMode {
	case filter.CableAll:
		return "전체"
	case filter.CableByRegion:
		return "읍면동별: " + listOrNone(s.Regions)
	default:
		return "숨김"
	}
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "없음"
	}
	return strings.Join(values, ", ")
}

func (m Model) sceneView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "케이블 %d · 국소 %d · 진행현황 %d · 클러스터 %d\n",
		len(m.scene.Polylines), len(m.scene.Circles), len(m.scene.Icons), len(m.scene.Overlays))

	// Header, two panels and footer take roughly this many lines.
	room := max(m.height-18, 3)
	for i, c := range m.scene.Circles {
		if i == room {
			fmt.Fprintf(&b, "  ... 외 %d개소\n", len(m.scene.Circles)-room)
			break
		}
		fmt.Fprintf(&b, "  %s %-16s %-10s %.5f,%.5f\n",
			statusStyle(c.Status).Render("●"), c.Name, c.Category, c.Coord.Lat, c.Coord.Lon)
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusStyle(s domain.RecoveryStatus) lipgloss.Style {
	switch s {
	case domain.StatusRecovered:
		return recoveredStyle
	case domain.StatusUnrecovered:
		return unrecoveredStyle
	default:
		return unknownStyle
	}
}
