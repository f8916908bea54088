// Package analytics provides the catalog summary tab: price stats,
// availability, price histogram and most frequent title words.
package analytics

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/ui/components"
)

// Top words bounds.
const (
	DefaultTopN = 10
	MinTopN     = 1
	MaxTopN     = 100
)

var errNoClient = errors.New("analytics API client not configured")

// Client fetches the analytics endpoints.
type Client interface {
	PriceStats(ctx context.Context) (*models.PriceStats, error)
	Availability(ctx context.Context) (*models.AvailabilityReport, error)
	PriceBuckets(ctx context.Context, bucketSize float64) ([]models.PriceBucket, error)
	TitleWords(ctx context.Context, topN int) ([]models.WordCount, error)
}

// keyMap defines the key bindings specific to the analytics tab.
type keyMap struct {
	BucketUp   key.Binding
	BucketDown key.Binding
	MoreWords  key.Binding
	FewerWords key.Binding
	Refresh    key.Binding
	Up         key.Binding
	Down       key.Binding
}

// defaultKeyMap returns the default key bindings for the analytics tab.
func defaultKeyMap() keyMap {
	return keyMap{
		BucketUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "wider buckets"),
		),
		BucketDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "narrower buckets"),
		),
		MoreWords: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "more words"),
		),
		FewerWords: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "fewer words"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

type statsLoadedMsg struct {
	stats *models.PriceStats
	err   error
}

type availabilityLoadedMsg struct {
	report *models.AvailabilityReport
	err    error
}

// bucketsLoadedMsg carries the sequence number of the request that produced it.
type bucketsLoadedMsg struct {
	err     error
	buckets []models.PriceBucket
	seq     int
}

// wordsLoadedMsg carries the top-N the words were requested for.
type wordsLoadedMsg struct {
	err   error
	words []models.WordCount
	topN  int
}

// Model represents the analytics tab state.
type Model struct {
	state    *app.State
	client   Client
	keys     keyMap
	spinner  components.LoadingSpinner
	ratioBar components.RatioBar
	viewport viewport.Model

	stats        *models.PriceStats
	availability *models.AvailabilityReport
	buckets      []models.PriceBucket
	words        []models.WordCount

	statsStatus   components.PanelStatus
	availStatus   components.PanelStatus
	bucketsStatus components.PanelStatus
	wordsStatus   components.PanelStatus

	// Histogram stale guard.
	bucketSeq    int
	bucketCancel context.CancelFunc
	bucketSize   float64

	topN   int
	width  int
	height int
}

// New creates a new analytics model. topN outside 1..100 uses DefaultTopN.
func New(state *app.State, client Client, topN int) *Model {
	if topN < MinTopN || topN > MaxTopN {
		topN = DefaultTopN
	}
	return &Model{
		state:    state,
		client:   client,
		keys:     defaultKeyMap(),
		spinner:  components.NewSpinner("Loading..."),
		ratioBar: components.NewRatioBar(),
		viewport: viewport.New(0, 0),
		topN:     topN,
	}
}

// Init fetches all panels.
func (m *Model) Init() tea.Cmd {
	return m.fetchAll()
}

// Update handles messages for the analytics tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		m.stats, m.statsStatus = msg.stats, loaded(msg.err)
		return m, m.stopIfIdle(msg.err, "Price stats")

	case availabilityLoadedMsg:
		m.availability, m.availStatus = msg.report, loaded(msg.err)
		return m, m.stopIfIdle(msg.err, "Availability")

	case bucketsLoadedMsg:
		return m, m.handleBuckets(msg)

	case wordsLoadedMsg:
		if msg.topN != m.topN {
			return m, nil
		}
		m.words, m.wordsStatus = msg.words, loaded(msg.err)
		return m, m.stopIfIdle(msg.err, "Title words")

	case app.RefreshMsg:
		return m, m.fetchAll()

	case app.TabSwitchMsg:
		if msg.Tab == app.TabAnalytics {
			return m, m.handleActivated()
		}

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	default:
		if m.anyLoading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func loaded(err error) components.PanelStatus {
	return components.PanelStatus{Err: err}
}

// handleBuckets applies a histogram response only if it answers the latest request.
func (m *Model) handleBuckets(msg bucketsLoadedMsg) tea.Cmd {
	if msg.seq != m.bucketSeq {
		return nil
	}
	if m.bucketCancel != nil {
		m.bucketCancel()
		m.bucketCancel = nil
	}
	m.buckets, m.bucketsStatus = msg.buckets, loaded(msg.err)
	return m.stopIfIdle(msg.err, "Price buckets")
}

// handleActivated refetches panels whose result was delivered while another
// tab was active, and the histogram when the bucket size changed elsewhere.
func (m *Model) handleActivated() tea.Cmd {
	var cmds []tea.Cmd
	if m.statsStatus.Loading || (m.stats == nil && m.statsStatus.Err == nil) {
		cmds = append(cmds, m.fetchStats())
	}
	if m.availStatus.Loading || (m.availability == nil && m.availStatus.Err == nil) {
		cmds = append(cmds, m.fetchAvailability())
	}
	if m.bucketsStatus.Loading || m.bucketSize != m.state.GetView().BucketSize {
		cmds = append(cmds, m.fetchBuckets())
	}
	if m.wordsStatus.Loading {
		cmds = append(cmds, m.fetchWords())
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(append(cmds, m.startCmd())...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.BucketUp):
		return m.cycleBucket(1)
	case key.Matches(msg, m.keys.BucketDown):
		return m.cycleBucket(-1)
	case key.Matches(msg, m.keys.MoreWords):
		return m.setTopN(m.topN + 1)
	case key.Matches(msg, m.keys.FewerWords):
		return m.setTopN(m.topN - 1)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

// cycleBucket stores the new width in the shared view, which mirrors it into
// the link without touching the listing offset.
func (m *Model) cycleBucket(dir int) tea.Cmd {
	v := m.state.GetView()
	before := v.BucketSize
	v.CycleBucket(dir)
	if v.BucketSize == before {
		return nil
	}
	m.state.SetView(v)
	return tea.Batch(m.fetchBuckets(), m.startCmd())
}

func (m *Model) setTopN(n int) tea.Cmd {
	n = min(max(n, MinTopN), MaxTopN)
	if n == m.topN {
		return nil
	}
	m.topN = n
	return tea.Batch(m.fetchWords(), m.startCmd())
}

// TopN returns the number of title words requested.
func (m *Model) TopN() int {
	return m.topN
}

func (m *Model) fetchAll() tea.Cmd {
	return tea.Batch(
		m.fetchStats(),
		m.fetchAvailability(),
		m.fetchBuckets(),
		m.fetchWords(),
		m.startCmd(),
	)
}

func (m *Model) startCmd() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return app.StartLoadingMsg{Resource: app.ResourceAnalytics} },
		m.spinner.Tick(),
	)
}

func (m *Model) fetchStats() tea.Cmd {
	m.statsStatus = components.PanelStatus{Loading: true}
	client := m.client
	return func() tea.Msg {
		if client == nil {
			return statsLoadedMsg{err: errNoClient}
		}
		stats, err := client.PriceStats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func (m *Model) fetchAvailability() tea.Cmd {
	m.availStatus = components.PanelStatus{Loading: true}
	client := m.client
	return func() tea.Msg {
		if client == nil {
			return availabilityLoadedMsg{err: errNoClient}
		}
		report, err := client.Availability(context.Background())
		return availabilityLoadedMsg{report: report, err: err}
	}
}

// fetchBuckets cancels any in-flight histogram request and issues a new one
// tagged with the next sequence number.
func (m *Model) fetchBuckets() tea.Cmd {
	if m.bucketCancel != nil {
		m.bucketCancel()
	}
	m.bucketSeq++
	m.bucketSize = m.state.GetView().BucketSize
	m.bucketsStatus = components.PanelStatus{Loading: true}

	ctx, cancel := context.WithCancel(context.Background())
	m.bucketCancel = cancel

	seq, size, client := m.bucketSeq, m.bucketSize, m.client
	return func() tea.Msg {
		if client == nil {
			return bucketsLoadedMsg{seq: seq, err: errNoClient}
		}
		buckets, err := client.PriceBuckets(ctx, size)
		return bucketsLoadedMsg{seq: seq, buckets: buckets, err: err}
	}
}

func (m *Model) fetchWords() tea.Cmd {
	m.wordsStatus = components.PanelStatus{Loading: true}
	topN, client := m.topN, m.client
	return func() tea.Msg {
		if client == nil {
			return wordsLoadedMsg{topN: topN, err: errNoClient}
		}
		words, err := client.TitleWords(context.Background(), topN)
		return wordsLoadedMsg{topN: topN, words: words, err: err}
	}
}

func (m *Model) anyLoading() bool {
	return m.statsStatus.Loading || m.availStatus.Loading ||
		m.bucketsStatus.Loading || m.wordsStatus.Loading
}

// stopIfIdle ends the loading state once every panel has settled and logs
// a failed panel.
func (m *Model) stopIfIdle(err error, panel string) tea.Cmd {
	var cmds []tea.Cmd
	if err != nil {
		cmds = append(cmds, func() tea.Msg {
			return app.ErrorMsg{Error: err, Context: panel}
		})
	}
	if !m.anyLoading() {
		cmds = append(cmds, func() tea.Msg {
			return app.StopLoadingMsg{Resource: app.ResourceAnalytics}
		})
	}
	return tea.Batch(cmds...)
}

// SetSize sets the available size for the analytics tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.BucketUp,
		m.keys.BucketDown,
		m.keys.FewerWords,
		m.keys.MoreWords,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.BucketUp, m.keys.BucketDown},
		{m.keys.FewerWords, m.keys.MoreWords},
		{m.keys.Up, m.keys.Down, m.keys.Refresh},
	}
}
