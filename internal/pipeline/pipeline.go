// Package pipeline answers one question end to end: generate SQL, normalize
// it, run it, and chart it when asked.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/ai"
	"github.com/aman-zulfiqar/coinquery/internal/chart"
	"github.com/aman-zulfiqar/coinquery/internal/constants"
	"github.com/aman-zulfiqar/coinquery/internal/metrics"
	"github.com/aman-zulfiqar/coinquery/internal/models"
	"github.com/aman-zulfiqar/coinquery/internal/sqlnorm"
	"github.com/aman-zulfiqar/coinquery/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// Executor runs one canonical statement.
type Executor interface {
	Execute(ctx context.Context, statement string) (*models.ResultSet, error)
}

// Deps are the collaborators of a Pipeline. Cache, Store and Metrics are
// optional.
type Deps struct {
	Generator  ai.Generator
	Normalizer *sqlnorm.Normalizer
	Executor   Executor
	Selector   *chart.Selector

	Cache   storage.AskCache
	Store   storage.AskStore
	Metrics *metrics.Metrics
	Logger  *logrus.Logger

	// ChartTTL is how long rendered charts stay in the cache.
	ChartTTL time.Duration
	// GenerateTimeout bounds the generator call. Zero means no bound.
	GenerateTimeout time.Duration
}

// Answer is the outcome of one ask. The tabular and chart paths report
// independently: QueryErr means no table and no chart, while Chart.Warning
// and ChartErr only affect the chart.
type Answer struct {
	ID       string
	AskedAt  time.Time
	Question string
	RawSQL   string
	SQL      string

	Result   *models.ResultSet
	QueryErr error

	Chart     chart.Outcome
	ChartHTML []byte
	ChartID   string
	ChartErr  error

	Took time.Duration
}

// Event converts a into the record stored and published for it.
func (a *Answer) Event() *models.AskEvent {
	ev := &models.AskEvent{
		ID:       a.ID,
		AskedAt:  a.AskedAt,
		Question: a.Question,
		SQL:      a.SQL,
		ChartID:  a.ChartID,
		TookMs:   a.Took.Milliseconds(),
	}
	if a.Result != nil {
		ev.Columns = a.Result.Columns
		ev.RowCount = len(a.Result.Rows)
	}
	if a.Chart.Rendered() {
		ev.ChartKind = string(a.Chart.Kind)
	}
	if a.QueryErr != nil {
		ev.Error = a.QueryErr.Error()
	}
	return ev
}

// Pipeline sequences the ask stages.
type Pipeline struct {
	deps   Deps
	logger *logrus.Logger
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.Selector == nil {
		deps.Selector = chart.NewSelector(deps.Logger)
	}
	if deps.ChartTTL <= 0 {
		deps.ChartTTL = constants.DefaultChartTTL
	}
	return &Pipeline{deps: deps, logger: deps.Logger}
}

// Ask answers question. Only an empty question or a generator failure
// return an error; query and chart problems are reported on the Answer.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()
	m := p.deps.Metrics

	question = strings.TrimSpace(question)
	if question == "" {
		m.Ask(metrics.OutcomeEmpty)
		return nil, ErrEmptyQuestion
	}

	a := &Answer{
		ID:       uuid.NewString(),
		AskedAt:  start.UTC(),
		Question: question,
	}
	log := p.logger.WithField("ask_id", a.ID)

	raw, err := p.generate(ctx, question)
	m.ObserveStage("generate", start)
	if err != nil {
		m.Ask(metrics.OutcomeGenerateError)
		log.WithError(err).Warn("SQL generation failed")
		return nil, err
	}
	a.RawSQL = raw
	a.SQL = p.deps.Normalizer.Normalize(raw)
	log.WithField("sql", a.SQL).Debug("normalized SQL")

	execStart := time.Now()
	a.Result, a.QueryErr = p.deps.Executor.Execute(ctx, a.SQL)
	m.ObserveStage("execute", execStart)

	if a.QueryErr != nil {
		m.Ask(metrics.OutcomeQueryError)
		log.WithError(a.QueryErr).Info("query failed")
	} else {
		m.Ask(metrics.OutcomeOK)
		p.drawChart(ctx, a, log)
	}

	a.Took = time.Since(start)
	p.record(ctx, a, log)
	return a, nil
}

func (p *Pipeline) generate(ctx context.Context, question string) (string, error) {
	if p.deps.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deps.GenerateTimeout)
		defer cancel()
	}

	raw, err := p.deps.Generator.Generate(ctx, question)
	if err != nil {
		var gerr *ai.GenerationError
		if !errors.As(err, &gerr) {
			err = &ai.GenerationError{Provider: "generator", Err: err}
		}
		return "", err
	}
	return raw, nil
}

// drawChart re-executes the statement for the chart path and renders it.
func (p *Pipeline) drawChart(ctx context.Context, a *Answer, log *logrus.Entry) {
	if !chart.Requested(a.Question) {
		a.Chart = chart.Outcome{Kind: chart.KindNone}
		return
	}
	m := p.deps.Metrics
	start := time.Now()
	defer m.ObserveStage("chart", start)

	rs, err := p.deps.Executor.Execute(ctx, a.SQL)
	if err != nil {
		a.ChartErr = err
		log.WithError(err).Warn("chart query failed")
		return
	}

	a.Chart = p.deps.Selector.Select(a.Question, rs)
	if a.Chart.Warning != nil {
		m.ChartWarning(string(a.Chart.Kind))
		return
	}
	if !a.Chart.Rendered() {
		return
	}

	html, err := chart.RenderHTML(a.Chart.Figure)
	if err != nil {
		a.ChartErr = err
		log.WithError(err).Warn("chart render failed")
		return
	}
	a.ChartHTML = html
	a.ChartID = uuid.NewString()
	m.ChartRendered(string(a.Chart.Kind))
}

// record writes a to every configured sink. Sink failures are logged only.
func (p *Pipeline) record(ctx context.Context, a *Answer, log *logrus.Entry) {
	m := p.deps.Metrics

	if c := p.deps.Cache; c != nil {
		if a.ChartHTML != nil {
			if err := c.PutChart(ctx, a.ChartID, a.ChartHTML, p.deps.ChartTTL); err != nil {
				log.WithError(err).Warn("failed to cache chart")
				m.SinkError("chart_cache")
				a.ChartID = ""
			}
		}

		ev := a.Event()
		if err := c.AddRecentAsk(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to cache ask")
			m.SinkError("recent_asks")
		}
		if err := c.PublishAsk(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to publish ask")
			m.SinkError("pubsub")
		}
	}

	if s := p.deps.Store; s != nil {
		if err := s.InsertAsk(ctx, a.Event()); err != nil {
			log.WithError(err).Warn("failed to store ask")
			m.SinkError("audit_store")
		}
	}
}
