package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/go-co-op/gocron/v2"

	"github.com/lguibr/fujipong/store"
	"github.com/lguibr/fujipong/utils"
)

const pollTimeout = 10 * time.Second

// StatusSource is where ledger status comes from, normally the relay client.
type StatusSource interface {
	LatestBlock(ctx context.Context) (int64, error)
	ScoreHistory(ctx context.Context, limit int, blockRange int64) ([]store.ScoreRecord, error)
}

// Status is the cached view of the score ledger.
type Status struct {
	BlockNumber     int64               `json:"blockNumber"`
	BlockUpdatedAt  time.Time           `json:"blockUpdatedAt"`
	Scores          []store.ScoreRecord `json:"scores"`
	ScoresUpdatedAt time.Time           `json:"scoresUpdatedAt"`
	LastError       string              `json:"lastError,omitempty"`
}

// StatusPoller refreshes the ledger status on a schedule: the block height
// and the score history have separate periods.
type StatusPoller struct {
	src   StatusSource
	cfg   utils.Config
	log   slog.Logger
	sched gocron.Scheduler

	mu     sync.RWMutex
	status Status
}

// NewStatusPoller schedules both jobs; Start begins running them.
func NewStatusPoller(src StatusSource, cfg utils.Config, log slog.Logger) (*StatusPoller, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	p := &StatusPoller{
		src:    src,
		cfg:    cfg,
		log:    utils.OrDisabled(log),
		sched:  sched,
		status: Status{Scores: []store.ScoreRecord{}},
	}

	jobs := []struct {
		period time.Duration
		task   func()
	}{
		{cfg.BlockPollPeriod, p.pollBlock},
		{cfg.HistoryPollPeriod, p.pollHistory},
	}
	for _, j := range jobs {
		_, err := sched.NewJob(
			gocron.DurationJob(j.period),
			gocron.NewTask(j.task),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule status job: %w", err)
		}
	}
	return p, nil
}

func (p *StatusPoller) Start() {
	p.log.Infof("Status polling every %s (block) and %s (history)", p.cfg.BlockPollPeriod, p.cfg.HistoryPollPeriod)
	p.sched.Start()
}

func (p *StatusPoller) Shutdown() error {
	return p.sched.Shutdown()
}

// Status returns a copy of the cached status.
func (p *StatusPoller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.status
	s.Scores = append([]store.ScoreRecord{}, p.status.Scores...)
	return s
}

// PollNow refreshes both values immediately.
func (p *StatusPoller) PollNow() {
	p.pollBlock()
	p.pollHistory()
}

func (p *StatusPoller) pollBlock() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	height, err := p.src.LatestBlock(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.log.Warnf("Block poll failed: %v", err)
		p.status.LastError = err.Error()
		return
	}
	p.status.BlockNumber = height
	p.status.BlockUpdatedAt = time.Now()
	p.status.LastError = ""
}

func (p *StatusPoller) pollHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	scores, err := p.src.ScoreHistory(ctx, utils.HistoryLimit, utils.HistoryBlockRange)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.log.Warnf("History poll failed: %v", err)
		p.status.LastError = err.Error()
		return
	}
	p.status.Scores = scores
	p.status.ScoresUpdatedAt = time.Now()
	p.status.LastError = ""
}
