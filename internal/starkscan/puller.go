package starkscan

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"optionScope/internal/clock"
	"optionScope/internal/metrics"
	"optionScope/internal/model"
	"optionScope/internal/network"
)

// Protocol is a tracked contract whose events are pulled.
type Protocol struct {
	Name    string
	Address string
}

// Pager fetches pages of events.
type Pager interface {
	FirstPage(ctx context.Context, contract string) (Page, error)
	NextPage(ctx context.Context, nextURL string) (Page, error)
}

// EventStore persists pulled events.
type EventStore interface {
	Events(ctx context.Context, net network.Network) ([]model.Event, error)
	CreateBatchOfEvents(ctx context.Context, net network.Network, events []model.Event) error
}

// PullerConfig controls a Puller. MaxPages bounds the pages read per walk;
// when it cuts a walk short the remaining link is kept in CursorPath and
// followed by later pulls.
type PullerConfig struct {
	Network       network.Network
	Protocols     []Protocol
	ProtocolDelay time.Duration
	MaxPages      int
	CursorPath    string
}

// Puller copies new protocol events from the external indexer into the store.
type Puller struct {
	cfg     PullerConfig
	pager   Pager
	store   EventStore
	cursors *CursorStore
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	pending map[string][]string
}

func NewPuller(cfg PullerConfig, pager Pager, store EventStore, logger *zap.Logger) (*Puller, error) {
	if pager == nil {
		return nil, fmt.Errorf("pager is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("event store is nil")
	}
	if len(cfg.Protocols) == 0 {
		return nil, fmt.Errorf("at least one protocol is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Puller{
		cfg:     cfg,
		pager:   pager,
		store:   store,
		cursors: NewCursorStore(cfg.CursorPath),
		logger:  logger,
		sleep:   clock.System.Sleep,
	}, nil
}

// WithSleep replaces the delay used between protocols.
func (p *Puller) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Puller {
	p.sleep = fn
	return p
}

// Pull fetches every tracked protocol in turn and persists events not seen
// before. Paging from the newest page stops at the first already persisted
// event; links left over from earlier page-limited pulls are walked after it.
func (p *Puller) Pull(ctx context.Context) (int, error) {
	if p.pending == nil {
		pending, err := p.cursors.Load()
		if err != nil {
			return 0, err
		}
		p.pending = pending
	}

	existing, err := p.store.Events(ctx, p.cfg.Network)
	if err != nil {
		return 0, fmt.Errorf("load events: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, ev := range existing {
		known[ev.ID()] = struct{}{}
	}

	total := 0
	for i, protocol := range p.cfg.Protocols {
		if i > 0 {
			if err := p.sleep(ctx, p.cfg.ProtocolDelay); err != nil {
				return total, err
			}
		}

		events, pending, err := p.pullProtocol(ctx, protocol, known)
		if err != nil {
			return total, fmt.Errorf("protocol %s: %w", protocol.Name, err)
		}
		if len(events) > 0 {
			if err := p.store.CreateBatchOfEvents(ctx, p.cfg.Network, events); err != nil {
				return total, fmt.Errorf("store events: %w", err)
			}
		}
		if len(pending) > 0 {
			p.pending[protocol.Address] = pending
		} else {
			delete(p.pending, protocol.Address)
		}
		if err := p.cursors.Save(p.pending); err != nil {
			return total, err
		}

		total += len(events)
		metrics.EventsPulled.WithLabelValues(p.cfg.Network.String(), protocol.Name).Add(float64(len(events)))
		p.logger.Info("fetched events",
			zap.String("protocol", protocol.Name),
			zap.Int("new", len(events)),
			zap.Int("pending_links", len(pending)),
		)
	}
	return total, nil
}

// pullProtocol walks from the newest page, then from every pending link.
// It returns the new events and the links still to be followed.
func (p *Puller) pullProtocol(ctx context.Context, protocol Protocol, known map[string]struct{}) ([]model.Event, []string, error) {
	page, err := p.pager.FirstPage(ctx, protocol.Address)
	if err != nil {
		return nil, nil, err
	}
	out, rest, err := p.walk(ctx, protocol, page, known)
	if err != nil {
		return nil, nil, err
	}

	var pending []string
	seen := make(map[string]struct{})
	keep := func(url string) {
		if _, ok := seen[url]; url == "" || ok {
			return
		}
		seen[url] = struct{}{}
		pending = append(pending, url)
	}
	keep(rest)

	for _, link := range p.pending[protocol.Address] {
		page, err := p.pager.NextPage(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			p.logger.Warn("pending page failed, kept for next pull",
				zap.String("protocol", protocol.Name),
				zap.String("url", link),
				zap.Error(err),
			)
			keep(link)
			continue
		}
		events, rest, err := p.walk(ctx, protocol, page, known)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, events...)
		keep(rest)
	}
	return out, pending, nil
}

// walk decodes page and the pages after it until it meets a known event,
// runs out of pages or reaches MaxPages. In the last case the link to the
// next page is returned.
func (p *Puller) walk(ctx context.Context, protocol Protocol, page Page, known map[string]struct{}) ([]model.Event, string, error) {
	var out []model.Event
	for pages := 1; ; pages++ {
		for _, raw := range page.Data {
			id := model.EventID(raw.TransactionHash, raw.EventIndex)
			if _, ok := known[id]; ok {
				return out, "", nil
			}
			ev, err := DecodeEvent(raw)
			if err != nil {
				p.logger.Warn("skip event",
					zap.String("protocol", protocol.Name),
					zap.String("tx", raw.TransactionHash),
					zap.Uint64("index", raw.EventIndex),
					zap.Error(err),
				)
				continue
			}
			known[id] = struct{}{}
			out = append(out, ev)
		}

		if page.NextURL == "" {
			return out, "", nil
		}
		if p.cfg.MaxPages > 0 && pages >= p.cfg.MaxPages {
			return out, page.NextURL, nil
		}
		var err error
		page, err = p.pager.NextPage(ctx, page.NextURL)
		if err != nil {
			return nil, "", err
		}
	}
}
