package refs

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"cosmiq-cli/internal/api"
)

const DefaultConcurrency = 4

// Lookup fetches the records behind reference tokens. Ids are canonical
// tokens such as "source:abc1". *api.Client satisfies it.
type Lookup interface {
	GetSource(ctx context.Context, id string) (*api.Source, error)
	GetNote(ctx context.Context, id string) (*api.Note, error)
	GetInsight(ctx context.Context, id string) (*api.SourceInsight, error)
}

// Resolver fills a Cache with labels for the tokens found in text.
type Resolver struct {
	lookup      Lookup
	cache       *Cache
	group       singleflight.Group
	limiter     *rate.Limiter
	concurrency int
	log         *zap.Logger
	lookups     atomic.Int64
}

type Option func(*Resolver)

// WithConcurrency caps the number of lookups in flight per Resolve call.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithRate limits lookups to perSecond across all Resolve calls. Zero or
// less means unlimited.
func WithRate(perSecond float64) Option {
	return func(r *Resolver) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithCache(c *Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:      lookup,
		cache:       NewCache(),
		concurrency: DefaultConcurrency,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Cache() *Cache { return r.cache }

// Lookups returns the number of backend lookups issued so far.
func (r *Resolver) Lookups() int64 { return r.lookups.Load() }

// Pending returns the tokens in text that have no cached label yet.
func (r *Resolver) Pending(text string) []Token {
	var out []Token
	for _, tok := range Scan(text) {
		if _, ok := r.cache.Label(tok.String()); !ok {
			out = append(out, tok)
		}
	}
	return out
}

// Resolve looks up every uncached token in text and stores a label for each.
// Lookup failures store the kind's fallback label and are not returned. The
// only error is ctx's, in which case unfinished tokens stay uncached.
func (r *Resolver) Resolve(ctx context.Context, text string) error {
	return r.ResolveTokens(ctx, r.Pending(text))
}

func (r *Resolver) ResolveTokens(ctx context.Context, tokens []Token) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, tok := range tokens {
		if _, ok := r.cache.Label(tok.String()); ok {
			continue
		}
		g.Go(func() error {
			r.resolveOne(gctx, tok)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (r *Resolver) resolveOne(ctx context.Context, tok Token) {
	key := tok.String()
	for {
		led := false
		_, err, _ := r.group.Do(key, func() (any, error) {
			led = true
			return r.lookupOnce(ctx, tok)
		})
		// A joined flight fails with its leader's cancellation; run our own.
		if err == nil || led || ctx.Err() != nil {
			return
		}
		r.log.Debug("shared lookup cancelled, retrying", zap.String("token", key))
	}
}

func (r *Resolver) lookupOnce(ctx context.Context, tok Token) (string, error) {
	key := tok.String()
	if label, ok := r.cache.Label(key); ok {
		return label, nil
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	r.lookups.Add(1)
	label, err := r.fetchLabel(ctx, tok)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.log.Debug("reference lookup failed", zap.String("token", key), zap.Error(err))
		label = tok.Kind.Fallback()
	}
	r.cache.Set(key, label)
	return label, nil
}

func (r *Resolver) fetchLabel(ctx context.Context, tok Token) (string, error) {
	switch tok.Kind {
	case KindSource:
		s, err := r.lookup.GetSource(ctx, tok.String())
		if err != nil {
			return "", err
		}
		return SourceLabel(s), nil
	case KindNote:
		n, err := r.lookup.GetNote(ctx, tok.String())
		if err != nil {
			return "", err
		}
		return NoteLabel(n), nil
	case KindInsight:
		in, err := r.lookup.GetInsight(ctx, tok.String())
		if err != nil {
			return "", err
		}
		return InsightLabel(in), nil
	}
	return tok.Kind.Fallback(), nil
}

func SourceLabel(s *api.Source) string {
	return s.TitleOr("Untitled Source")
}

const noteExcerptLen = 30

// NoteLabel is the note title, else an excerpt of its content, else "AI Note".
func NoteLabel(n *api.Note) string {
	if t := n.TitleText(); t != "" {
		return t
	}
	content := n.ContentText()
	// Whitespace-only content counts as empty, so it never labels as "...".
	if strings.TrimSpace(content) == "" {
		return "AI Note"
	}
	runes := []rune(content)
	if len(runes) > noteExcerptLen {
		runes = runes[:noteExcerptLen]
	}
	return strings.TrimSpace(string(runes)) + "..."
}

func InsightLabel(in *api.SourceInsight) string {
	switch {
	case in.InsightType != "":
		return in.InsightType
	case in.Title != "":
		return in.Title
	default:
		return "Insight"
	}
}
