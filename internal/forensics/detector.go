// Package forensics compares two bids, optionally against their tender,
// and reports the overlaps that point to a shared drafter.
package forensics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/abner20953/bidding-data/internal/entity"
	"github.com/abner20953/bidding-data/internal/fingerprint"
	"github.com/abner20953/bidding-data/internal/guard"
	"github.com/abner20953/bidding-data/internal/index"
	"github.com/abner20953/bidding-data/internal/ingest"
	"github.com/abner20953/bidding-data/internal/paragraph"
)

type Logger interface {
	Log(level, stage, message, detail string)
}

type Option func(*Detector)

func WithLogger(l Logger) Option {
	return func(d *Detector) { d.logger = l }
}

func WithExtractOptions(o ingest.Options) Option {
	return func(d *Detector) { d.extract = o }
}

// WithClock replaces the wall clock used for the timeout ceiling.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.clock = now }
}

// WithMemoryProbe replaces the system memory reading. nil disables the
// memory floor.
func WithMemoryProbe(p guard.MemoryProbe) Option {
	return func(d *Detector) {
		d.probe = p
		d.probeSet = true
	}
}

// Detector holds configuration only. Every comparison builds its own
// indices, so one Detector may serve concurrent callers.
type Detector struct {
	cfg      Config
	extract  ingest.Options
	logger   Logger
	clock    func() time.Time
	probe    guard.MemoryProbe
	probeSet bool
}

func NewDetector(cfg Config, opts ...Option) *Detector {
	d := &Detector{cfg: cfg, extract: ingest.DefaultOptions(), clock: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.extract.Logger == nil && d.logger != nil {
		d.extract.Logger = d.logger
	}
	return d
}

func (d *Detector) Config() Config { return d.cfg }

// Compare extracts the files and compares them. pathTender may be empty.
func (d *Detector) Compare(ctx context.Context, pathA, pathB, pathTender string) (*Result, error) {
	g := d.newGuard()

	a, err := ingest.Extract(ctx, pathA, d.extract)
	if err != nil {
		return nil, fmt.Errorf("bidder A: %w", err)
	}
	b, err := ingest.Extract(ctx, pathB, d.extract)
	if err != nil {
		return nil, fmt.Errorf("bidder B: %w", err)
	}
	var tender *ingest.Document
	if pathTender != "" {
		tender, err = ingest.Extract(ctx, pathTender, d.extract)
		if err != nil {
			return nil, fmt.Errorf("tender: %w", err)
		}
	}
	if err := g.Check(ctx); err != nil {
		return nil, d.abort(err)
	}
	return d.run(ctx, g, a, b, tender)
}

// CompareDocuments compares documents that are already extracted.
func (d *Detector) CompareDocuments(ctx context.Context, a, b, tender *ingest.Document) (*Result, error) {
	if a == nil || b == nil {
		return nil, errors.New("both bidder documents are required")
	}
	return d.run(ctx, d.newGuard(), a, b, tender)
}

func (d *Detector) newGuard() *guard.Guard {
	opts := []guard.Option{guard.WithClock(d.clock)}
	if d.probeSet {
		opts = append(opts, guard.WithMemoryProbe(d.probe))
	}
	return guard.New(d.cfg.Guard, opts...)
}

func (d *Detector) run(ctx context.Context, g *guard.Guard, a, b, tender *ingest.Document) (*Result, error) {
	cfg := d.cfg
	res := &Result{
		Paragraphs:   []SuspiciousItem{},
		CommonErrors: CommonErrors{Sequence: []CommonSequenceError{}},
		Metadata:     buildMetadata(a, b, tender),
		Stats:        Stats{Traces: []SpanTrace{}},
	}

	var parasA, parasB, parasT []paragraph.Paragraph
	_ = withSpan(res, "segment", func() error {
		parasA = paragraph.Segment(a.Pages, cfg.ShortLineLength)
		parasB = paragraph.Segment(b.Pages, cfg.ShortLineLength)
		if tender != nil {
			parasT = paragraph.Segment(tender.Pages, cfg.ShortLineLength)
		}
		return nil
	})
	res.Stats.ParagraphsA = len(parasA)
	res.Stats.ParagraphsB = len(parasB)
	res.Stats.ParagraphsTender = len(parasT)
	d.log("ANALYSIS", "COMPARE", "comparison started", fmt.Sprintf("paragraphs_a=%d paragraphs_b=%d paragraphs_tender=%d strategy=%s",
		len(parasA), len(parasB), len(parasT), cfg.Index.Strategy))

	var (
		bids    *bidIndex
		tenders *tenderIndex
	)
	err := withSpan(res, "build_index", func() error {
		var err error
		if bids, err = newBidIndex(parasB, cfg); err != nil {
			return err
		}
		if tender != nil {
			tenders, err = newTenderIndex(parasT, cfg)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	var items []SuspiciousItem
	_ = withSpan(res, "entities", func() error {
		tenderFP := ""
		if tenders != nil {
			tenderFP = tenders.full
		}
		for _, c := range entity.Collide(entity.Extract(a.Pages), entity.Extract(b.Pages), tenderFP) {
			items = append(items, entityItem(c))
		}
		return nil
	})

	err = withSpan(res, "match_paragraphs", func() error {
		matched, err := d.matchParagraphs(ctx, g, parasA, bids, tenders, &res.Stats)
		items = append(items, matched...)
		return err
	})
	if err != nil {
		return nil, d.abort(err)
	}

	_ = withSpan(res, "sequence_errors", func() error {
		res.CommonErrors.Sequence = commonGaps(paragraph.SequenceGaps(parasA), paragraph.SequenceGaps(parasB), cfg.SequenceSimilarity)
		return nil
	})

	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if items != nil {
		res.Paragraphs = items
	}
	res.Stats.DurationMs = g.Elapsed().Milliseconds()
	d.log("INFO", "COMPARE", "comparison finished", fmt.Sprintf("items=%d sequence_errors=%d duration_ms=%d",
		len(res.Paragraphs), len(res.CommonErrors.Sequence), res.Stats.DurationMs))
	return res, nil
}

// matchParagraphs streams A's paragraphs through the tender filter and
// B's indices. Each distinct A fingerprint is reported at most once.
func (d *Detector) matchParagraphs(ctx context.Context, g *guard.Guard, parasA []paragraph.Paragraph, bids *bidIndex, tenders *tenderIndex, stats *Stats) ([]SuspiciousItem, error) {
	cfg := d.cfg
	var items []SuspiciousItem
	seen := map[string]struct{}{}

	for i, p := range parasA {
		if err := g.Tick(ctx, i+1); err != nil {
			return nil, err
		}
		fp := fingerprint.Fingerprint(p.Text)
		if !fingerprint.Significant(fp, cfg.Rules) {
			continue
		}
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		stats.Compared++

		pos, exact := bids.byFP[fp]
		shared := false
		if tenders != nil {
			switch tenders.classify(p.Text, fp, exact) {
			case verdictBoilerplate:
				stats.ExcludedBoilerplate++
				continue
			case verdictParameter:
				stats.ExcludedParameter++
				continue
			case verdictNearTender:
				stats.ExcludedNearTender++
				continue
			case verdictSharedDeviation:
				shared = true
			}
		}

		if exact {
			items = append(items, d.exactItem(p, bids.paras[pos], shared))
			continue
		}

		m, ok := bids.matcher.Best(fp, cfg.FuzzyThreshold)
		if !ok {
			continue
		}
		q := bids.paras[m.Index]
		if renumbered(p.Text, q.Text, cfg.RenumberMaxLength) {
			stats.Renumbered++
			continue
		}
		items = append(items, d.fuzzyItem(p, q, m.Ratio))
	}
	return items, nil
}

func entityItem(c entity.Collision) SuspiciousItem {
	return SuspiciousItem{
		Type:   KindEntity,
		TextA:  c.A.Text,
		TextB:  c.B.Text,
		PageA:  c.A.Page,
		PageB:  c.B.Page,
		Score:  100,
		Desc:   fmt.Sprintf("两份投标文件出现相同的%s", c.Kind.Label()),
		Badges: []string{BadgeSensitive},
	}
}

func (d *Detector) exactItem(p, q paragraph.Paragraph, shared bool) SuspiciousItem {
	item := SuspiciousItem{
		Type:   KindExact,
		TextA:  p.Text,
		TextB:  q.Text,
		PageA:  p.Page,
		PageB:  q.Page,
		Score:  100,
		Desc:   "段落内容完全一致",
		Badges: []string{},
	}
	if shared {
		item.Desc = "段落内容完全一致，且对招标文件原文做了相同改动"
		item.Badges = append(item.Badges, BadgeSharedDeviation)
	}
	return d.withTailBadge(item)
}

func (d *Detector) fuzzyItem(p, q paragraph.Paragraph, ratio float64) SuspiciousItem {
	score := int(ratio * 100)
	return d.withTailBadge(SuspiciousItem{
		Type:   KindFuzzy,
		TextA:  p.Text,
		TextB:  q.Text,
		PageA:  p.Page,
		PageB:  q.Page,
		Score:  score,
		Desc:   fmt.Sprintf("段落高度相似（相似度 %d%%）", score),
		Badges: []string{},
	})
}

func (d *Detector) withTailBadge(item SuspiciousItem) SuspiciousItem {
	if paragraph.BrokenTail(item.TextA, d.cfg.BrokenTailLength) && paragraph.BrokenTail(item.TextB, d.cfg.BrokenTailLength) {
		item.Badges = append(item.Badges, BadgeBrokenTail)
	}
	return item
}

// renumbered reports whether two texts differ only in their list marker
// and are short enough to be headings.
func renumbered(a, b string, maxLength int) bool {
	sa := fingerprint.Fingerprint(fingerprint.StripNumbering(a))
	sb := fingerprint.Fingerprint(fingerprint.StripNumbering(b))
	return sa == sb && fingerprint.Length(sa) < maxLength
}

func (d *Detector) abort(err error) error {
	if errors.Is(err, guard.ErrTimeout) || errors.Is(err, guard.ErrOutOfMemory) {
		d.log("RISK", "GUARD", "comparison aborted", err.Error())
	}
	return err
}

func (d *Detector) log(level, stage, message, detail string) {
	if d.logger != nil {
		d.logger.Log(level, stage, message, detail)
	}
}

func withSpan(res *Result, name string, fn func() error) error {
	start := time.Now()
	status := "ok"
	err := fn()
	if err != nil {
		status = "error"
	}
	res.Stats.Traces = append(res.Stats.Traces, SpanTrace{
		Name:       name,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     status,
	})
	return err
}

type bidIndex struct {
	paras   []paragraph.Paragraph
	byFP    map[string]int
	matcher index.Matcher
}

// newBidIndex keeps B's significant paragraphs. byFP points at the first
// paragraph with each fingerprint.
func newBidIndex(paras []paragraph.Paragraph, cfg Config) (*bidIndex, error) {
	ix := &bidIndex{byFP: map[string]int{}}
	var fps []string
	for _, p := range paras {
		fp := fingerprint.Fingerprint(p.Text)
		if !fingerprint.Significant(fp, cfg.Rules) {
			continue
		}
		if _, ok := ix.byFP[fp]; !ok {
			ix.byFP[fp] = len(ix.paras)
		}
		ix.paras = append(ix.paras, p)
		fps = append(fps, fp)
	}
	m, err := index.New(fps, cfg.Index)
	if err != nil {
		return nil, err
	}
	ix.matcher = m
	return ix, nil
}
