package forensics

import (
	"strings"

	"github.com/abner20953/bidding-data/internal/fingerprint"
	"github.com/abner20953/bidding-data/internal/index"
	"github.com/abner20953/bidding-data/internal/paragraph"
)

type verdict int

const (
	verdictKeep verdict = iota
	verdictBoilerplate
	verdictParameter
	verdictNearTender
	verdictSharedDeviation
)

type tenderIndex struct {
	// full is every tender fingerprint concatenated, so boilerplate is
	// found wherever the tender's own line breaks fell.
	full      string
	skeletons map[string]struct{}
	matcher   index.Matcher
	cfg       Config
}

func newTenderIndex(paras []paragraph.Paragraph, cfg Config) (*tenderIndex, error) {
	t := &tenderIndex{skeletons: map[string]struct{}{}, cfg: cfg}
	var (
		b   strings.Builder
		fps []string
	)
	for _, p := range paras {
		fp := fingerprint.Fingerprint(p.Text)
		if fp == "" {
			continue
		}
		b.WriteString(fp)
		fps = append(fps, fp)
		if sk := fingerprint.Skeleton(p.Text); fingerprint.Length(sk) >= 2 {
			t.skeletons[sk] = struct{}{}
		}
	}
	t.full = b.String()

	m, err := index.New(fps, cfg.Index)
	if err != nil {
		return nil, err
	}
	t.matcher = m
	return t, nil
}

// classify decides what the tender says about one A paragraph. exactInB
// is whether B holds the same fingerprint. A deviation both bids share is
// reported even when it only changes a parameter.
func (t *tenderIndex) classify(text, fp string, exactInB bool) verdict {
	if strings.Contains(t.full, fp) {
		return verdictBoilerplate
	}
	_, nearTender := t.matcher.Best(fp, t.cfg.TenderThreshold)
	if exactInB && nearTender {
		return verdictSharedDeviation
	}
	if t.cfg.ExcludeParameterResponses && fingerprint.Length(fp) <= t.cfg.ParameterMaxLength {
		if sk := fingerprint.Skeleton(text); fingerprint.Length(sk) >= 2 {
			if _, ok := t.skeletons[sk]; ok {
				return verdictParameter
			}
		}
	}
	if nearTender {
		return verdictNearTender
	}
	return verdictKeep
}
