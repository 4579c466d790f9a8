package forensics

import (
	"github.com/abner20953/bidding-data/internal/fingerprint"
	"github.com/abner20953/bidding-data/internal/guard"
	"github.com/abner20953/bidding-data/internal/index"
	"github.com/abner20953/bidding-data/internal/paragraph"
)

type Config struct {
	Rules           fingerprint.Rules
	ShortLineLength int
	// FuzzyThreshold is the minimum ratio for an A/B fuzzy match.
	FuzzyThreshold float64
	// TenderThreshold is the minimum ratio for an A paragraph to count as
	// tender text.
	TenderThreshold float64
	Index           index.Options
	// Fuzzy pairs whose de-numbered content is identical and shorter than
	// this are renumbered headings.
	RenumberMaxLength int
	// ExcludeParameterResponses drops short lines whose ideographs match a
	// tender line, i.e. parameter tables filled in with different values.
	ExcludeParameterResponses bool
	ParameterMaxLength        int
	BrokenTailLength          int
	SequenceSimilarity        float64
	Guard                     guard.Config
}

func DefaultConfig() Config {
	return Config{
		Rules:                     fingerprint.DefaultRules(),
		ShortLineLength:           paragraph.DefaultShortLine,
		FuzzyThreshold:            0.85,
		TenderThreshold:           0.8,
		Index:                     index.DefaultOptions(),
		RenumberMaxLength:         60,
		ExcludeParameterResponses: true,
		ParameterMaxLength:        60,
		BrokenTailLength:          paragraph.DefaultBrokenTailLength,
		SequenceSimilarity:        0.8,
		Guard:                     guard.DefaultConfig(),
	}
}
