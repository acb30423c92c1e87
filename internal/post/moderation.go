package post

import (
	"strings"
)

// Moderation statuses assigned during content analysis. Only approved
// content participates in public feeds without penalty; flagged content is
// withheld from downstream enrichment entirely.
const (
	ModerationApproved     = "approved"
	ModerationLowQuality   = "low_quality"
	ModerationReviewNeeded = "review_needed"
	ModerationFlagged      = "flagged"
)

// Phrases that mark low-effort or pump-style commentary.
var lowQualityIndicators = []string{
	"guaranteed profit", "100% return", "can't lose", "get rich quick",
	"financial advice", "not financial advice", "trust me bro",
}

// Phrases that mark engagement-farming spam.
var spamPatterns = []string{
	"join my discord", "dm me for", "follow for more", "link in bio",
}

const (
	minContentLength = 20
	maxTickerRatio   = 0.5

	// flagPrefixLen truncates matched phrases when building flag names.
	flagPrefixLen = 20

	// maxQualityPenalty caps the total downward adjustment.
	maxQualityPenalty = -0.5
)

// ModerationResult carries the outcome of a moderation check.
type ModerationResult struct {
	Status            string   `json:"status"`
	Flags             []string `json:"flags"`
	QualityAdjustment float64  `json:"quality_adjustment"`
}

// Penalized reports whether the outcome carries a reputation penalty.
func (m ModerationResult) Penalized() bool {
	return m.Status == ModerationFlagged || m.Status == ModerationLowQuality
}

// CheckContent runs the rule-based moderation pass over a post's content.
// llmFlags carries any flags the analysis model raised; they count toward
// the status decision but carry no additional quality penalty.
//
// Status resolution: any spam flag means flagged; more than three flags
// means review_needed; a cumulative penalty below -0.3 means low_quality;
// otherwise approved. The total penalty never exceeds -0.5.
func CheckContent(content string, tickers []string, llmFlags []string) ModerationResult {
	var flags []string
	adjustment := 0.0

	lower := strings.ToLower(content)
	words := strings.Fields(content)

	if len(content) < minContentLength {
		flags = append(flags, "too_short")
		adjustment -= 0.2
	}

	for _, indicator := range lowQualityIndicators {
		if strings.Contains(lower, indicator) {
			flags = append(flags, "low_quality:"+truncateFlag(indicator))
			adjustment -= 0.1
		}
	}

	for _, pattern := range spamPatterns {
		if strings.Contains(lower, pattern) {
			flags = append(flags, "spam:"+truncateFlag(pattern))
			adjustment -= 0.3
		}
	}

	// Ticker spam: posts that are mostly symbols.
	if len(words) > 0 && len(tickers) > 0 {
		if float64(len(tickers))/float64(len(words)) > maxTickerRatio {
			flags = append(flags, "ticker_spam")
			adjustment -= 0.2
		}
	}

	flags = append(flags, llmFlags...)

	status := ModerationApproved
	switch {
	case hasSpamFlag(flags):
		status = ModerationFlagged
	case len(flags) > 3:
		status = ModerationReviewNeeded
	case adjustment < -0.3:
		status = ModerationLowQuality
	}

	if adjustment < maxQualityPenalty {
		adjustment = maxQualityPenalty
	}

	return ModerationResult{
		Status:            status,
		Flags:             flags,
		QualityAdjustment: adjustment,
	}
}

func hasSpamFlag(flags []string) bool {
	for _, f := range flags {
		if strings.Contains(f, "spam") {
			return true
		}
	}
	return false
}

func truncateFlag(phrase string) string {
	if len(phrase) > flagPrefixLen {
		return phrase[:flagPrefixLen]
	}
	return phrase
}

// AdjustQuality applies a moderation adjustment to a raw quality score and
// clamps the result to [0, 1].
func AdjustQuality(quality, adjustment float64) float64 {
	adjusted := quality + adjustment
	if adjusted < 0 {
		return 0
	}
	if adjusted > 1 {
		return 1
	}
	return adjusted
}
