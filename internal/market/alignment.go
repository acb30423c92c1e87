// Package market scores how well post predictions align with actual price
// movement and tracks per-user prediction accuracy.
package market

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Price movement directions.
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionNeutral = "neutral"
)

// Timing accuracy labels attached to alignment results.
const (
	TimingOnTime  = "on_time"
	TimingNeutral = "neutral"
	TimingWrong   = "wrong"
	TimingEarly   = "early"
)

// Movement thresholds in percent. Moves inside the dead zone count as
// neutral; larger moves earn the magnitude bonus.
const (
	deadZonePercent   = 2.0
	bigMovePercent    = 5.0
	majorTrendPercent = 10.0
)

// ErrInsufficientData is returned when prices are missing or unusable.
var ErrInsufficientData = errors.New("insufficient price data")

// Alignment records how one post's prediction compared to the market.
type Alignment struct {
	PostID             string    `json:"post_id"`
	UserID             string    `json:"user_id"`
	Ticker             string    `json:"ticker"`
	PredictedDirection string    `json:"predicted_direction"`
	ActualDirection    string    `json:"actual_direction"`
	AlignmentScore     float64   `json:"alignment_score"`
	PriceAtPost        float64   `json:"price_at_post"`
	Price24hLater      float64   `json:"price_24h_later"`
	PriceChangePercent float64   `json:"price_change_percent"`
	TimingAccuracy     string    `json:"timing_accuracy"`
	Explanation        string    `json:"explanation"`
	CreatedAt          time.Time `json:"created_at"`
}

// SentimentDirection maps a post sentiment to its predicted direction.
// Unknown sentiments predict neutral.
func SentimentDirection(sentiment string) string {
	switch strings.ToLower(sentiment) {
	case "bullish":
		return DirectionUp
	case "bearish":
		return DirectionDown
	default:
		return DirectionNeutral
	}
}

// ActualDirection classifies a percentage price change. Moves within the
// 2% dead zone are neutral.
func ActualDirection(changePercent float64) string {
	switch {
	case changePercent > deadZonePercent:
		return DirectionUp
	case changePercent < -deadZonePercent:
		return DirectionDown
	default:
		return DirectionNeutral
	}
}

// ScoreAlignment compares a predicted sentiment against the realized price
// move and returns the scored alignment. A correct direction scores 1.0, a
// neutral prediction or outcome scores 0.5, a wrong direction scores 0.0.
// Correct calls on moves over 5% earn a 0.1 bonus (capped at 1.0); over
// 10% the post is labeled early on a major trend.
func ScoreAlignment(sentiment string, priceAtPost, price24hLater float64) (Alignment, error) {
	if priceAtPost <= 0 || price24hLater <= 0 {
		return Alignment{}, ErrInsufficientData
	}

	changePercent := (price24hLater - priceAtPost) / priceAtPost * 100

	predicted := SentimentDirection(sentiment)
	actual := ActualDirection(changePercent)

	var score float64
	var timing string
	switch {
	case predicted == actual:
		score = 1.0
		timing = TimingOnTime
	case predicted == DirectionNeutral || actual == DirectionNeutral:
		score = 0.5
		timing = TimingNeutral
	default:
		score = 0.0
		timing = TimingWrong
	}

	if absFloat(changePercent) > bigMovePercent && predicted == actual {
		score = minFloat(1.0, score+0.1)
		if absFloat(changePercent) > majorTrendPercent {
			timing = TimingEarly
		} else {
			timing = TimingOnTime
		}
	}

	return Alignment{
		PredictedDirection: predicted,
		ActualDirection:    actual,
		AlignmentScore:     score,
		PriceAtPost:        priceAtPost,
		Price24hLater:      price24hLater,
		PriceChangePercent: changePercent,
		TimingAccuracy:     timing,
		Explanation:        alignmentExplanation(predicted, actual, changePercent, timing),
	}, nil
}

// alignmentExplanation renders a human-readable summary of the outcome.
func alignmentExplanation(predicted, actual string, changePercent float64, timing string) string {
	switch {
	case predicted == actual && timing == TimingEarly:
		return fmt.Sprintf("Correctly predicted %s movement. Post was early on a major trend (%+.1f%%).",
			actual, changePercent)
	case predicted == actual:
		return fmt.Sprintf("Correctly predicted %s movement (%+.1f%%).", actual, changePercent)
	case timing == TimingNeutral:
		return fmt.Sprintf("Predicted %s, market moved %s with minimal change (%+.1f%%).",
			predicted, actual, changePercent)
	default:
		return fmt.Sprintf("Predicted %s but market moved %s (%+.1f%%).",
			predicted, actual, changePercent)
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
