package market

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSentimentDirection(t *testing.T) {
	tests := []struct {
		sentiment string
		expected  string
	}{
		{"bullish", DirectionUp},
		{"BULLISH", DirectionUp},
		{"bearish", DirectionDown},
		{"neutral", DirectionNeutral},
		{"confused", DirectionNeutral},
		{"", DirectionNeutral},
	}

	for _, tt := range tests {
		t.Run("sentiment="+tt.sentiment, func(t *testing.T) {
			if got := SentimentDirection(tt.sentiment); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestActualDirection(t *testing.T) {
	tests := []struct {
		change   float64
		expected string
	}{
		{3.0, DirectionUp},
		{2.0, DirectionNeutral}, // dead zone boundary is exclusive
		{0.0, DirectionNeutral},
		{-2.0, DirectionNeutral},
		{-2.5, DirectionDown},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := ActualDirection(tt.change); got != tt.expected {
				t.Errorf("change %f: expected %s, got %s", tt.change, tt.expected, got)
			}
		})
	}
}

func TestScoreAlignment(t *testing.T) {
	tests := []struct {
		name           string
		sentiment      string
		atPost, later  float64
		expectedScore  float64
		expectedTiming string
	}{
		{
			name:      "correct bullish call",
			sentiment: "bullish",
			// +3%
			atPost: 100, later: 103,
			expectedScore:  1.0,
			expectedTiming: TimingOnTime,
		},
		{
			name:      "correct bearish call",
			sentiment: "bearish",
			atPost:    100, later: 97,
			expectedScore:  1.0,
			expectedTiming: TimingOnTime,
		},
		{
			name:      "wrong direction",
			sentiment: "bullish",
			atPost:    100, later: 95,
			expectedScore:  0.0,
			expectedTiming: TimingWrong,
		},
		{
			name:      "neutral prediction gets partial credit",
			sentiment: "neutral",
			atPost:    100, later: 104,
			expectedScore:  0.5,
			expectedTiming: TimingNeutral,
		},
		{
			name:      "flat market against a bullish call",
			sentiment: "bullish",
			atPost:    100, later: 101,
			expectedScore:  0.5,
			expectedTiming: TimingNeutral,
		},
		{
			name:      "big move bonus caps at 1.0",
			sentiment: "bullish",
			// +7%: correct with bonus, still on time
			atPost: 100, later: 107,
			expectedScore:  1.0,
			expectedTiming: TimingOnTime,
		},
		{
			name:      "major trend marks the post early",
			sentiment: "bullish",
			// +12%
			atPost: 100, later: 112,
			expectedScore:  1.0,
			expectedTiming: TimingEarly,
		},
		{
			name:      "correct neutral call",
			sentiment: "neutral",
			atPost:    100, later: 100.5,
			expectedScore:  1.0,
			expectedTiming: TimingOnTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScoreAlignment(tt.sentiment, tt.atPost, tt.later)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got.AlignmentScore-tt.expectedScore) > 0.001 {
				t.Errorf("expected score %f, got %f", tt.expectedScore, got.AlignmentScore)
			}
			if got.TimingAccuracy != tt.expectedTiming {
				t.Errorf("expected timing %s, got %s", tt.expectedTiming, got.TimingAccuracy)
			}
			if got.Explanation == "" {
				t.Error("expected an explanation")
			}
		})
	}
}

func TestScoreAlignmentBadPrices(t *testing.T) {
	if _, err := ScoreAlignment("bullish", 0, 100); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := ScoreAlignment("bullish", 100, -1); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAlignmentExplanationPhrasing(t *testing.T) {
	early, _ := ScoreAlignment("bullish", 100, 115)
	if !strings.Contains(early.Explanation, "early on a major trend") {
		t.Errorf("expected major trend phrasing, got %q", early.Explanation)
	}

	wrong, _ := ScoreAlignment("bearish", 100, 110)
	if !strings.Contains(wrong.Explanation, "but market moved") {
		t.Errorf("expected wrong-direction phrasing, got %q", wrong.Explanation)
	}
}
