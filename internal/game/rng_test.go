package game

import (
	"fmt"
	"testing"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/models"
)

func TestRollIsUniformRangeAndDeterministic(t *testing.T) {
	fair := NewFair("seed-under-test")

	for i := 0; i < 1000; i++ {
		roll := fair.Roll("round", fmt.Sprint(i))
		if roll < 0 || roll >= 1 {
			t.Fatalf("Roll out of [0,1): %f", roll)
		}
	}

	first := fair.Roll("round", "42")
	second := fair.Roll("round", "42")
	if first != second {
		t.Error("Same message must give the same roll")
	}

	if fair.Roll("round", "42") == fair.Roll("round", "43") {
		t.Error("Different messages should give different rolls")
	}

	if ReplayRoll("seed-under-test", "round", "42") != first {
		t.Error("Replay with the revealed seed must reproduce the roll")
	}
}

func TestSeedHashIsStable(t *testing.T) {
	fair := NewFair("seed-under-test")
	hash := fair.SeedHash()
	if len(hash) != 64 {
		t.Errorf("Seed hash should be 64 hex chars, got %d", len(hash))
	}
	if hash != fair.SeedHash() {
		t.Error("Seed hash must be stable")
	}
	if hash == NewFair("other-seed").SeedHash() {
		t.Error("Different seeds must hash differently")
	}
}

func TestSampleCrashPointBounds(t *testing.T) {
	fair := NewFair("seed-under-test")
	cfg := config.CrashConfig{
		Tiers: []config.CrashTier{
			{Probability: 0.98, Min: 1.0, Max: 1.5},
			{Probability: 0.015, Min: 1.5, Max: 3.0},
			{Probability: 0.005, Min: 3.0, Max: 100.0},
		},
	}

	for i := 0; i < 1000; i++ {
		point := sampleCrashPoint(fair, cfg, fmt.Sprintf("round-%d", i), int64(i))
		if point < 1.0 || point >= 100.0 {
			t.Fatalf("Crash point out of range: %.2f", point)
		}
	}

	first := sampleCrashPoint(fair, cfg, "round-0", 0)
	second := sampleCrashPoint(fair, cfg, "round-0", 0)
	if first != second {
		t.Error("Same round identity must give the same crash point")
	}
}

func TestSampleRankingIsPermutation(t *testing.T) {
	fair := NewFair("seed-under-test")
	cfg := config.RaceConfig{
		Competitors: []config.RaceCompetitor{
			{Name: "red", Weight: 0.45, Multiplier: 2.0},
			{Name: "blue", Weight: 0.30, Multiplier: 3.0},
			{Name: "green", Weight: 0.17, Multiplier: 5.0},
			{Name: "yellow", Weight: 0.08, Multiplier: 10.0},
		},
	}

	for i := 0; i < 100; i++ {
		ranking := sampleRanking(fair, cfg, fmt.Sprintf("round-%d", i), int64(i))
		if len(ranking) != len(cfg.Competitors) {
			t.Fatalf("Ranking should cover the field, got %v", ranking)
		}
		seen := make(map[string]bool)
		for _, name := range ranking {
			if seen[name] {
				t.Fatalf("Competitor appears twice in %v", ranking)
			}
			seen[name] = true
		}
	}
}

func TestColorPayoutRules(t *testing.T) {
	cfg := config.ColorConfig{
		Colors:            []string{"green", "red", "violet"},
		ColorMultipliers:  map[string]float64{"green": 2.0, "red": 2.0, "violet": 50.0},
		NumberMultiplier:  10.0,
		JackpotMultiplier: 100.0,
	}

	// Color and number both matching pays the jackpot.
	if mult, won := colorPayout(cfg, &models.Bet{Color: "green", Number: 7}, "green", 7); !won || mult != 100.0 {
		t.Errorf("Double match should pay the jackpot, got %.1f won=%v", mult, won)
	}
	if mult, won := colorPayout(cfg, &models.Bet{Color: "violet"}, "violet", 3); !won || mult != 50.0 {
		t.Errorf("Violet match should pay 50x, got %.1f won=%v", mult, won)
	}
	if mult, won := colorPayout(cfg, &models.Bet{Number: 7}, "red", 7); !won || mult != 10.0 {
		t.Errorf("Number match should pay 10x, got %.1f won=%v", mult, won)
	}
	if mult, won := colorPayout(cfg, &models.Bet{Color: "green", Number: 3}, "green", 7); !won || mult != 2.0 {
		t.Errorf("Color match with missed number should pay the color, got %.1f won=%v", mult, won)
	}
	if _, won := colorPayout(cfg, &models.Bet{Color: "red", Number: 3}, "green", 7); won {
		t.Error("No match should lose")
	}
}
