package services

import (
	"context"
	"errors"
	"testing"

	"confession-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettings struct {
	settings models.OpenRankSettings
}

func (f *fakeSettings) Get(ctx context.Context) (*models.OpenRankSettings, error) {
	s := f.settings
	return &s, nil
}

type fakeWhitelist struct {
	fids map[int64]bool
}

func (f *fakeWhitelist) IsWhitelisted(fid int64) (bool, error) {
	return f.fids[fid], nil
}

type fakeRanks struct {
	result *RankResult
	err    error
}

func (f *fakeRanks) GetRank(ctx context.Context, fid int64) (*RankResult, error) {
	return f.result, f.err
}

type capturingRecorder struct {
	decisions []models.EligibilityDecision
}

func (r *capturingRecorder) Record(d models.EligibilityDecision) {
	r.decisions = append(r.decisions, d)
}

func newGate(settings models.OpenRankSettings, whitelisted []int64, ranks *fakeRanks) (*ReputationService, *capturingRecorder) {
	wl := &fakeWhitelist{fids: map[int64]bool{}}
	for _, fid := range whitelisted {
		wl.fids[fid] = true
	}
	rec := &capturingRecorder{}
	return NewReputationService(&fakeSettings{settings: settings}, wl, ranks, rec), rec
}

func defaultSettings() models.OpenRankSettings {
	return models.OpenRankSettings{
		Threshold:               50,
		ComparisonMode:          models.CompareScoreAbove,
		PowerBadgeBypass:        true,
		FollowerBypassThreshold: 10000,
	}
}

func TestCheckReputation_WhitelistShortCircuits(t *testing.T) {
	// Whitelisted FIDs pass regardless of score — the rank provider is
	// never even consulted.
	gate, rec := newGate(defaultSettings(), []int64{42}, &fakeRanks{err: errors.New("must not be called")})

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 42})
	require.NoError(t, err)
	assert.True(t, decision.Eligible)
	assert.Equal(t, ReasonWhitelisted, decision.Reason)

	require.Len(t, rec.decisions, 1)
	assert.Equal(t, models.OutcomeAllowed, rec.decisions[0].Outcome)
}

func TestCheckReputation_PowerBadgeBypass(t *testing.T) {
	settings := defaultSettings()
	settings.Threshold = 100
	gate, _ := newGate(settings, nil, &fakeRanks{result: nil}) // absent from graph

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 7, PowerBadge: true})
	require.NoError(t, err)
	assert.True(t, decision.Eligible)
	assert.Equal(t, ReasonPowerBadge, decision.Reason)
}

func TestCheckReputation_PowerBadgeBypassDisabled(t *testing.T) {
	settings := defaultSettings()
	settings.PowerBadgeBypass = false
	gate, _ := newGate(settings, nil, &fakeRanks{result: nil})

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 7, PowerBadge: true})
	require.NoError(t, err)
	assert.False(t, decision.Eligible)
	assert.Equal(t, ReasonNotInGraph, decision.Reason)
}

func TestCheckReputation_FollowerBypass(t *testing.T) {
	gate, _ := newGate(defaultSettings(), nil, &fakeRanks{result: nil})

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 7, FollowerCount: 10000})
	require.NoError(t, err)
	assert.True(t, decision.Eligible)
	assert.Equal(t, ReasonFollowerBypass, decision.Reason)
}

func TestCheckReputation_NotInGraph(t *testing.T) {
	gate, rec := newGate(defaultSettings(), nil, &fakeRanks{result: nil})

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 7, FollowerCount: 9999})
	require.NoError(t, err)
	assert.False(t, decision.Eligible)
	assert.Equal(t, ReasonNotInGraph, decision.Reason)

	require.Len(t, rec.decisions, 1)
	assert.Equal(t, models.OutcomeBlocked, rec.decisions[0].Outcome)
	assert.Equal(t, int64(9999), rec.decisions[0].FollowerCount)
}

func TestCheckReputation_ScoreAboveThreshold(t *testing.T) {
	gate, _ := newGate(defaultSettings(), nil, &fakeRanks{
		result: &RankResult{Fid: 7, Rank: 1234, Score: 80},
	})

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 7})
	require.NoError(t, err)
	assert.True(t, decision.Eligible)
	assert.Equal(t, ReasonRankOK, decision.Reason)
	require.NotNil(t, decision.Score)
	assert.Equal(t, float64(80), *decision.Score)
}

func TestCheckReputation_ScoreBelowThreshold(t *testing.T) {
	gate, _ := newGate(defaultSettings(), nil, &fakeRanks{
		result: &RankResult{Fid: 7, Rank: 990000, Score: 12},
	})

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 7})
	require.NoError(t, err)
	assert.False(t, decision.Eligible)
	assert.Equal(t, ReasonRankTooLow, decision.Reason)
}

func TestCheckReputation_FailsOpenOnUpstreamError(t *testing.T) {
	gate, rec := newGate(defaultSettings(), nil, &fakeRanks{err: errors.New("connection refused")})

	decision, err := gate.CheckReputation(context.Background(), ReputationInput{Fid: 7})
	require.NoError(t, err)
	assert.True(t, decision.Eligible)
	assert.Equal(t, ReasonAPIError, decision.Reason)

	// The fallback is still audited.
	require.Len(t, rec.decisions, 1)
	assert.Equal(t, models.OutcomeAllowed, rec.decisions[0].Outcome)
	assert.Equal(t, ReasonAPIError, rec.decisions[0].Reason)
}

func TestDecideFromRank_RankBelowMode(t *testing.T) {
	settings := &models.OpenRankSettings{
		Threshold:      1000,
		ComparisonMode: models.CompareRankBelow,
	}

	pass := decideFromRank(settings, &RankResult{Fid: 1, Rank: 500, Score: 0.1}, nil)
	assert.True(t, pass.Eligible)
	assert.Equal(t, ReasonRankOK, pass.Reason)

	fail := decideFromRank(settings, &RankResult{Fid: 1, Rank: 5000, Score: 0.1}, nil)
	assert.False(t, fail.Eligible)
	assert.Equal(t, ReasonRankTooLow, fail.Reason)
}

func TestDecideFromRank_BoundaryScore(t *testing.T) {
	settings := &models.OpenRankSettings{
		Threshold:      50,
		ComparisonMode: models.CompareScoreAbove,
	}

	exact := decideFromRank(settings, &RankResult{Fid: 1, Rank: 10, Score: 50}, nil)
	assert.True(t, exact.Eligible, "score == threshold passes")

	under := decideFromRank(settings, &RankResult{Fid: 1, Rank: 10, Score: 49.9}, nil)
	assert.False(t, under.Eligible)
}
