package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/church-register/roster-hub/internal/domain/person"
)

func lagBand(t *testing.T, repo *fakePersonRepo, p *person.Person, band person.Band) {
	t.Helper()
	require.NoError(t, p.PromoteTo(band))
	require.NoError(t, repo.Update(context.Background(), p))
}

func TestPromotionSuggestions_NeedersFirstThenName(t *testing.T) {
	repo := newFakePersonRepo()
	// Two lagging records (Genesis while the age says otherwise) and two
	// that are where they belong.
	a := seed(t, repo, seedSpec{id: "1", name: "Zarina Lag", born: date(2016, time.March, 1)})
	lagBand(t, repo, a, person.BandGenesis)
	b := seed(t, repo, seedSpec{id: "2", name: "Alik Lag", born: date(2015, time.March, 1)})
	lagBand(t, repo, b, person.BandGenesis)
	seed(t, repo, seedSpec{id: "3", name: "Botagoz Ok", born: date(2018, time.December, 1)})
	seed(t, repo, seedSpec{id: "4", name: "Aidar Ok", born: date(2017, time.December, 1)})

	h := NewPromotionSuggestionsHandler(repo)
	res, err := h.Handle(context.Background(), PromotionSuggestionsQuery{ReferenceDate: rosterRef})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 4)

	ids := make([]string, 0, 4)
	for _, s := range res.Suggestions {
		ids = append(ids, s.PersonID)
	}
	assert.Equal(t, []string{"2", "1", "4", "3"}, ids)
	assert.Equal(t, 2, res.PendingCount)
}

func TestPromotionSuggestions_BandFields(t *testing.T) {
	repo := newFakePersonRepo()
	p := seed(t, repo, seedSpec{id: "1", name: "Zarina Lag", born: date(2016, time.March, 1)})
	lagBand(t, repo, p, person.BandExodus)

	h := NewPromotionSuggestionsHandler(repo)
	res, err := h.Handle(context.Background(), PromotionSuggestionsQuery{ReferenceDate: rosterRef})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)

	s := res.Suggestions[0]
	assert.Equal(t, 9, s.Age)
	assert.Equal(t, "Exodus", s.CurrentBand)
	assert.Equal(t, "Psalms", s.ExpectedBand)
	assert.True(t, s.NeedsPromotion)
	assert.Equal(t, 1, res.PendingCount)
}

func TestPromotionSuggestions_NoLaggards(t *testing.T) {
	repo := newFakePersonRepo()
	seed(t, repo, seedSpec{id: "1", name: "Botagoz Ok", born: date(2018, time.December, 1)})

	h := NewPromotionSuggestionsHandler(repo)
	res, err := h.Handle(context.Background(), PromotionSuggestionsQuery{ReferenceDate: rosterRef})
	require.NoError(t, err)

	assert.Equal(t, 0, res.PendingCount)
	require.Len(t, res.Suggestions, 1)
	assert.False(t, res.Suggestions[0].NeedsPromotion)
}
