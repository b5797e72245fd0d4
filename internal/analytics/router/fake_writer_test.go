package router

import (
	"context"

	"github.com/xkartlabs/xkart-backend/internal/analytics/types"
)

type fakeWriter struct {
	raceRows        []types.RaceEventRow
	marketplaceRows []types.MarketplaceEventRow
}

func (f *fakeWriter) InsertRace(_ context.Context, row types.RaceEventRow) error {
	f.raceRows = append(f.raceRows, row)
	return nil
}

func (f *fakeWriter) InsertMarketplace(_ context.Context, row types.MarketplaceEventRow) error {
	f.marketplaceRows = append(f.marketplaceRows, row)
	return nil
}
