// README: Distance-based fare estimator feeding booking price estimates.
package maps

import (
	"context"
	"math"

	"cabdesk/internal/types"
)

// FareEstimator turns a route estimate into a rupee price. Rates are
// fixed per instance; the vendor can still override the price later.
type FareEstimator struct {
	routes *RouteService
	base   int64
	perKm  int64
}

func NewFareEstimator(routes *RouteService, base, perKm int64) *FareEstimator {
	return &FareEstimator{routes: routes, base: base, perKm: perKm}
}

func (f *FareEstimator) Estimate(ctx context.Context, pickup, dropoff string) (types.Money, error) {
	_, distanceKm, err := f.routes.GetTravelEstimate(ctx, pickup, dropoff)
	if err != nil {
		return types.Money{}, err
	}
	amount := f.base + int64(math.Ceil(distanceKm))*f.perKm
	return types.Rupees(amount), nil
}
