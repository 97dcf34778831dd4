package performance

import "errors"

// ErrAggregationFailed reports that a provider read failed and no summary
// could be computed. The underlying read error is wrapped alongside it.
var ErrAggregationFailed = errors.New("aggregation failed")
