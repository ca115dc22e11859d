package dispatch

// Config defines dispatch-related settings.
type Config struct {
	// SortByCost sorts dispatchables by ascending cost before each run.
	// When false, insertion order is trusted to be the merit order.
	SortByCost bool `json:"sort_by_cost"`
}
