package models

// InsightReport summarises the stored listings for the report command.
type InsightReport struct {
	TotalListings int
	Available     int
	OffMarket     int
	Favorites     int

	AverageRent   float64
	MinRent       int
	MaxRent       int
	MostExpensive *StoredListing

	Largest []*StoredListing

	ListingsByArea     map[string]int
	ListingsByBedrooms map[int]int

	SubsidyHACLA int
	SubsidyBC    int

	// OwnerPaid counts listings whose owner pays each utility.
	OwnerPaid map[Utility]int
}
