package services

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"rental-normalizer/models"
)

const largestCount = 5

type InsightService struct {
	logger *slog.Logger
}

func NewInsightService(logger *slog.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.StoredListing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByArea:     make(map[string]int),
		ListingsByBedrooms: make(map[int]int),
		OwnerPaid:          make(map[models.Utility]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var priced []*models.StoredListing
	var sized []*models.StoredListing

	for _, sl := range listings {
		l := &sl.Listing
		if sl.Status == models.StatusOffMarket {
			report.OffMarket++
		} else {
			report.Available++
		}
		if l.Favorite {
			report.Favorites++
		}
		if l.Rent > 0 {
			priced = append(priced, sl)
		}
		if l.SquareFeet != nil && *l.SquareFeet > 0 {
			sized = append(sized, sl)
		}
		if l.Area != "" {
			report.ListingsByArea[l.Area]++
		}
		report.ListingsByBedrooms[l.Bedrooms]++
		if l.Subsidy.HACLA {
			report.SubsidyHACLA++
		}
		if l.Subsidy.BC {
			report.SubsidyBC++
		}
		for u, p := range l.Utilities {
			if p == models.PayerOwner {
				report.OwnerPaid[u]++
			}
		}
	}

	// Rent stats (only listings with rent > 0)
	if len(priced) > 0 {
		report.MinRent = priced[0].Listing.Rent
		report.MaxRent = priced[0].Listing.Rent
		report.MostExpensive = priced[0]
		total := 0
		for _, sl := range priced {
			rent := sl.Listing.Rent
			total += rent
			if rent < report.MinRent {
				report.MinRent = rent
			}
			if rent > report.MaxRent {
				report.MaxRent = rent
				report.MostExpensive = sl
			}
		}
		report.AverageRent = round2(float64(total) / float64(len(priced)))
	}

	sort.SliceStable(sized, func(i, j int) bool {
		return *sized[i].Listing.SquareFeet > *sized[j].Listing.SquareFeet
	})
	if len(sized) > largestCount {
		sized = sized[:largestCount]
	}
	report.Largest = sized

	s.logger.Debug("[insights] report generated", "listings", report.TotalListings, "priced", len(priced))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  RENTAL LISTING INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Available      : \033[1m%d\033[0m\n", r.Available)
	fmt.Fprintf(w, "  Off market     : \033[1m%d\033[0m\n", r.OffMarket)
	fmt.Fprintf(w, "  Favorites      : \033[1m%d\033[0m\n", r.Favorites)
	fmt.Fprintf(w, "  HACLA / BC     : \033[1m%d / %d\033[0m\n", r.SubsidyHACLA, r.SubsidyBC)
	fmt.Fprintln(w)

	// Rent
	fmt.Fprintf(w, "\033[1;33m  Rent Statistics (per month)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AverageRent > 0 {
		fmt.Fprintf(w, "  Average rent : \033[1;32m$%.2f\033[0m\n", r.AverageRent)
		fmt.Fprintf(w, "  Minimum rent : \033[1;32m$%d\033[0m\n", r.MinRent)
		fmt.Fprintf(w, "  Maximum rent : \033[1;32m$%d\033[0m\n", r.MaxRent)
	} else {
		fmt.Fprintf(w, "  No rent data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		l := r.MostExpensive.Listing
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(label(&l), 50))
		fmt.Fprintf(w, "  Area : %s\n", l.Area)
		fmt.Fprintf(w, "  Rent : \033[1;31m$%d/month\033[0m\n", l.Rent)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Top %d Largest Units\033[0m\n", largestCount)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Largest) == 0 {
		fmt.Fprintf(w, "  No square footage data\n")
	} else {
		for i, sl := range r.Largest {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %s \033[1;32m%d sqft\033[0m\n",
				i+1, pad(truncate(label(&sl.Listing), 38), 40), *sl.Listing.SquareFeet)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Area\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByArea) == 0 {
		fmt.Fprintf(w, "  No area data\n")
	} else {
		type areaCount struct {
			area  string
			count int
		}
		var areas []areaCount
		for a, cnt := range r.ListingsByArea {
			areas = append(areas, areaCount{a, cnt})
		}
		sort.Slice(areas, func(i, j int) bool {
			if areas[i].count != areas[j].count {
				return areas[i].count > areas[j].count
			}
			return areas[i].area < areas[j].area
		})
		for _, ac := range areas {
			bar := strings.Repeat("█", ac.count)
			fmt.Fprintf(w, "  %s %s (%d)\n", pad(truncate(ac.area, 28), 30), bar, ac.count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Bedrooms\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	beds := make([]int, 0, len(r.ListingsByBedrooms))
	for b := range r.ListingsByBedrooms {
		beds = append(beds, b)
	}
	sort.Ints(beds)
	for _, b := range beds {
		name := fmt.Sprintf("%d bd", b)
		if b == 0 {
			name = "studio"
		}
		fmt.Fprintf(w, "  %s %d\n", pad(name, 10), r.ListingsByBedrooms[b])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Owner-Paid Utilities\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, u := range models.AllUtilities {
		fmt.Fprintf(w, "  %s %d\n", pad(string(u), 12), r.OwnerPaid[u])
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func label(l *models.Listing) string {
	if l.Unit == "" {
		return l.Address
	}
	return l.Address + " #" + l.Unit
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to max display columns, so wide runes count double.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}

func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
