package models

import (
	"fmt"
	"reflect"
	"sort"
)

// SchemaVersion is bumped whenever normalization rules change in a way that
// should trigger a reprocess of stored listings.
const SchemaVersion = 2

// Utility is one of the fixed utility keys of the canonical schema.
type Utility string

const (
	Electricity Utility = "electricity"
	Gas         Utility = "gas"
	Water       Utility = "water"
	Sewer       Utility = "sewer"
	Trash       Utility = "trash"
	Internet    Utility = "internet"
	Cable       Utility = "cable"
)

// AllUtilities lists the utility keys in display order.
var AllUtilities = []Utility{Electricity, Gas, Water, Sewer, Trash, Internet, Cable}

// Payer records who pays for a utility.
type Payer string

const (
	PayerOwner   Payer = "owner"
	PayerTenant  Payer = "tenant"
	PayerUnknown Payer = "unknown"
)

// IsValid reports whether p is one of the three recognised payers.
func (p Payer) IsValid() bool {
	switch p {
	case PayerOwner, PayerTenant, PayerUnknown:
		return true
	}
	return false
}

// Category groups amenity flags.
type Category string

const (
	Community Category = "community"
	Indoor    Category = "indoor"
	Kitchen   Category = "kitchen"
	Other     Category = "other"
)

// AllCategories lists the amenity categories in display order.
var AllCategories = []Category{Community, Indoor, Kitchen, Other}

// Subsidy holds the subsidy programs a listing accepts.
type Subsidy struct {
	HACLA bool `json:"hacla"`
	BC    bool `json:"bc"`
}

// Utilities maps every utility to its payer.
type Utilities map[Utility]Payer

// NewUtilities returns a Utilities map with every key set to unknown.
func NewUtilities() Utilities {
	u := make(Utilities, len(AllUtilities))
	for _, k := range AllUtilities {
		u[k] = PayerUnknown
	}
	return u
}

// Amenities maps category -> amenity flag -> present.
type Amenities map[Category]map[string]bool

// Listing is the canonical, strongly-typed rental unit record.
type Listing struct {
	Address    string    `json:"property_address"`
	Unit       string    `json:"unit"`
	ListingURL string    `json:"listing_link"`
	ZipCode    *int      `json:"zip_code"`
	Bedrooms   int       `json:"bedrooms"`
	Bathrooms  float64   `json:"bathrooms"`
	SquareFeet *int      `json:"square_feet"`
	Area       string    `json:"area"`
	Rent       int       `json:"rent"`
	Parking    int       `json:"parking"`
	Available  bool      `json:"available"`
	Favorite   bool      `json:"favorite"`
	Subsidy    Subsidy   `json:"subsidy"`
	Utilities  Utilities `json:"utilities"`
	Amenities  Amenities `json:"amenities"`
	Photos     []string  `json:"photos"`
}

// Equal reports whether two listings hold identical values.
func (l *Listing) Equal(o *Listing) bool {
	return reflect.DeepEqual(l, o)
}

// ZipString renders the zip code with its leading zeros, or "" when unset.
func (l *Listing) ZipString() string {
	if l.ZipCode == nil {
		return ""
	}
	return fmt.Sprintf("%05d", *l.ZipCode)
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	c := *l
	if l.ZipCode != nil {
		z := *l.ZipCode
		c.ZipCode = &z
	}
	if l.SquareFeet != nil {
		s := *l.SquareFeet
		c.SquareFeet = &s
	}
	if l.Utilities != nil {
		c.Utilities = make(Utilities, len(l.Utilities))
		for k, v := range l.Utilities {
			c.Utilities[k] = v
		}
	}
	if l.Amenities != nil {
		c.Amenities = make(Amenities, len(l.Amenities))
		for cat, flags := range l.Amenities {
			m := make(map[string]bool, len(flags))
			for k, v := range flags {
				m[k] = v
			}
			c.Amenities[cat] = m
		}
	}
	if l.Photos != nil {
		c.Photos = append([]string{}, l.Photos...)
	}
	return &c
}

// AmenityNames returns the names of every amenity flagged true, sorted.
func (l *Listing) AmenityNames() []string {
	var names []string
	for _, flags := range l.Amenities {
		for name, on := range flags {
			if on {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
