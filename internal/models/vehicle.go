package models

// Drivetrain tags. Every vehicle carries exactly one of them in its features.
const (
	DrivetrainElectric = "Electric"
	DrivetrainHybrid   = "Hybrid"
)

// Vehicle represents a rentable fleet vehicle. Records are generated once and never mutated.
type Vehicle struct {
	ID            int      `bson:"_id" json:"id"`
	Make          string   `bson:"make" json:"make"`
	Model         string   `bson:"model" json:"model"`
	Year          int      `bson:"year" json:"year"`
	DailyPrice    int      `bson:"daily_price" json:"price"`
	Location      string   `bson:"location" json:"location"` // "<city>, UK"
	City          string   `bson:"city" json:"city"`
	Postcode      string   `bson:"postcode" json:"postcode"`
	AreaCodes     []string `bson:"area_codes" json:"areas"`
	Coordinates   Location `bson:"coordinates" json:"coordinates"`
	Images        []string `bson:"images" json:"images"`
	FallbackImage string   `bson:"fallback_image" json:"fallbackImage"`
	Features      []string `bson:"features" json:"features"`
	Rating        float64  `bson:"rating" json:"rating"`
	Reviews       int      `bson:"reviews" json:"reviews"`
}

// Drivetrain returns the vehicle's drivetrain tag, or "" if none is present.
func (v Vehicle) Drivetrain() string {
	for _, f := range v.Features {
		if f == DrivetrainElectric || f == DrivetrainHybrid {
			return f
		}
	}
	return ""
}

// HasFeature reports whether the exact tag is present.
func (v Vehicle) HasFeature(tag string) bool {
	for _, f := range v.Features {
		if f == tag {
			return true
		}
	}
	return false
}

// Title is the "<make> <model>" label used by cards and map markers.
func (v Vehicle) Title() string {
	return v.Make + " " + v.Model
}
