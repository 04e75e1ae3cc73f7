package model

// DefaultHotelImage is shown for hotels without an image.
const DefaultHotelImage = "https://images.unsplash.com/photo-1566073771259-6a8506099945?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=80"

// Hotel is a property that owns room types.
type Hotel struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Rating    float64  `json:"rating"`
	ImageURL  string   `json:"imageUrl"`
	Amenities []string `json:"amenities"`
}

// HotelSummary is the listing view of a hotel.
type HotelSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Rating    float64  `json:"rating"`
	Price     float64  `json:"price"`
	Image     string   `json:"image"`
	Amenities []string `json:"amenities"`
	Features  []string `json:"features"`
}

// Summary builds the listing view with the given representative price.
func (h *Hotel) Summary(price float64) *HotelSummary {
	image := h.ImageURL
	if image == "" {
		image = DefaultHotelImage
	}
	amenities := h.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return &HotelSummary{
		ID:        h.ID,
		Name:      h.Name,
		Location:  h.Location,
		Rating:    h.Rating,
		Price:     price,
		Image:     image,
		Amenities: amenities,
		Features:  []string{},
	}
}

type CreateHotelParam struct {
	Name      *string  `json:"name"`
	Location  *string  `json:"location"`
	Rating    *float64 `json:"rating"`
	ImageURL  *string  `json:"imageUrl"`
	Amenities []string `json:"amenities"`
}

func (p *CreateHotelParam) Validate() error {
	return firstError(
		requireString("name", p.Name),
		requireString("location", p.Location),
		optionalNonNegative("rating", p.Rating),
	)
}

// Hotel builds the record to be stored under the given id.
func (p *CreateHotelParam) Hotel(id string) *Hotel {
	h := &Hotel{
		ID:       id,
		Name:     *p.Name,
		Location: *p.Location,
	}
	set(&h.Rating, p.Rating)
	set(&h.ImageURL, p.ImageURL)
	if p.Amenities != nil {
		h.Amenities = append([]string{}, p.Amenities...)
	}
	return h
}

// UpdateHotelParam holds the fields to change. Nil fields are left untouched.
type UpdateHotelParam struct {
	ID        string    `json:"-"`
	Name      *string   `json:"name"`
	Location  *string   `json:"location"`
	Rating    *float64  `json:"rating"`
	ImageURL  *string   `json:"imageUrl"`
	Amenities *[]string `json:"amenities"`
}

func (p *UpdateHotelParam) Validate() error {
	return firstError(
		optionalString("name", p.Name),
		optionalString("location", p.Location),
		optionalNonNegative("rating", p.Rating),
	)
}

func (p *UpdateHotelParam) Apply(h *Hotel) {
	set(&h.Name, p.Name)
	set(&h.Location, p.Location)
	set(&h.Rating, p.Rating)
	set(&h.ImageURL, p.ImageURL)
	if p.Amenities != nil {
		h.Amenities = append([]string{}, (*p.Amenities)...)
	}
}
