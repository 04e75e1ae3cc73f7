package model

// RoomType is a kind of room offered by a hotel.
type RoomType struct {
	RoomTypeID     uint64   `json:"roomTypeID"`
	Image          string   `json:"image"`
	PriceByHour    float64  `json:"priceByHour"`
	PriceByNight   float64  `json:"priceByNight"`
	PriceBySection *float64 `json:"priceBySection"`
	TypeName       string   `json:"typeName"`
	AdultNumber    int      `json:"adultNumber"`
	ChildrenNumber int      `json:"childrenNumber"`
	Video          string   `json:"video"`
	HotelID        string   `json:"hotelID"`
}

type CreateRoomTypeParam struct {
	Image          *string  `json:"image"`
	PriceByHour    *float64 `json:"priceByHour"`
	PriceByNight   *float64 `json:"priceByNight"`
	PriceBySection *float64 `json:"priceBySection"`
	TypeName       *string  `json:"typeName"`
	AdultNumber    *int     `json:"adultNumber"`
	ChildrenNumber *int     `json:"childrenNumber"`
	Video          *string  `json:"video"`
	HotelID        *string  `json:"hotelID"`
}

func (p *CreateRoomTypeParam) Validate() error {
	return firstError(
		requireString("image", p.Image),
		requireNonNegative("priceByHour", p.PriceByHour),
		requireNonNegative("priceByNight", p.PriceByNight),
		optionalNonNegative("priceBySection", p.PriceBySection),
		requireString("typeName", p.TypeName),
		requirePositive("adultNumber", p.AdultNumber),
		requireNonNegative("childrenNumber", p.ChildrenNumber),
		requireString("video", p.Video),
		requireString("hotelID", p.HotelID),
	)
}

// RoomType builds the record to be stored under the given id.
func (p *CreateRoomTypeParam) RoomType(id uint64) *RoomType {
	return &RoomType{
		RoomTypeID:     id,
		Image:          *p.Image,
		PriceByHour:    *p.PriceByHour,
		PriceByNight:   *p.PriceByNight,
		PriceBySection: p.PriceBySection,
		TypeName:       *p.TypeName,
		AdultNumber:    *p.AdultNumber,
		ChildrenNumber: *p.ChildrenNumber,
		Video:          *p.Video,
		HotelID:        *p.HotelID,
	}
}

// UpdateRoomTypeParam holds the fields to change. Nil fields are left untouched.
type UpdateRoomTypeParam struct {
	RoomTypeID     uint64   `json:"-"`
	Image          *string  `json:"image"`
	PriceByHour    *float64 `json:"priceByHour"`
	PriceByNight   *float64 `json:"priceByNight"`
	PriceBySection *float64 `json:"priceBySection"`
	TypeName       *string  `json:"typeName"`
	AdultNumber    *int     `json:"adultNumber"`
	ChildrenNumber *int     `json:"childrenNumber"`
	Video          *string  `json:"video"`
	HotelID        *string  `json:"hotelID"`
}

func (p *UpdateRoomTypeParam) Validate() error {
	var adultErr error
	if p.AdultNumber != nil {
		adultErr = requirePositive("adultNumber", p.AdultNumber)
	}
	return firstError(
		optionalString("image", p.Image),
		optionalNonNegative("priceByHour", p.PriceByHour),
		optionalNonNegative("priceByNight", p.PriceByNight),
		optionalNonNegative("priceBySection", p.PriceBySection),
		optionalString("typeName", p.TypeName),
		adultErr,
		optionalNonNegative("childrenNumber", p.ChildrenNumber),
		optionalString("video", p.Video),
		optionalString("hotelID", p.HotelID),
	)
}

func (p *UpdateRoomTypeParam) Apply(r *RoomType) {
	set(&r.Image, p.Image)
	set(&r.PriceByHour, p.PriceByHour)
	set(&r.PriceByNight, p.PriceByNight)
	if p.PriceBySection != nil {
		v := *p.PriceBySection
		r.PriceBySection = &v
	}
	set(&r.TypeName, p.TypeName)
	set(&r.AdultNumber, p.AdultNumber)
	set(&r.ChildrenNumber, p.ChildrenNumber)
	set(&r.Video, p.Video)
	set(&r.HotelID, p.HotelID)
}
