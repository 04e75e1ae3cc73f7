package model

import (
	"time"
)

const (
	DefaultPaymentStatus = "Pending"
	DefaultPaymentType   = "Card"
)

// Booking is a reservation of a room type made by a user.
type Booking struct {
	BookingID      string    `json:"bookingID"`
	RoomTypeID     uint64    `json:"roomTypeID"`
	CheckinTime    string    `json:"checkinTime"`
	CheckoutTime   string    `json:"checkoutTime"`
	AdultNum       int       `json:"adultNum"`
	ChildrenNumber int       `json:"childrenNumber"`
	Price          float64   `json:"price"`
	PaymentStatus  string    `json:"paymentStatus"`
	PaymentType    string    `json:"paymentType"`
	Night          int       `json:"night"`
	CustomerName   string    `json:"customerName"`
	UserID         string    `json:"userID"`
	BookingDate    time.Time `json:"bookingDate"`
	TotalPrice     float64   `json:"totalPrice"`
	DiscountID     *uint64   `json:"discountID,omitempty"`
}

type CreateBookingParam struct {
	RoomTypeID     *uint64  `json:"roomTypeID"`
	CheckinTime    *string  `json:"checkinTime"`
	CheckoutTime   *string  `json:"checkoutTime"`
	AdultNum       *int     `json:"adultNum"`
	ChildrenNumber *int     `json:"childrenNumber"`
	Price          *float64 `json:"price"`
	PaymentStatus  *string  `json:"paymentStatus"`
	PaymentType    *string  `json:"paymentType"`
	Night          *int     `json:"night"`
	DiscountID     *uint64  `json:"discountID"`
}

func (p *CreateBookingParam) Validate() error {
	return firstError(
		requirePositive("roomTypeID", p.RoomTypeID),
		requireString("checkinTime", p.CheckinTime),
		requireString("checkoutTime", p.CheckoutTime),
		requirePositive("adultNum", p.AdultNum),
		optionalNonNegative("childrenNumber", p.ChildrenNumber),
		requireNonNegative("price", p.Price),
		optionalString("paymentStatus", p.PaymentStatus),
		optionalString("paymentType", p.PaymentType),
		requirePositive("night", p.Night),
	)
}

// Booking builds the record made by user, with the total price derived from price and night.
func (p *CreateBookingParam) Booking(id string, user *User, now time.Time) *Booking {
	b := &Booking{
		BookingID:     id,
		RoomTypeID:    *p.RoomTypeID,
		CheckinTime:   *p.CheckinTime,
		CheckoutTime:  *p.CheckoutTime,
		AdultNum:      *p.AdultNum,
		Price:         *p.Price,
		PaymentStatus: DefaultPaymentStatus,
		PaymentType:   DefaultPaymentType,
		Night:         *p.Night,
		CustomerName:  user.Username,
		UserID:        user.UID,
		BookingDate:   now,
		TotalPrice:    *p.Price * float64(*p.Night),
		DiscountID:    p.DiscountID,
	}
	set(&b.ChildrenNumber, p.ChildrenNumber)
	set(&b.PaymentStatus, p.PaymentStatus)
	set(&b.PaymentType, p.PaymentType)
	return b
}
