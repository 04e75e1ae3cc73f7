package model

// Discount is a promotion that bookings may reference.
type Discount struct {
	DiscountID uint64  `json:"discountID"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Condition  string  `json:"condition"`
}

type CreateDiscountParam struct {
	Name      *string  `json:"name"`
	Amount    *float64 `json:"amount"`
	Condition *string  `json:"condition"`
}

func (p *CreateDiscountParam) Validate() error {
	return firstError(
		requireString("name", p.Name),
		requireNonNegative("amount", p.Amount),
		requireString("condition", p.Condition),
	)
}

// Discount builds the record to be stored under the given id.
func (p *CreateDiscountParam) Discount(id uint64) *Discount {
	return &Discount{
		DiscountID: id,
		Name:       *p.Name,
		Amount:     *p.Amount,
		Condition:  *p.Condition,
	}
}

// UpdateDiscountParam holds the fields to change. Nil fields are left untouched.
type UpdateDiscountParam struct {
	DiscountID uint64   `json:"-"`
	Name       *string  `json:"name"`
	Amount     *float64 `json:"amount"`
	Condition  *string  `json:"condition"`
}

func (p *UpdateDiscountParam) Validate() error {
	return firstError(
		optionalString("name", p.Name),
		optionalNonNegative("amount", p.Amount),
		optionalString("condition", p.Condition),
	)
}

func (p *UpdateDiscountParam) Apply(d *Discount) {
	set(&d.Name, p.Name)
	set(&d.Amount, p.Amount)
	set(&d.Condition, p.Condition)
}
