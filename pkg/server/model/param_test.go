package model

import (
	"reflect"
	"strings"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func fieldNames(v any) (names []string) {
	t := reflect.TypeOf(v)
	for i := 0; i < t.NumField(); i++ {
		names = append(names, t.Field(i).Name)
	}
	return
}

func TestNoNewFieldsInParams(t *testing.T) {
	tests := []struct {
		name          string
		record        any
		param         any
		ignoredFields []string
		// paramOnlyFields are not stored in the record.
		paramOnlyFields []string
	}{
		{
			name:          "create discount",
			record:        Discount{},
			param:         CreateDiscountParam{},
			ignoredFields: []string{"DiscountID"},
		},
		{
			name:   "update discount",
			record: Discount{},
			param:  UpdateDiscountParam{},
		},
		{
			name:          "create issue",
			record:        Issue{},
			param:         CreateIssueParam{},
			ignoredFields: []string{"IssueID", "CreateAt", "UpdateAt"},
		},
		{
			name:          "update issue",
			record:        Issue{},
			param:         UpdateIssueParam{},
			ignoredFields: []string{"CreateAt", "UpdateAt"},
		},
		{
			name:          "create room type",
			record:        RoomType{},
			param:         CreateRoomTypeParam{},
			ignoredFields: []string{"RoomTypeID"},
		},
		{
			name:   "update room type",
			record: RoomType{},
			param:  UpdateRoomTypeParam{},
		},
		{
			name:          "create hotel",
			record:        Hotel{},
			param:         CreateHotelParam{},
			ignoredFields: []string{"ID"},
		},
		{
			name:   "update hotel",
			record: Hotel{},
			param:  UpdateHotelParam{},
		},
		{
			name:          "create booking",
			record:        Booking{},
			param:         CreateBookingParam{},
			ignoredFields: []string{"BookingID", "CustomerName", "UserID", "BookingDate", "TotalPrice"},
		},
		{
			name:            "create user",
			record:          User{},
			param:           CreateUserParam{},
			ignoredFields:   []string{"UID", "DisplayName", "Provider"},
			paramOnlyFields: []string{"Password"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			paramOnly := mapset.NewThreadUnsafeSet(tt.paramOnlyFields...)
			var paramFields []string
			for _, name := range fieldNames(tt.param) {
				if !paramOnly.Contains(name) {
					paramFields = append(paramFields, name)
				}
			}
			paramFields = append(paramFields, tt.ignoredFields...)

			// If this test fails, please update the param struct or the `ignoredFields`
			re.ElementsMatch(fieldNames(tt.record), paramFields)
		})
	}
}

func TestCreateParamValidate(t *testing.T) {
	tests := []struct {
		name    string
		param   interface{ Validate() error }
		wantErr bool
	}{
		{
			name:  "discount",
			param: &CreateDiscountParam{Name: ptr("summer"), Amount: ptr(0.1), Condition: ptr("stay 3 nights")},
		},
		{
			name:  "discount with zero amount",
			param: &CreateDiscountParam{Name: ptr("free"), Amount: ptr(0.0), Condition: ptr("none")},
		},
		{
			name:    "discount without name",
			param:   &CreateDiscountParam{Amount: ptr(0.1), Condition: ptr("stay 3 nights")},
			wantErr: true,
		},
		{
			name:    "discount with blank condition",
			param:   &CreateDiscountParam{Name: ptr("summer"), Amount: ptr(0.1), Condition: ptr("  ")},
			wantErr: true,
		},
		{
			name:    "discount with negative amount",
			param:   &CreateDiscountParam{Name: ptr("summer"), Amount: ptr(-1.0), Condition: ptr("none")},
			wantErr: true,
		},
		{
			name:  "issue",
			param: &CreateIssueParam{Description: ptr("leak"), Status: ptr("open"), Image: ptr("img")},
		},
		{
			name:    "issue without image",
			param:   &CreateIssueParam{Description: ptr("leak"), Status: ptr("open")},
			wantErr: true,
		},
		{
			name: "room type without price by section and children",
			param: &CreateRoomTypeParam{
				Image: ptr("img"), PriceByHour: ptr(10.0), PriceByNight: ptr(80.0), TypeName: ptr("double"),
				AdultNumber: ptr(2), ChildrenNumber: ptr(0), Video: ptr("vid"), HotelID: ptr("h1"),
			},
		},
		{
			name: "room type without adults",
			param: &CreateRoomTypeParam{
				Image: ptr("img"), PriceByHour: ptr(10.0), PriceByNight: ptr(80.0), TypeName: ptr("double"),
				AdultNumber: ptr(0), ChildrenNumber: ptr(0), Video: ptr("vid"), HotelID: ptr("h1"),
			},
			wantErr: true,
		},
		{
			name: "room type without hotel",
			param: &CreateRoomTypeParam{
				Image: ptr("img"), PriceByHour: ptr(10.0), PriceByNight: ptr(80.0), TypeName: ptr("double"),
				AdultNumber: ptr(2), ChildrenNumber: ptr(0), Video: ptr("vid"),
			},
			wantErr: true,
		},
		{
			name:  "hotel",
			param: &CreateHotelParam{Name: ptr("Grand"), Location: ptr("Hanoi")},
		},
		{
			name:    "hotel without location",
			param:   &CreateHotelParam{Name: ptr("Grand")},
			wantErr: true,
		},
		{
			name: "booking",
			param: &CreateBookingParam{
				RoomTypeID: ptr(uint64(1)), CheckinTime: ptr("2024-01-01"), CheckoutTime: ptr("2024-01-03"),
				AdultNum: ptr(2), Price: ptr(50.0), Night: ptr(2),
			},
		},
		{
			name: "booking with zero nights",
			param: &CreateBookingParam{
				RoomTypeID: ptr(uint64(1)), CheckinTime: ptr("2024-01-01"), CheckoutTime: ptr("2024-01-03"),
				AdultNum: ptr(2), Price: ptr(50.0), Night: ptr(0),
			},
			wantErr: true,
		},
		{
			name:  "user",
			param: &CreateUserParam{Username: ptr("alice"), Email: ptr("alice@example.com")},
		},
		{
			name:    "user with bad email",
			param:   &CreateUserParam{Username: ptr("alice"), Email: ptr("not-an-email")},
			wantErr: true,
		},
		{
			name:  "user with password",
			param: &CreateUserParam{Username: ptr("alice"), Email: ptr("alice@example.com"), Password: ptr("secret")},
		},
		{
			name:    "user with short password",
			param:   &CreateUserParam{Username: ptr("alice"), Email: ptr("alice@example.com"), Password: ptr("12345")},
			wantErr: true,
		},
		{
			name:    "user with long password",
			param:   &CreateUserParam{Username: ptr("alice"), Email: ptr("alice@example.com"), Password: ptr(strings.Repeat("a", 73))},
			wantErr: true,
		},
		{
			name:  "confirmation code request",
			param: &SendConfirmationCodeParam{Username: ptr("alice"), Email: ptr("alice@example.com")},
		},
		{
			name:    "confirmation code request with bad email",
			param:   &SendConfirmationCodeParam{Username: ptr("alice"), Email: ptr("alice")},
			wantErr: true,
		},
		{
			name:    "confirmation code without code",
			param:   &VerifyConfirmationCodeParam{Username: ptr("alice")},
			wantErr: true,
		},
		{
			name: "password reset",
			param: &ResetPasswordParam{
				Email: ptr("alice@example.com"), Username: ptr("alice"), Code: ptr("123456"), NewPassword: ptr("secret"),
			},
		},
		{
			name: "password reset with short password",
			param: &ResetPasswordParam{
				Email: ptr("alice@example.com"), Username: ptr("alice"), Code: ptr("123456"), NewPassword: ptr("short"),
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			err := tt.param.Validate()
			if tt.wantErr {
				re.ErrorIs(err, ErrInvalidArgument)
			} else {
				re.NoError(err)
			}
		})
	}
}

func TestVerificationCodeMatch(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &VerificationCode{Code: "123456", ExpiresAt: now.Add(15 * time.Minute)}

	re.True(c.Match("123456", now))
	re.True(c.Match("123456", now.Add(15*time.Minute-time.Nanosecond)))
	re.False(c.Match("123456", now.Add(15*time.Minute)))
	re.False(c.Match("654321", now))
	re.False(c.Match("", now))

	var missing *VerificationCode
	re.False(missing.Match("123456", now))
}

func TestUpdateDiscountParamApply(t *testing.T) {
	tests := []struct {
		name  string
		param UpdateDiscountParam
		want  Discount
	}{
		{
			name:  "nothing",
			param: UpdateDiscountParam{},
			want:  Discount{DiscountID: 1, Name: "summer", Amount: 0.2, Condition: "3 nights"},
		},
		{
			name:  "zero amount is applied",
			param: UpdateDiscountParam{Amount: ptr(0.0)},
			want:  Discount{DiscountID: 1, Name: "summer", Amount: 0, Condition: "3 nights"},
		},
		{
			name:  "partial",
			param: UpdateDiscountParam{Name: ptr("winter")},
			want:  Discount{DiscountID: 1, Name: "winter", Amount: 0.2, Condition: "3 nights"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			d := Discount{DiscountID: 1, Name: "summer", Amount: 0.2, Condition: "3 nights"}
			re.NoError(tt.param.Validate())
			tt.param.Apply(&d)
			re.Equal(tt.want, d)
		})
	}
}

func TestUpdateRoomTypeParamApply(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	r := RoomType{RoomTypeID: 3, PriceByHour: 10, PriceByNight: 80, AdultNumber: 2, ChildrenNumber: 1, HotelID: "h1"}
	p := UpdateRoomTypeParam{ChildrenNumber: ptr(0), PriceBySection: ptr(0.0)}
	re.NoError(p.Validate())
	p.Apply(&r)

	re.Equal(0, r.ChildrenNumber)
	re.NotNil(r.PriceBySection)
	re.Equal(0.0, *r.PriceBySection)
	re.Equal(80.0, r.PriceByNight)

	re.ErrorIs((&UpdateRoomTypeParam{AdultNumber: ptr(0)}).Validate(), ErrInvalidArgument)
}

func TestUpdateIssueParamApply(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	i := Issue{IssueID: 1, Description: "leak", Status: "open", Image: "img", CreateAt: created, UpdateAt: created}
	(&UpdateIssueParam{Status: ptr("closed")}).Apply(&i, now)

	re.Equal("closed", i.Status)
	re.Equal("leak", i.Description)
	re.Equal(created, i.CreateAt)
	re.Equal(now, i.UpdateAt)
}

func TestCreateBookingParamBooking(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := CreateBookingParam{
		RoomTypeID: ptr(uint64(1)), CheckinTime: ptr("2024-01-01"), CheckoutTime: ptr("2024-01-04"),
		AdultNum: ptr(2), Price: ptr(50.0), Night: ptr(3),
	}
	b := p.Booking("b1", &User{UID: "u1", Username: "alice"}, now)

	re.Equal(150.0, b.TotalPrice)
	re.Equal(DefaultPaymentStatus, b.PaymentStatus)
	re.Equal(DefaultPaymentType, b.PaymentType)
	re.Equal("alice", b.CustomerName)
	re.Equal("u1", b.UserID)
	re.Equal(now, b.BookingDate)
	re.Nil(b.DiscountID)
}

func TestHotelSummary(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	s := (&Hotel{ID: "h1", Name: "Grand"}).Summary(0)
	re.Equal(DefaultHotelImage, s.Image)
	re.Equal([]string{}, s.Amenities)
	re.Equal(0.0, s.Price)

	s = (&Hotel{ID: "h1", ImageURL: "img", Amenities: []string{"pool"}}).Summary(80)
	re.Equal("img", s.Image)
	re.Equal([]string{"pool"}, s.Amenities)
	re.Equal(80.0, s.Price)
}
