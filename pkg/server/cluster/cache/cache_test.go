package cache

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCache_User(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	var user model.User
	_ = gofakeit.New(1).Struct(&user)

	c := NewCache()
	re.Nil(c.User(user.UID))

	c.SaveUser(&user)
	re.Equal(&user, c.User(user.UID))
	re.Equal(1, c.UserCount())

	c.Reset()
	re.Nil(c.User(user.UID))
	re.Equal(0, c.UserCount())
}
