package api

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	FullName string `json:"full_name" validate:"required,min=2,max=100,fullname"`
	Password string `json:"password" validate:"required,min=8,max=100,strong_password"`
	Code     string `json:"referral_code" validate:"omitempty,max=20,referral_code"`
}

func TestCustomTags(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&signup{Username: "jane_doe", FullName: "Jane Doe", Password: "Str0ng!Pass", Code: "ABC123"}))

	err := v.Validate(&signup{Username: "jane-doe", FullName: "J4ne", Password: "weakpass", Code: "abc"})
	require.Error(t, err)

	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)

	got := map[string]string{}
	for _, fe := range fieldErrs {
		got[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, "username", got["username"])
	assert.Equal(t, "fullname", got["full_name"])
	assert.Equal(t, "strong_password", got["password"])
	assert.Equal(t, "referral_code", got["referral_code"])
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Aa1!aaaa"))
	assert.False(t, StrongPassword("Aa1aaaaa"))
	assert.False(t, StrongPassword("aa1!aaaa"))
	assert.False(t, StrongPassword("AA1!AAAA"))
	assert.False(t, StrongPassword("Aa!aaaaa"))
}

type pricing struct {
	Price float64 `json:"price" validate:"required,gt=0,lte=999999.99,price"`
}

func TestPriceTag(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&pricing{Price: 10.99}))
	assert.NoError(t, v.Validate(&pricing{Price: 25}))

	err := v.Validate(&pricing{Price: 10.999})
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "price", fieldErrs[0].Tag())
}
