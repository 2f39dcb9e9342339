package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain/entity"
)

func TestOpenInMemoryMigratesSchema(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer Close(db)

	for _, model := range []interface{}{
		&entity.User{}, &entity.Category{}, &entity.Product{},
		&entity.CartItem{}, &entity.Order{}, &entity.OrderItem{}, &entity.Review{},
	} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", false)
	assert.Error(t, err)
}
