package repository

import (
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace/internal/domain/entity"
	"marketplace/pkg/errors"
)

// gormError maps driver errors onto the application taxonomy. Errors that are
// already *errors.AppError pass through untouched.
func gormError(resource, action string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound(resource, err)
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Conflict(resource + " already exists")
	}
	return errors.Internal(action, err)
}

// forUpdate adds a row lock where the dialect has one. SQLite serialises writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func incrementSalesCounts(tx *gorm.DB, items []entity.OrderItem) error {
	for productID, n := range entity.SalesIncrements(items) {
		res := tx.Model(&entity.Product{}).
			Where("id = ?", productID).
			UpdateColumn("sales_count", gorm.Expr("sales_count + ?", n))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("Product "+productID, nil)
		}
	}
	return nil
}
