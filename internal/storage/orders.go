package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bizdesk-service/internal/model"
)

func (s *GormStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	return list[model.Order](ctx, s, "list orders", nil)
}

func (s *GormStore) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	return get[model.Order](ctx, s, "get order", id)
}

func (s *GormStore) CreateOrder(ctx context.Context, o *model.Order) error {
	return s.transaction(ctx, "create order", "insert", func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return s.refreshContactTotals(tx, o.ContactID)
	})
}

func (s *GormStore) UpdateOrder(ctx context.Context, id uint, patch model.Patch) (*model.Order, error) {
	var out *model.Order
	err := s.transaction(ctx, "update order", "update", func(tx *gorm.DB) error {
		var before model.Order
		if err := tx.Select("id", "contact_id").First(&before, id).Error; err != nil {
			return err
		}
		after, err := applyPatch[model.Order](tx, id, patch)
		if err != nil {
			return err
		}
		if err := s.refreshContactTotals(tx, after.ContactID); err != nil {
			return err
		}
		if before.ContactID != after.ContactID {
			if err := s.refreshContactTotals(tx, before.ContactID); err != nil {
				return err
			}
		}
		out = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) DeleteOrder(ctx context.Context, id uint) error {
	return s.transaction(ctx, "delete order", "delete", func(tx *gorm.DB) error {
		var o model.Order
		if err := tx.Select("id", "contact_id").First(&o, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Order{}, id).Error; err != nil {
			return err
		}
		return s.refreshContactTotals(tx, o.ContactID)
	})
}

// refreshContactTotals recomputes the order aggregates of one contact from
// its orders. Cancelled orders and orders in an unknown state do not count.
func (s *GormStore) refreshContactTotals(tx *gorm.DB, contactID uint) error {
	var orders []model.Order
	err := tx.Select("id", "status", "gross_total", "order_date").
		Where("contact_id = ?", contactID).
		Find(&orders).Error
	if err != nil {
		return err
	}

	var (
		count int
		spent model.Money
		last  *time.Time
	)
	for i := range orders {
		o := &orders[i]
		if !o.Status.Known() {
			s.log.Warn("Order has unknown status",
				zap.Uint("order_id", o.ID), zap.String("status", string(o.Status)))
		}
		if !o.Status.CountsTowardsTotals() {
			continue
		}
		count++
		spent = spent.Add(o.GrossTotal)
		if last == nil || o.OrderDate.After(*last) {
			d := o.OrderDate
			last = &d
		}
	}

	return tx.Model(&model.Contact{ID: contactID}).Updates(map[string]any{
		"total_orders":    count,
		"total_spent":     spent,
		"last_order_date": last,
	}).Error
}

func (s *GormStore) ListDeliveries(ctx context.Context) ([]model.Delivery, error) {
	return list[model.Delivery](ctx, s, "list deliveries", nil)
}

func (s *GormStore) GetDelivery(ctx context.Context, id uint) (*model.Delivery, error) {
	return get[model.Delivery](ctx, s, "get delivery", id)
}

// CreateDelivery books stock immediately when the delivery is created as
// received.
func (s *GormStore) CreateDelivery(ctx context.Context, d *model.Delivery) error {
	const op = "create delivery"
	return s.transaction(ctx, op, "insert", func(tx *gorm.DB) error {
		if err := requireSupplier(tx, op, d.SupplierID); err != nil {
			return err
		}
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		if d.Status == model.DeliveryReceived {
			return receiveStock(tx, op, d.Items)
		}
		return nil
	})
}

// UpdateDelivery enforces the status lifecycle: received and cancelled are
// final, and a final delivery's items cannot change.
func (s *GormStore) UpdateDelivery(ctx context.Context, id uint, patch model.Patch) (*model.Delivery, error) {
	const op = "update delivery"
	var out *model.Delivery
	err := s.transaction(ctx, op, "update", func(tx *gorm.DB) error {
		var cur model.Delivery
		if err := tx.First(&cur, id).Error; err != nil {
			return err
		}
		if !cur.Status.Known() {
			s.log.Warn("Delivery has unknown status",
				zap.Uint("delivery_id", cur.ID), zap.String("status", string(cur.Status)))
		}
		next := cur.Status
		if v, ok := patch["status"]; ok {
			st, ok := v.(model.DeliveryStatus)
			if !ok {
				return fmt.Errorf("delivery status patch has type %T", v)
			}
			next = st
		}
		if !cur.Status.CanTransitionTo(next) {
			return conflict(op, fmt.Sprintf("cannot move a %s delivery to %s", cur.Status, next))
		}
		if cur.Status.Final() && patch.Has("items") {
			return conflict(op, fmt.Sprintf("items of a %s delivery cannot change", cur.Status))
		}
		if v, ok := patch["supplier_id"]; ok {
			supplierID, ok := v.(uint)
			if !ok {
				return fmt.Errorf("delivery supplier patch has type %T", v)
			}
			if err := requireSupplier(tx, op, supplierID); err != nil {
				return err
			}
		}

		after, err := applyPatch[model.Delivery](tx, id, patch)
		if err != nil {
			return err
		}
		if cur.Status != model.DeliveryReceived && after.Status == model.DeliveryReceived {
			if err := receiveStock(tx, op, after.Items); err != nil {
				return err
			}
		}
		out = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) DeleteDelivery(ctx context.Context, id uint) error {
	return remove[model.Delivery](ctx, s, "delete delivery", id)
}

// requireSupplier fails with a conflict unless id names a supplier contact.
func requireSupplier(tx *gorm.DB, op string, id uint) error {
	var c model.Contact
	err := tx.Select("id", "type").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conflict(op, fmt.Sprintf("contact %d does not exist", id))
	}
	if err != nil {
		return err
	}
	if c.Type != model.ContactSupplier {
		return conflict(op, fmt.Sprintf("contact %d is not a supplier", id))
	}
	return nil
}

// receiveStock adds each item's quantity to its product's stock level.
func receiveStock(tx *gorm.DB, op string, items []model.DeliveryItem) error {
	for _, it := range items {
		res := tx.Model(&model.Product{}).
			Where("id = ?", it.ProductID).
			Update("stock_level", gorm.Expr("stock_level + ?", it.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflict(op, fmt.Sprintf("product %d does not exist", it.ProductID))
		}
	}
	return nil
}
