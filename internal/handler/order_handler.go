package handler

import (
	"bizdesk-service/internal/model"
	"bizdesk-service/internal/schema"
	"bizdesk-service/internal/storage"
	"bizdesk-service/prometheus"
)

// OrderHandler serves /api/orders. Contact aggregates are kept in step by
// the store.
type OrderHandler struct {
	resource[model.Order]
}

func NewOrderHandler(store storage.OrderStore, m *prometheus.Metrics) *OrderHandler {
	return &OrderHandler{resource[model.Order]{
		entity:  "order",
		metrics: m,
		list:    store.ListOrders,
		get:     store.GetOrder,
		create:  store.CreateOrder,
		update:  store.UpdateOrder,
		remove:  store.DeleteOrder,
		insert:  schema.OrderInsert,
		patch:   schema.OrderPatch,
	}}
}

// DeliveryHandler serves /api/deliveries.
type DeliveryHandler struct {
	resource[model.Delivery]
}

func NewDeliveryHandler(store storage.DeliveryStore, m *prometheus.Metrics) *DeliveryHandler {
	return &DeliveryHandler{resource[model.Delivery]{
		entity:  "delivery",
		metrics: m,
		list:    store.ListDeliveries,
		get:     store.GetDelivery,
		create:  store.CreateDelivery,
		update:  store.UpdateDelivery,
		remove:  store.DeleteDelivery,
		insert:  schema.DeliveryInsert,
		patch:   schema.DeliveryPatch,
	}}
}
