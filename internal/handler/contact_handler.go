package handler

import (
	"bizdesk-service/internal/model"
	"bizdesk-service/internal/schema"
	"bizdesk-service/internal/storage"
	"bizdesk-service/prometheus"
)

// ContactHandler serves /api/contacts.
type ContactHandler struct {
	resource[model.Contact]
}

func NewContactHandler(store storage.ContactStore, m *prometheus.Metrics) *ContactHandler {
	return &ContactHandler{resource[model.Contact]{
		entity:  "contact",
		metrics: m,
		list:    store.ListContacts,
		get:     store.GetContact,
		create:  store.CreateContact,
		update:  store.UpdateContact,
		remove:  store.DeleteContact,
		insert:  schema.ContactInsert,
		patch:   schema.ContactPatch,
	}}
}
