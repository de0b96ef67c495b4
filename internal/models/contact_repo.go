package models

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

func (su *SupabaseRepo) CreateContact(ctx context.Context, contact *Contact) (*Contact, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ContactsTable).
		Insert(map[string]interface{}{
			"id":         contact.ID,
			"name":       contact.Name,
			"email":      contact.Email,
			"message":    contact.Message,
			"is_read":    false,
			"created_at": contact.CreatedAt,
		}, false, "", "representation", ""))
	if err != nil {
		return nil, Upstream("create contact", err)
	}
	return decodeOne[Contact](raw, "contact")
}

func (su *SupabaseRepo) ListContacts(ctx context.Context, limit int) ([]*Contact, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ContactsTable).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, ""))
	if err != nil {
		return nil, Upstream("list contacts", err)
	}
	return decodeRows[Contact](raw)
}

func (su *SupabaseRepo) SetContactRead(ctx context.Context, id uuid.UUID, read bool) error {
	raw, _, err := execute(ctx, su.supabaseClient.From(ContactsTable).
		Update(map[string]interface{}{"is_read": read}, "representation", "").
		Eq("id", id.String()))
	if err != nil {
		return Upstream("update contact", err)
	}
	if _, err := decodeOne[Contact](raw, "contact"); err != nil {
		return err
	}
	return nil
}

func (su *SupabaseRepo) CountUnreadContacts(ctx context.Context) (int, error) {
	_, count, err := execute(ctx, su.supabaseClient.From(ContactsTable).
		Select("id", "exact", true).
		Eq("is_read", strconv.FormatBool(false)))
	if err != nil {
		return 0, Upstream("count contacts", err)
	}
	return int(count), nil
}
