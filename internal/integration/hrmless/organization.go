package hrmless

import (
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

var organizationDefs = []fieldDef{
	{Name: "id", Type: schema.TypeString,
		HelpText: "The unique identifier of the organization."},
	{Name: "name", Type: schema.TypeString, Required: true,
		HelpText: "The name of the organization."},
	{Name: "contact_email", Type: schema.TypeString, Required: true,
		HelpText: "The contact email of the organization."},
	{Name: "contact_phone", Type: schema.TypeString, Required: true,
		HelpText: "The contact phone number of the organization."},
	{Name: "address", Type: schema.TypeString,
		HelpText: "The address of the organization."},
	{Name: "contact_name", Type: schema.TypeString,
		HelpText: "The contact name of the organization."},
	{Name: "calendar_link", Type: schema.TypeString,
		HelpText: "The default calendar link of the organization."},
}

// organizationPayload lists the mapped keys. is_active is accepted from
// input but has no form field.
var organizationPayload = []string{
	"id", "name", "contact_email", "contact_phone", "address", "is_active", "contact_name", "calendar_link",
}

// Organization is the tenant that owns positions and candidates.
type Organization struct{}

// Fields implements Model.
func (Organization) Fields(ctx schema.Context) []schema.Field {
	return build(ctx, organizationDefs)
}

// Mapping implements Model.
func (Organization) Mapping(b operation.Bundle, prefix string) map[string]any {
	return schema.Pick(b.InputData, schema.MappingPrefix(prefix), organizationPayload...)
}

// OrgSettings wraps an Organization under the "org" key, matching the
// settings endpoint.
type OrgSettings struct{}

const orgSettingsKey = "org"

// Fields implements Model.
func (OrgSettings) Fields(ctx schema.Context) []schema.Field {
	return Organization{}.Fields(ctx.Nested(orgSettingsKey))
}

// Mapping implements Model. The wrapper key is omitted when no organization
// value was supplied.
func (OrgSettings) Mapping(b operation.Bundle, prefix string) map[string]any {
	out := map[string]any{}
	org := schema.RemoveIfEmpty(Organization{}.Mapping(b, schema.MappingPrefix(prefix)+orgSettingsKey))
	if org != nil {
		out[orgSettingsKey] = org
	}
	return out
}
