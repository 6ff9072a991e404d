package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Legacy role names known to the fallback capability table.
const (
	RoleDiretor    = "DIRETOR"
	RoleGM         = "GM"
	RoleSupervisor = "SUPERVISOR"
	RoleExecutor   = "EXECUTOR"
	RoleCotador    = "COTADOR"
	RolePagador    = "PAGADOR"
)

// Role (cargo) is the canonical role descriptor consumed by every component
// after the session boundary.
type Role struct {
	ID                  string   `json:"id,omitempty" bson:"_id,omitempty"`
	Name                string   `json:"name" bson:"name"`
	Active              bool     `json:"active" bson:"active"`
	AllowedPages        []string `json:"allowed_pages,omitempty" bson:"allowed_pages,omitempty"`
	AccessLevel         int      `json:"access_level" bson:"access_level"`
	InheritsPermissions bool     `json:"inherits_permissions" bson:"inherits_permissions"`
	Permissions         []string `json:"permissions,omitempty" bson:"permissions,omitempty"`
}

// RoleRef is a role as it arrives from storage or clients: either a bare
// legacy name or a structured descriptor. Call Canonical once, at the
// session boundary.
type RoleRef struct {
	legacyName string
	structured *Role
}

func LegacyRole(name string) RoleRef {
	return RoleRef{legacyName: name}
}

func StructuredRole(r Role) RoleRef {
	return RoleRef{structured: &r}
}

func (r RoleRef) IsLegacy() bool { return r.structured == nil }

func (r RoleRef) IsZero() bool {
	return r.structured == nil && strings.TrimSpace(r.legacyName) == ""
}

// Canonical normalizes the variant into a Role. Legacy names become an
// active role with no explicit page list, so resolution falls back to the
// name table.
func (r RoleRef) Canonical() Role {
	if !r.IsLegacy() {
		role := *r.structured
		role.AllowedPages = append([]string(nil), r.structured.AllowedPages...)
		role.Permissions = append([]string(nil), r.structured.Permissions...)
		return role
	}
	return Role{
		Name:   strings.ToUpper(strings.TrimSpace(r.legacyName)),
		Active: true,
	}
}

func (r RoleRef) MarshalJSON() ([]byte, error) {
	if !r.IsLegacy() {
		return json.Marshal(r.structured)
	}
	return json.Marshal(r.legacyName)
}

func (r *RoleRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = RoleRef{}
		return nil
	case data[0] == '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = LegacyRole(name)
		return nil
	default:
		var role Role
		if err := json.Unmarshal(data, &role); err != nil {
			return err
		}
		*r = StructuredRole(role)
		return nil
	}
}

func (r RoleRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !r.IsLegacy() {
		return bson.MarshalValue(r.structured)
	}
	return bson.MarshalValue(r.legacyName)
}

func (r *RoleRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = RoleRef{}
		return nil
	case bsontype.String:
		*r = LegacyRole(raw.StringValue())
		return nil
	case bsontype.EmbeddedDocument:
		var role Role
		if err := raw.Unmarshal(&role); err != nil {
			return fmt.Errorf("decode role: %w", err)
		}
		*r = StructuredRole(role)
		return nil
	default:
		return fmt.Errorf("decode role: unsupported bson type %s", t)
	}
}
