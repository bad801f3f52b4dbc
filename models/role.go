package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Role is the closed set of account roles. The zero value is RoleUnknown and is
// never persisted.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleCustomer
	RoleVendor
	RoleAdmin
	RoleFraud
)

var roleNames = [...]string{
	RoleUnknown:  "unknown",
	RoleCustomer: "customer",
	RoleVendor:   "vendor",
	RoleAdmin:    "admin",
	RoleFraud:    "fraud",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return roleNames[RoleUnknown]
}

// ParseRole accepts only the four stored role names.
func ParseRole(s string) (Role, error) {
	switch s {
	case "customer":
		return RoleCustomer, nil
	case "vendor":
		return RoleVendor, nil
	case "admin":
		return RoleAdmin, nil
	case "fraud":
		return RoleFraud, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Roles are stored as plain strings so the collection stays readable from the shell.
func (r Role) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if r == RoleUnknown {
		return 0, nil, fmt.Errorf("refusing to store role %q", r)
	}
	return bson.MarshalValue(r.String())
}

func (r *Role) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("role: expected string, got %s", t)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
