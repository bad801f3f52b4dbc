package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseRoleRejectsUnknownNames(t *testing.T) {
	r, err := ParseRole("vendor")
	require.NoError(t, err)
	assert.Equal(t, RoleVendor, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("Admin")
	assert.Error(t, err, "role names are case sensitive")
}

func TestRoleJSONRejectsUnknown(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"email":"a@x.com","role":"root"}`), &u)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@x.com","role":"fraud"}`), &u))
	assert.Equal(t, RoleFraud, u.Role)
}

func TestRoleStoredAsString(t *testing.T) {
	raw, err := bson.Marshal(User{Email: "v@x.com", Role: RoleVendor})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "vendor", doc["role"])

	var back User
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, RoleVendor, back.Role)
}

func TestUnknownRoleIsNeverStored(t *testing.T) {
	_, err := bson.Marshal(User{Email: "v@x.com"})
	assert.Error(t, err)
}
