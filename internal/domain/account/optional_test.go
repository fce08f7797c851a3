package account

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalUnmarshal(t *testing.T) {
	var in UpdateInput
	require.NoError(t, json.Unmarshal([]byte(`{"first_name":"Alice","subject":[]}`), &in))

	assert.True(t, in.FirstName.Present)
	assert.Equal(t, "Alice", in.FirstName.Value)
	assert.False(t, in.LastName.Present)

	// Present-but-empty subject list is distinguishable from absent.
	assert.True(t, in.Subject.Present)
	assert.Empty(t, in.Subject.Value)
}

func TestBoolFieldUnmarshal(t *testing.T) {
	var in RegisterInput
	require.NoError(t, json.Unmarshal([]byte(`{"is_teacher":true}`), &in))
	assert.True(t, in.IsTeacher.Present)
	assert.True(t, in.IsTeacher.Valid)
	assert.True(t, in.IsTeacher.Value)

	in = RegisterInput{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &in))
	assert.False(t, in.IsTeacher.Present)
}

func TestBoolFieldNullIsNotABoolean(t *testing.T) {
	var in RegisterInput
	require.NoError(t, json.Unmarshal([]byte(`{"is_teacher":null}`), &in))

	assert.True(t, in.IsTeacher.Present)
	assert.False(t, in.IsTeacher.Valid)
	assert.False(t, in.IsTeacher.Value)
}

func TestBoolFieldMalformedDoesNotAbortDecode(t *testing.T) {
	var in RegisterInput
	require.NoError(t, json.Unmarshal([]byte(`{"username":"alice","is_teacher":"yes"}`), &in))

	// The rest of the payload still decoded.
	assert.Equal(t, "alice", in.Username)
	assert.True(t, in.IsTeacher.Present)
	assert.False(t, in.IsTeacher.Valid)
}
