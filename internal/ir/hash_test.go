package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationIDDeterminism(t *testing.T) {
	args := Object{"count": Int(3), "table": Array{Int(3), Int(12), Int(21)}}

	id1, err := InvocationID("run-1", "Decoder.decode", args, 5)
	require.NoError(t, err)
	id2, err := InvocationID("run-1", "Decoder.decode", args, 5)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestInvocationIDChangesWithInput(t *testing.T) {
	args := Object{"count": Int(3)}

	id := MustInvocationID("run-1", "Main.send", args, 1)
	assert.NotEqual(t, id, MustInvocationID("run-2", "Main.send", args, 1))
	assert.NotEqual(t, id, MustInvocationID("run-1", "Main.output", args, 1))
	assert.NotEqual(t, id, MustInvocationID("run-1", "Main.send", args, 2))
	assert.NotEqual(t, id, MustInvocationID("run-1", "Main.send", Object{"count": Int(4)}, 1))
}

func TestInvocationIDNilArgsMatchesEmpty(t *testing.T) {
	assert.Equal(t,
		MustInvocationID("run-1", "Types.solve", nil, 1),
		MustInvocationID("run-1", "Types.solve", Object{}, 1),
	)
}

func TestCompletionID(t *testing.T) {
	invID := MustInvocationID("run-1", "Types.solve", Object{}, 1)

	ok := MustCompletionID(invID, OutcomeOK, Object{"value": String("10")}, 2)
	assert.Len(t, ok, 64)
	assert.Equal(t, ok, MustCompletionID(invID, OutcomeOK, Object{"value": String("10")}, 2))
	assert.NotEqual(t, ok, MustCompletionID(invID, OutcomeError, Object{"value": String("10")}, 2))
	assert.NotEqual(t, ok, MustCompletionID(invID, OutcomeOK, Object{"value": String("11")}, 2))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainInvocation, data), hashWithDomain(DomainCompletion, data))
}
