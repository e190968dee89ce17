package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeyOrderIndependent(t *testing.T) {
	a, b := NewUserID(), NewUserID()

	assert.Equal(t, ConversationKey(a, b), ConversationKey(b, a))
	assert.NotEqual(t, ConversationKey(a, b), ConversationKey(a, NewUserID()))
}

func TestConversationKeyDeterministic(t *testing.T) {
	a, b := NewUserID(), NewUserID()

	first := ConversationKey(a, b)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ConversationKey(a, b))
	}
}
