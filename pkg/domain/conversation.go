package domain

import "github.com/google/uuid"

// conversationNamespace scopes conversation keys so they can never collide
// with entity IDs minted elsewhere.
var conversationNamespace = uuid.MustParse("8f3c1d52-9b74-4e0a-9a41-6c2f0e5d7b19")

// ConversationKey derives the deterministic identifier grouping direct
// messages between two users. The pair is ordered before hashing, so both
// participants derive the same key regardless of who writes first. Message
// delivery itself lives outside this core; collaborators only need the
// grouping identifier.
func ConversationKey(a, b UserID) string {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return uuid.NewSHA1(conversationNamespace, []byte(lo+":"+hi)).String()
}
