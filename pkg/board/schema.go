package board

import "fmt"

// Redis key pattern helpers
//
// All keys and Pub/Sub channels are namespaced so that independent
// deployments can share a Redis server.
//
// Key pattern: pinboard:{namespace}:{entity}:{id}[:{relation}]
// Channel pattern: pinboard:{namespace}:board:{board_id}:events

// UserKey returns the key of a user hash.
// Pattern: pinboard:{namespace}:user:{user_id}
func UserKey(namespace, userID string) string {
	return fmt.Sprintf("pinboard:%s:user:%s", namespace, userID)
}

// UserEmailIndexKey returns the key of the email -> user ID hash.
// Pattern: pinboard:{namespace}:user_by_email
func UserEmailIndexKey(namespace string) string {
	return fmt.Sprintf("pinboard:%s:user_by_email", namespace)
}

// BoardsKey returns the key of the set of all board IDs.
// Pattern: pinboard:{namespace}:boards
func BoardsKey(namespace string) string {
	return fmt.Sprintf("pinboard:%s:boards", namespace)
}

// BoardKey returns the key of a board hash.
// Pattern: pinboard:{namespace}:board:{board_id}
func BoardKey(namespace, boardID string) string {
	return fmt.Sprintf("pinboard:%s:board:%s", namespace, boardID)
}

// BoardListsKey returns the key of a board's list ZSET, scored by position.
// Pattern: pinboard:{namespace}:board:{board_id}:lists
func BoardListsKey(namespace, boardID string) string {
	return fmt.Sprintf("pinboard:%s:board:%s:lists", namespace, boardID)
}

// BoardLabelsKey returns the key of a board's label ID set.
// Pattern: pinboard:{namespace}:board:{board_id}:labels
func BoardLabelsKey(namespace, boardID string) string {
	return fmt.Sprintf("pinboard:%s:board:%s:labels", namespace, boardID)
}

// BoardMembersKey returns the key of a board's user ID -> role hash.
// Pattern: pinboard:{namespace}:board:{board_id}:members
func BoardMembersKey(namespace, boardID string) string {
	return fmt.Sprintf("pinboard:%s:board:%s:members", namespace, boardID)
}

// BoardActivityKey returns the key of a board's activity LIST, newest first.
// Pattern: pinboard:{namespace}:board:{board_id}:activity
func BoardActivityKey(namespace, boardID string) string {
	return fmt.Sprintf("pinboard:%s:board:%s:activity", namespace, boardID)
}

// ListKey returns the key of a list hash.
// Pattern: pinboard:{namespace}:list:{list_id}
func ListKey(namespace, listID string) string {
	return fmt.Sprintf("pinboard:%s:list:%s", namespace, listID)
}

// ListCardsKey returns the key of a list's card ZSET, scored by position.
// Pattern: pinboard:{namespace}:list:{list_id}:cards
func ListCardsKey(namespace, listID string) string {
	return fmt.Sprintf("pinboard:%s:list:%s:cards", namespace, listID)
}

// CardKey returns the key of a card hash.
// Pattern: pinboard:{namespace}:card:{card_id}
func CardKey(namespace, cardID string) string {
	return fmt.Sprintf("pinboard:%s:card:%s", namespace, cardID)
}

// CardLabelsKey returns the key of a card's label ID set.
// Pattern: pinboard:{namespace}:card:{card_id}:labels
func CardLabelsKey(namespace, cardID string) string {
	return fmt.Sprintf("pinboard:%s:card:%s:labels", namespace, cardID)
}

// CardAssigneesKey returns the key of a card's assignee user ID set.
// Pattern: pinboard:{namespace}:card:{card_id}:assignees
func CardAssigneesKey(namespace, cardID string) string {
	return fmt.Sprintf("pinboard:%s:card:%s:assignees", namespace, cardID)
}

// CardCommentsKey returns the key of a card's comment LIST, oldest first.
// Pattern: pinboard:{namespace}:card:{card_id}:comments
func CardCommentsKey(namespace, cardID string) string {
	return fmt.Sprintf("pinboard:%s:card:%s:comments", namespace, cardID)
}

// LabelKey returns the key of a label hash.
// Pattern: pinboard:{namespace}:label:{label_id}
func LabelKey(namespace, labelID string) string {
	return fmt.Sprintf("pinboard:%s:label:%s", namespace, labelID)
}

// BoardEventsChannel returns the Pub/Sub channel carrying a board's live updates.
// Pattern: pinboard:{namespace}:board:{board_id}:events
func BoardEventsChannel(namespace, boardID string) string {
	return fmt.Sprintf("pinboard:%s:board:%s:events", namespace, boardID)
}
