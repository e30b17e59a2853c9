// Package board provides the Pinboard domain types, the Redis key schema and a
// Redis-backed store client for boards, lists, cards and their details.
//
// # Overview
//
// A board holds an ordered sequence of lists and every list holds an ordered
// sequence of cards. Ordering is carried by integer positions: lists are kept
// in a sorted set per board and cards in a sorted set per list, both scored by
// position. The store never derives order from insertion time.
//
// Cards reference board-scoped labels and board members (assignees) through
// Redis sets, and carry an append-only comment thread.
//
// # Identities
//
// Every entity the store creates receives a UUID. Clients may hold entities
// under a temporary identity (a "tmp-" prefixed value) while a create request
// is in flight. The store never issues identities in that namespace, so a
// permanent identity can always be told apart from a temporary one with
// IsPermanentID.
//
// # Authorization
//
// Every call is made on behalf of an actor (see Client.WithActor). Reads need
// membership, authorship or workspace visibility; writes need the creator,
// owner or editor role; deleting a board is reserved for its creator.
//
// # Live updates
//
// Mutating sessions broadcast Event values on a per-board Pub/Sub channel.
// SubscribeBoardEvents delivers the raw payloads so that the consumer decides
// how to treat malformed messages.
//
// # Multi-Namespace Support
//
// All Redis keys and channels are namespaced so that several independent
// Pinboard deployments can share one Redis server.
//
//	client, err := board.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	agg, err := client.WithActor(userID).GetBoard(ctx, boardID)
package board
