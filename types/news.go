package types

import "time"

// HomeFeed is the C11 news service's composed output: top stories plus a
// preview per category and a for-you shelf derived from read history.
type HomeFeed struct {
	TopStories  []Hit
	Categories  map[Category][]Hit
	ForYou      []Hit
	GeneratedAt time.Time
}
