// Package workers fans resolution requests across sharded worker loops.
// Sharding is by normalized title, so concurrent requests for one title
// serialize on a single catalog session instead of racing each other.
// Background jobs submitted through Enqueue run on their own lane set with
// dedicated catalog sessions, separate from the synchronous path.
package workers
