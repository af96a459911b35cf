// Package realtime pushes events to connected users over websockets.
//
// A Hub tracks every open connection per user. Delivery is best-effort:
// events for users without a connection are dropped, and a connection that
// cannot keep up is closed rather than allowed to block the sender.
package realtime
