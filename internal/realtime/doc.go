// Package realtime implements the dashboard's realtime event client.
//
// The client:
//   - Maintains one WebSocket connection multiplexing many logical channels
//   - Ref-counts channel subscriptions so at most one subscribe frame is
//     outstanding per channel regardless of subscriber count
//   - Re-issues subscriptions on every reconnect
//   - Handles reconnection with exponential backoff and a heartbeat ping
//   - Routes inbound frames to global and per-channel listeners
package realtime
