// Package client talks to a mesh radio module in API mode.
//
// Every request is tagged with a frame id from 1 to 255 and registered
// before it is written. The transport hands decoded frames to HandleFrame,
// which matches responses back to their waiting request by frame id, hands
// modem status to a pending reset and passes received data to subscribers.
//
// Query waits for exactly one response. QueryStream collects any number of
// responses for a fixed window, which is how node discovery works. Both
// write through a single gate so ids are assigned and registered in the
// order frames are written; responses are handled without taking it.
//
// Session operations such as Reset, Transmit and Discover are built on
// those two calls. Transmit and the coordinator role depend on the
// hardware version, so Start must be called before them.
package client
