// Package websocket pushes dataset and boundary load progress to dashboard
// clients.
//
// A Hub owns every connected Client. New clients receive a "connect" message
// carrying the current load states, and every finished load is broadcast as
// a "load:state" message so open dashboards can refetch without polling.
// Clients never send application messages; inbound frames are read only to
// process pings and detect disconnects.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.HubOptions{Snapshot: states}, logger)
//	hub.Start()
//	defer hub.Stop()
//	r.Get("/ws", hub.ServeHTTP)
//	hub.BroadcastLoadState(state)
package websocket
