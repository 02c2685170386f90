// Package api implements the HTTP control surface: device and
// group on/off control, schedule management, log/alert queries, and a
// live event stream, fronted by chi and guarded by bearer-token auth on
// every mutating route.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
