// Package daikin provides a client for the embedded HTTP control
// interface of Daikin air conditioners fitted with a BRP069-family
// wireless LAN adapter.
//
// # Basic Usage
//
//	client, err := daikin.NewClient("192.168.1.40")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	ci, err := client.ControlInfo(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ci.Mode, ci.FanRate)
//
//	err = client.SetTargetTemperature(ctx, 22.5)
//
// # Configuration
//
// The client can be configured using functional options:
//
//	client, err := daikin.NewClient("192.168.1.40",
//	    daikin.WithRequestTimeout(10*time.Second),
//	    daikin.WithLogger(slog.Default()),
//	)
//
// # Protocol
//
// The adapter serves plain HTTP on port 80 with no authentication.
// Responses are comma-separated key=value bodies starting with a ret
// status field. Control changes are made by reading the current control
// state, changing selected fields and sending the full field set back;
// concurrent writers to the same unit can overwrite each other.
package daikin
