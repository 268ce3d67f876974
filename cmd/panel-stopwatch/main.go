// Command panel-stopwatch drives a stopwatch panel from two GPIO buttons,
// with optional terminal, HTTP and MQTT surfaces.
package main

import "github.com/sweeney/panel-stopwatch/cmd/panel-stopwatch/cmd"

func main() {
	cmd.Execute()
}
