// main.go
package main

import "cointrack/cmd"

func main() {
	cmd.Execute()
}
